package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

const unavailabilityColumns = `id, rp_id, date, is_full_day, slot_id, session_type_id, reason, created_at`

// RPUnavailabilityRepository handles persistence for RP absence records.
type RPUnavailabilityRepository struct {
	db *sqlx.DB
}

// NewRPUnavailabilityRepository creates a new repository instance.
func NewRPUnavailabilityRepository(db *sqlx.DB) *RPUnavailabilityRepository {
	return &RPUnavailabilityRepository{db: db}
}

// Probe verifies the rp_unavailability table is readable. Run once at
// startup; a failure disables absence checks instead of failing bookings.
func (r *RPUnavailabilityRepository) Probe(ctx context.Context) error {
	var one int
	if err := r.db.GetContext(ctx, &one, `SELECT 1 FROM rp_unavailability LIMIT 1`); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("probe rp_unavailability: %w", err)
	}
	return nil
}

// ListForRPDate returns every absence record for an RP on a date.
func (r *RPUnavailabilityRepository) ListForRPDate(ctx context.Context, rpID string, date time.Time) ([]models.RPUnavailability, error) {
	query := fmt.Sprintf("SELECT %s FROM rp_unavailability WHERE rp_id = $1 AND date = $2", unavailabilityColumns)
	var records []models.RPUnavailability
	if err := r.db.SelectContext(ctx, &records, query, rpID, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list rp absences: %w", err)
	}
	return records, nil
}

// ListByDate returns all absences on a date, for the admin dashboard.
func (r *RPUnavailabilityRepository) ListByDate(ctx context.Context, date time.Time) ([]models.RPUnavailability, error) {
	query := fmt.Sprintf("SELECT %s FROM rp_unavailability WHERE date = $1 ORDER BY created_at", unavailabilityColumns)
	var records []models.RPUnavailability
	if err := r.db.SelectContext(ctx, &records, query, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list absences by date: %w", err)
	}
	return records, nil
}

// ExistsExact reports whether an identical absence record already exists.
func (r *RPUnavailabilityRepository) ExistsExact(ctx context.Context, record models.RPUnavailability) (bool, error) {
	query := `SELECT 1 FROM rp_unavailability WHERE rp_id = $1 AND date = $2 AND is_full_day = $3`
	args := []interface{}{record.RPID, record.Date.Format("2006-01-02"), record.IsFullDay}

	if record.SlotID != nil {
		args = append(args, *record.SlotID)
		query += fmt.Sprintf(" AND slot_id = $%d", len(args))
	} else {
		query += " AND slot_id IS NULL"
	}
	if record.SessionTypeID != nil {
		args = append(args, *record.SessionTypeID)
		query += fmt.Sprintf(" AND session_type_id = $%d", len(args))
	} else {
		query += " AND session_type_id IS NULL"
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check absence duplicate: %w", err)
	}
	return true, nil
}

// Create persists a new absence record.
func (r *RPUnavailabilityRepository) Create(ctx context.Context, record *models.RPUnavailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO rp_unavailability (id, rp_id, date, is_full_day, slot_id, session_type_id, reason, created_at)
		VALUES (:id, :rp_id, :date, :is_full_day, :slot_id, :session_type_id, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// Delete removes an absence record, making the RP available again. Deleting
// an unknown id returns sql.ErrNoRows.
func (r *RPUnavailabilityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rp_unavailability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
