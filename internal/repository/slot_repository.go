package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

// SlotRepository handles persistence for time slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new repository instance.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListActiveOrdered returns active slots ordered by start time. The ordering
// defines slot adjacency for the break rule.
func (r *SlotRepository) ListActiveOrdered(ctx context.Context) ([]models.Slot, error) {
	const query = `SELECT id, start_time, end_time, duration_minutes, is_active, created_at, updated_at
		FROM slots WHERE is_active = TRUE ORDER BY start_time`
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}
	return slots, nil
}

// List returns every slot including inactive ones, ordered by start time.
func (r *SlotRepository) List(ctx context.Context) ([]models.Slot, error) {
	const query = `SELECT id, start_time, end_time, duration_minutes, is_active, created_at, updated_at
		FROM slots ORDER BY start_time`
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// FindByID returns a slot by id.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.Slot, error) {
	const query = `SELECT id, start_time, end_time, duration_minutes, is_active, created_at, updated_at
		FROM slots WHERE id = $1`
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create persists a new slot.
func (r *SlotRepository) Create(ctx context.Context, slot *models.Slot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO slots (id, start_time, end_time, duration_minutes, is_active, created_at, updated_at)
		VALUES (:id, :start_time, :end_time, :duration_minutes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// SetActive toggles a slot's active flag.
func (r *SlotRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE slots SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set slot active: %w", err)
	}
	return nil
}
