package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

const rpColumns = `id, display_name, email, user_id, is_active, created_at, updated_at`

// ResourcePersonRepository handles persistence for resource persons.
type ResourcePersonRepository struct {
	db *sqlx.DB
}

// NewResourcePersonRepository creates a new repository instance.
func NewResourcePersonRepository(db *sqlx.DB) *ResourcePersonRepository {
	return &ResourcePersonRepository{db: db}
}

// List returns all resource persons ordered by display name.
func (r *ResourcePersonRepository) List(ctx context.Context) ([]models.ResourcePerson, error) {
	query := fmt.Sprintf("SELECT %s FROM resource_persons ORDER BY display_name", rpColumns)
	var rps []models.ResourcePerson
	if err := r.db.SelectContext(ctx, &rps, query); err != nil {
		return nil, fmt.Errorf("list resource persons: %w", err)
	}
	return rps, nil
}

// FindByID returns a resource person by id.
func (r *ResourcePersonRepository) FindByID(ctx context.Context, id string) (*models.ResourcePerson, error) {
	query := fmt.Sprintf("SELECT %s FROM resource_persons WHERE id = $1", rpColumns)
	var rp models.ResourcePerson
	if err := r.db.GetContext(ctx, &rp, query, id); err != nil {
		return nil, err
	}
	return &rp, nil
}

// FindByUserID returns the RP record linked to a login user, if any.
func (r *ResourcePersonRepository) FindByUserID(ctx context.Context, userID string) (*models.ResourcePerson, error) {
	query := fmt.Sprintf("SELECT %s FROM resource_persons WHERE user_id = $1 LIMIT 1", rpColumns)
	var rp models.ResourcePerson
	if err := r.db.GetContext(ctx, &rp, query, userID); err != nil {
		return nil, err
	}
	return &rp, nil
}

// FindByEmail returns up to two RP records matching an email. The caller
// auto-links only when exactly one unlinked match exists.
func (r *ResourcePersonRepository) FindByEmail(ctx context.Context, email string) ([]models.ResourcePerson, error) {
	query := fmt.Sprintf("SELECT %s FROM resource_persons WHERE LOWER(email) = LOWER($1) LIMIT 2", rpColumns)
	var rps []models.ResourcePerson
	if err := r.db.SelectContext(ctx, &rps, query, email); err != nil {
		return nil, fmt.Errorf("find rp by email: %w", err)
	}
	return rps, nil
}

// LinkUser attaches a login user to an RP record.
func (r *ResourcePersonRepository) LinkUser(ctx context.Context, rpID, userID string) error {
	const query = `UPDATE resource_persons SET user_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, rpID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link rp user: %w", err)
	}
	return nil
}

// Create persists a new resource person.
func (r *ResourcePersonRepository) Create(ctx context.Context, rp *models.ResourcePerson) error {
	if rp.ID == "" {
		rp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rp.CreatedAt = now
	rp.UpdatedAt = now

	const query = `INSERT INTO resource_persons (id, display_name, email, user_id, is_active, created_at, updated_at)
		VALUES (:id, :display_name, :email, :user_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rp); err != nil {
		return fmt.Errorf("create resource person: %w", err)
	}
	return nil
}
