package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

// SessionTypeRepository handles persistence for session types.
type SessionTypeRepository struct {
	db *sqlx.DB
}

// NewSessionTypeRepository creates a new repository instance.
func NewSessionTypeRepository(db *sqlx.DB) *SessionTypeRepository {
	return &SessionTypeRepository{db: db}
}

// ListActive returns active session types ordered by name.
func (r *SessionTypeRepository) ListActive(ctx context.Context) ([]models.SessionType, error) {
	const query = `SELECT id, name, duration_minutes, is_active, created_at, updated_at
		FROM session_types WHERE is_active = TRUE ORDER BY name`
	var types []models.SessionType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list session types: %w", err)
	}
	return types, nil
}

// FindByID returns a session type by id.
func (r *SessionTypeRepository) FindByID(ctx context.Context, id string) (*models.SessionType, error) {
	const query = `SELECT id, name, duration_minutes, is_active, created_at, updated_at
		FROM session_types WHERE id = $1`
	var sessionType models.SessionType
	if err := r.db.GetContext(ctx, &sessionType, query, id); err != nil {
		return nil, err
	}
	return &sessionType, nil
}

// Create persists a new session type.
func (r *SessionTypeRepository) Create(ctx context.Context, sessionType *models.SessionType) error {
	if sessionType.ID == "" {
		sessionType.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sessionType.CreatedAt = now
	sessionType.UpdatedAt = now

	const query = `INSERT INTO session_types (id, name, duration_minutes, is_active, created_at, updated_at)
		VALUES (:id, :name, :duration_minutes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sessionType); err != nil {
		return fmt.Errorf("create session type: %w", err)
	}
	return nil
}
