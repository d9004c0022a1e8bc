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

// SchoolRepository handles persistence for schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new repository instance.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// ListActive returns active schools ordered by name.
func (r *SchoolRepository) ListActive(ctx context.Context) ([]models.School, error) {
	const query = `SELECT id, name, city, is_active, created_at, updated_at FROM schools WHERE is_active = TRUE ORDER BY name`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindByID returns a school by id.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, city, is_active, created_at, updated_at FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// FindByName returns the active school with the given name, or nil when none
// exists. Used by the booking flow to decide whether to create the school.
func (r *SchoolRepository) FindByName(ctx context.Context, name string) (*models.School, error) {
	const query = `SELECT id, name, city, is_active, created_at, updated_at
		FROM schools WHERE LOWER(name) = LOWER($1) AND is_active = TRUE LIMIT 1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find school by name: %w", err)
	}
	return &school, nil
}

// Create persists a new school. School creation is append-only; rows are
// never deleted by the portal.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now

	const query = `INSERT INTO schools (id, name, city, is_active, created_at, updated_at)
		VALUES (:id, :name, :city, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}
