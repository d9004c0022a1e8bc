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

// RPRuleRepository handles persistence for RP eligibility rules.
type RPRuleRepository struct {
	db *sqlx.DB
}

// NewRPRuleRepository creates a new repository instance.
func NewRPRuleRepository(db *sqlx.DB) *RPRuleRepository {
	return &RPRuleRepository{db: db}
}

// ListForCombination returns the priority-ordered candidate rules for a
// subject and day-type/session-category combination. An empty result is a
// valid "no configured candidates" outcome.
func (r *RPRuleRepository) ListForCombination(ctx context.Context, subjectID string, isSaturday, isAVRD bool) ([]models.RPSubjectRule, error) {
	const query = `SELECT id, subject_id, rp_id, is_saturday, is_avrd, priority, max_classes_per_day, created_at, updated_at
		FROM rp_subject_rules WHERE subject_id = $1 AND is_saturday = $2 AND is_avrd = $3 ORDER BY priority`
	var rules []models.RPSubjectRule
	if err := r.db.SelectContext(ctx, &rules, query, subjectID, isSaturday, isAVRD); err != nil {
		return nil, fmt.Errorf("list rp rules: %w", err)
	}
	return rules, nil
}

// ListBySubject returns every rule configured for a subject.
func (r *RPRuleRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.RPSubjectRule, error) {
	const query = `SELECT id, subject_id, rp_id, is_saturday, is_avrd, priority, max_classes_per_day, created_at, updated_at
		FROM rp_subject_rules WHERE subject_id = $1 ORDER BY is_saturday, is_avrd, priority`
	var rules []models.RPSubjectRule
	if err := r.db.SelectContext(ctx, &rules, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject rules: %w", err)
	}
	return rules, nil
}

// Create persists a new eligibility rule.
func (r *RPRuleRepository) Create(ctx context.Context, rule *models.RPSubjectRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	const query = `INSERT INTO rp_subject_rules (id, subject_id, rp_id, is_saturday, is_avrd, priority, max_classes_per_day, created_at, updated_at)
		VALUES (:id, :subject_id, :rp_id, :is_saturday, :is_avrd, :priority, :max_classes_per_day, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rp rule: %w", err)
	}
	return nil
}

// Delete removes a rule. Deleting an unknown id returns sql.ErrNoRows.
func (r *RPRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rp_subject_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rp rule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
