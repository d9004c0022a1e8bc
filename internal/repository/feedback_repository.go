package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

// FeedbackRepository handles persistence for salesperson feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new repository instance.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ExistsForBooking reports whether feedback was already submitted for a booking.
func (r *FeedbackRepository) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM feedback WHERE booking_id = $1 LIMIT 1`, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check feedback exists: %w", err)
	}
	return true, nil
}

// Create persists a feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO feedback (id, booking_id, salesperson_id, was_conducted, teacher_response_rating, engagement_rating, school_feedback, notes, created_at)
		VALUES (:id, :booking_id, :salesperson_id, :was_conducted, :teacher_response_rating, :engagement_rating, :school_feedback, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// List returns feedback rows joined with their booking context.
func (r *FeedbackRepository) List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error) {
	base := `FROM feedback f JOIN bookings b ON b.id = f.booking_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("b.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.RPID != "" {
		conditions = append(conditions, fmt.Sprintf("b.rp_id = $%d", len(args)+1))
		args = append(args, filter.RPID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("b.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SessionTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("b.session_type_id = $%d", len(args)+1))
		args = append(args, filter.SessionTypeID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT f.id, f.booking_id, f.salesperson_id, f.was_conducted, f.teacher_response_rating,
		f.engagement_rating, f.school_feedback, f.notes, f.created_at,
		b.date, b.slot_id, b.subject_id, b.school_id, b.rp_id, b.session_type_id, b.topic, b.title_name
		%s ORDER BY f.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var records []models.FeedbackRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	return records, total, nil
}

// BookingIDsWithFeedback returns the set of booking ids a salesperson has
// already submitted feedback for.
func (r *FeedbackRepository) BookingIDsWithFeedback(ctx context.Context, salespersonID string) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT booking_id FROM feedback WHERE salesperson_id = $1`, salespersonID); err != nil {
		return nil, fmt.Errorf("list feedback booking ids: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
