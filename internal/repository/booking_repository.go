package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

// blockingStatusSet mirrors models.BlockingStatuses for use inside SQL.
const blockingStatusSet = "('Pending', 'Approved', 'Scheduled', 'Completed')"

const bookingColumns = `id, date, slot_id, subject_id, session_type_id, school_id, salesperson_id, rp_id, status,
	city, class_name, grade_of_school, curriculum, topic, title_name, notes, tab_type, admin_reason,
	rp_attendance_status, rp_session_notes, rp_marked_at, created_at, updated_at`

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new repository instance.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CountBlocking returns the number of bookings matching every non-zero field
// of the filter whose status consumes capacity. This is the single primitive
// all allocation quota rules are built from.
func (r *BookingRepository) CountBlocking(ctx context.Context, filter models.BookingCountFilter) (int, error) {
	query := "SELECT COUNT(*) FROM bookings WHERE status IN " + blockingStatusSet
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}

	if !filter.Date.IsZero() {
		add("date", filter.Date.Format("2006-01-02"))
	}
	if filter.SlotID != "" {
		add("slot_id", filter.SlotID)
	}
	if filter.SchoolID != "" {
		add("school_id", filter.SchoolID)
	}
	if filter.RPID != "" {
		add("rp_id", filter.RPID)
	}
	if filter.SubjectID != "" {
		add("subject_id", filter.SubjectID)
	}
	if filter.SessionTypeID != "" {
		add("session_type_id", filter.SessionTypeID)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count blocking bookings: %w", err)
	}
	return count, nil
}

// List returns bookings matching filters with pagination metadata.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date.Format("2006-01-02"))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.RPID != "" {
		conditions = append(conditions, fmt.Sprintf("rp_id = $%d", len(args)+1))
		args = append(args, filter.RPID)
	}
	if filter.SalespersonID != "" {
		conditions = append(conditions, fmt.Sprintf("salesperson_id = $%d", len(args)+1))
		args = append(args, filter.SalespersonID)
	}
	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d", bookingColumns, base, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// FindByID returns a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, date, slot_id, subject_id, session_type_id, school_id, salesperson_id, rp_id, status,
		city, class_name, grade_of_school, curriculum, topic, title_name, notes, tab_type, admin_reason,
		rp_attendance_status, rp_session_notes, rp_marked_at, created_at, updated_at)
		VALUES (:id, :date, :slot_id, :subject_id, :session_type_id, :school_id, :salesperson_id, :rp_id, :status,
		:city, :class_name, :grade_of_school, :curriculum, :topic, :title_name, :notes, :tab_type, :admin_reason,
		:rp_attendance_status, :rp_session_notes, :rp_marked_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// UpdateStatus moves a booking to a new status. Updates are unconditional
// last-write-wins against the row id.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, adminReason string) error {
	const query = `UPDATE bookings SET status = $2, admin_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, adminReason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// Reassign rewrites the date, slot and RP of a booking (admin edit).
func (r *BookingRepository) Reassign(ctx context.Context, id string, date time.Time, slotID, rpID string) error {
	const query = `UPDATE bookings SET date = $2, slot_id = $3, rp_id = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, date.Format("2006-01-02"), slotID, rpID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reassign booking: %w", err)
	}
	return nil
}

// MarkAttendance records the RP's post-session report, optionally promoting
// the booking status.
func (r *BookingRepository) MarkAttendance(ctx context.Context, id string, attendance models.AttendanceStatus, notes string, status models.BookingStatus, markedAt time.Time) error {
	const query = `UPDATE bookings SET rp_attendance_status = $2, rp_session_notes = $3, rp_marked_at = $4, status = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, attendance, notes, markedAt, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark booking attendance: %w", err)
	}
	return nil
}
