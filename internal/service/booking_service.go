package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

// Allocation outcomes recorded by the metrics layer.
const (
	AllocationOutcomeAssigned  = "assigned"
	AllocationOutcomeExhausted = "exhausted"
	AllocationOutcomeError     = "error"
)

type bookingStore interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, adminReason string) error
	Reassign(ctx context.Context, id string, date time.Time, slotID, rpID string) error
	MarkAttendance(ctx context.Context, id string, attendance models.AttendanceStatus, notes string, status models.BookingStatus, markedAt time.Time) error
}

type schoolStore interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	FindByName(ctx context.Context, name string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
}

type rpResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.ResourcePerson, error)
}

type allocator interface {
	AssignRP(ctx context.Context, req AssignRequest) (string, error)
}

type allocationMetrics interface {
	AllocationDecision(outcome string)
}

// BookingService owns the booking lifecycle: creation with automatic RP
// assignment, the admin approve/reject/cancel transitions, admin
// reassignment, and the RP's attendance report.
type BookingService struct {
	bookings  bookingStore
	schools   schoolStore
	rps       rpResolver
	engine    allocator
	metrics   allocationMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

func NewBookingService(bookings bookingStore, schools schoolStore, rps rpResolver, engine allocator, metrics allocationMetrics, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:  bookings,
		schools:   schools,
		rps:       rps,
		engine:    engine,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

func (s *BookingService) recordAllocation(outcome string) {
	if s.metrics != nil {
		s.metrics.AllocationDecision(outcome)
	}
}

// Create books a session for the salesperson. The school may be created on
// the fly; the allocation engine picks the RP, and when it finds nobody the
// caller receives ErrNoResourceAvailable without any row being written.
func (s *BookingService) Create(ctx context.Context, salespersonID string, req models.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	school, err := s.resolveSchool(ctx, req)
	if err != nil {
		return nil, err
	}

	rpID, err := s.engine.AssignRP(ctx, AssignRequest{
		SubjectID:     req.SubjectID,
		SlotID:        req.SlotID,
		Date:          date,
		SessionTypeID: req.SessionTypeID,
		SchoolID:      school.ID,
	})
	if err != nil {
		s.recordAllocation(AllocationOutcomeError)
		return nil, err
	}
	if rpID == "" {
		s.recordAllocation(AllocationOutcomeExhausted)
		return nil, appErrors.ErrNoResourceAvailable
	}
	s.recordAllocation(AllocationOutcomeAssigned)

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:            uuid.NewString(),
		Date:          date,
		SlotID:        req.SlotID,
		SubjectID:     req.SubjectID,
		SessionTypeID: req.SessionTypeID,
		SchoolID:      school.ID,
		SalespersonID: salespersonID,
		RPID:          &rpID,
		Status:        models.StatusPending,
		City:          req.City,
		ClassName:     req.ClassName,
		GradeOfSchool: req.GradeOfSchool,
		Curriculum:    req.Curriculum,
		Topic:         req.Topic,
		TitleName:     req.TitleName,
		Notes:         req.Notes,
		TabType:       req.TabType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("rp_id", rpID),
		zap.String("slot_id", req.SlotID),
		zap.String("date", req.Date))

	return booking, nil
}

func (s *BookingService) resolveSchool(ctx context.Context, req models.CreateBookingRequest) (*models.School, error) {
	if req.SchoolID != "" {
		school, err := s.schools.FindByID(ctx, req.SchoolID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
			}
			return nil, err
		}
		return school, nil
	}

	name := strings.TrimSpace(req.SchoolName)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school name must not be blank")
	}

	school, err := s.schools.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if school != nil {
		return school, nil
	}

	now := time.Now().UTC()
	school = &models.School{
		ID:        uuid.NewString(),
		Name:      name,
		City:      req.City,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, fmt.Errorf("create school: %w", err)
	}
	s.logger.Info("school created on demand", zap.String("school_id", school.ID), zap.String("name", name))
	return school, nil
}

// List returns bookings matching the filter with pagination metadata.
// Role scoping is expressed through the filter's SalespersonID / RPID fields.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return bookings, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListForRPUser scopes a listing to the resource person linked to a login
// account.
func (s *BookingService) ListForRPUser(ctx context.Context, userID string, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	rp, err := s.rps.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no resource person profile linked to this account")
		}
		return nil, nil, err
	}
	filter.RPID = rp.ID
	return s.List(ctx, filter)
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, err
	}
	return booking, nil
}

// Approve moves a pending booking to Approved. Any other starting status is
// rejected; approval never re-runs the allocation checks.
func (s *BookingService) Approve(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusApproved, "", models.StatusPending)
}

// Reject moves a pending booking to Rejected, releasing its capacity.
func (s *BookingService) Reject(ctx context.Context, id, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a reason is required to reject a booking")
	}
	return s.transition(ctx, id, models.StatusRejected, reason, models.StatusPending)
}

// Cancel withdraws a pending or approved booking.
func (s *BookingService) Cancel(ctx context.Context, id, reason string) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusCancelled, reason, models.StatusPending, models.StatusApproved)
}

func (s *BookingService) transition(ctx context.Context, id string, to models.BookingStatus, reason string, allowedFrom ...models.BookingStatus) (*models.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, from := range allowedFrom {
		if booking.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("booking in status %s cannot move to %s", booking.Status, to))
	}

	if err := s.bookings.UpdateStatus(ctx, id, to, reason); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(to)))

	booking.Status = to
	booking.AdminReason = reason
	return booking, nil
}

// Reassign moves a booking to a new date and slot. Without an explicit RP
// the engine re-runs the full eligibility walk for the new placement; when
// it comes up empty the booking keeps its current placement untouched. An
// explicit rp_id is written as given, last-write-wins.
func (s *BookingService) Reassign(ctx context.Context, id string, req models.ReassignBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment request")
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("booking in status %s cannot be reassigned", booking.Status))
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	rpID := req.RPID
	if rpID == "" {
		rpID, err = s.engine.AssignRP(ctx, AssignRequest{
			SubjectID:     booking.SubjectID,
			SlotID:        req.SlotID,
			Date:          date,
			SessionTypeID: booking.SessionTypeID,
			SchoolID:      booking.SchoolID,
		})
		if err != nil {
			s.recordAllocation(AllocationOutcomeError)
			return nil, err
		}
		if rpID == "" {
			s.recordAllocation(AllocationOutcomeExhausted)
			return nil, appErrors.ErrNoResourceAvailable
		}
		s.recordAllocation(AllocationOutcomeAssigned)
	}

	if err := s.bookings.Reassign(ctx, id, date, req.SlotID, rpID); err != nil {
		return nil, fmt.Errorf("reassign booking: %w", err)
	}

	s.logger.Info("booking reassigned",
		zap.String("booking_id", id),
		zap.String("rp_id", rpID),
		zap.String("slot_id", req.SlotID),
		zap.String("date", req.Date))

	booking.Date = date
	booking.SlotID = req.SlotID
	booking.RPID = &rpID
	return booking, nil
}

// MarkAttendance records the RP's post-session report on their own booking.
// A "Completed" report promotes the booking itself to Completed; every other
// report leaves the booking status untouched.
func (s *BookingService) MarkAttendance(ctx context.Context, bookingID, rpUserID string, req models.MarkAttendanceRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance report")
	}

	attendance, err := models.ParseAttendanceStatus(req.AttendanceStatus)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rp, err := s.rps.FindByUserID(ctx, rpUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no resource person profile linked to this account")
		}
		return nil, err
	}
	if booking.RPID == nil || *booking.RPID != rp.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking is not assigned to you")
	}
	if booking.Status != models.StatusApproved && booking.Status != models.StatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("attendance cannot be marked on a %s booking", booking.Status))
	}

	status := booking.Status
	if attendance == models.AttendanceCompleted {
		status = models.StatusCompleted
	}

	markedAt := time.Now().UTC()
	if err := s.bookings.MarkAttendance(ctx, bookingID, attendance, req.SessionNotes, status, markedAt); err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	s.logger.Info("attendance marked",
		zap.String("booking_id", bookingID),
		zap.String("rp_id", rp.ID),
		zap.String("attendance", string(attendance)))

	booking.Status = status
	booking.RPAttendanceStatus = &attendance
	notes := req.SessionNotes
	booking.RPSessionNotes = &notes
	booking.RPMarkedAt = &markedAt
	return booking, nil
}
