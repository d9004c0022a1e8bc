package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type feedbackStore interface {
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
	Create(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error)
	BookingIDsWithFeedback(ctx context.Context, salespersonID string) (map[string]struct{}, error)
}

type bookingFinder interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

// FeedbackService collects post-session reports from salespeople. One report
// per booking, and only for bookings that reached Completed.
type FeedbackService struct {
	feedback  feedbackStore
	bookings  bookingFinder
	validator *validator.Validate
	logger    *zap.Logger
}

func NewFeedbackService(feedback feedbackStore, bookings bookingFinder, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{feedback: feedback, bookings: bookings, validator: validate, logger: logger}
}

// Submit stores a salesperson's report on their own completed booking.
func (s *FeedbackService) Submit(ctx context.Context, salespersonID string, req models.CreateFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback")
	}

	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	if booking.SalespersonID != salespersonID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking does not belong to you")
	}
	if booking.Status != models.StatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "feedback can only be given on completed sessions")
	}

	exists, err := s.feedback.ExistsForBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "feedback has already been submitted for this booking")
	}

	feedback := &models.Feedback{
		ID:                    uuid.NewString(),
		BookingID:             req.BookingID,
		SalespersonID:         salespersonID,
		WasConducted:          req.WasConducted,
		TeacherResponseRating: req.TeacherResponseRating,
		EngagementRating:      req.EngagementRating,
		SchoolFeedback:        req.SchoolFeedback,
		Notes:                 req.Notes,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.Info("feedback submitted",
		zap.String("booking_id", req.BookingID),
		zap.String("salesperson_id", salespersonID))
	return feedback, nil
}

// List returns feedback rows joined with their booking context.
func (s *FeedbackService) List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	records, total, err := s.feedback.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// PendingBookingIDs returns the salesperson's completed bookings that still
// lack feedback.
func (s *FeedbackService) PendingBookingIDs(ctx context.Context, salespersonID string) ([]string, error) {
	done, err := s.feedback.BookingIDsWithFeedback(ctx, salespersonID)
	if err != nil {
		return nil, err
	}

	bookings, _, err := s.bookings.List(ctx, models.BookingFilter{
		SalespersonID: salespersonID,
		Status:        models.StatusCompleted,
		Page:          1,
		PageSize:      500,
	})
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, b := range bookings {
		if _, ok := done[b.ID]; !ok {
			pending = append(pending, b.ID)
		}
	}
	return pending, nil
}
