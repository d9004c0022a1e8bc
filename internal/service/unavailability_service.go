package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type unavailabilityStore interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.RPUnavailability, error)
	ExistsExact(ctx context.Context, record models.RPUnavailability) (bool, error)
	Create(ctx context.Context, record *models.RPUnavailability) error
	Delete(ctx context.Context, id string) error
}

// UnavailabilityService manages the RP absence registry the engine consults.
// Marking an absence never touches existing bookings; it only removes the RP
// from future allocation on that date.
type UnavailabilityService struct {
	records   unavailabilityStore
	rps       rpStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewUnavailabilityService(records unavailabilityStore, rps rpStore, validate *validator.Validate, logger *zap.Logger) *UnavailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnavailabilityService{records: records, rps: rps, validator: validate, logger: logger}
}

// Mark records an absence. Exact duplicates (same RP, date, full-day flag,
// slot and session type scope) are rejected; differently scoped records for
// the same RP and date are fine.
func (s *UnavailabilityService) Mark(ctx context.Context, req models.MarkUnavailabilityRequest) (*models.RPUnavailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence request")
	}
	if !req.IsFullDay && req.SlotID == nil && req.SessionTypeID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absence must be full-day or scoped to a slot or session type")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	if _, err := s.rps.FindByID(ctx, req.RPID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource person not found")
		}
		return nil, err
	}

	record := models.RPUnavailability{
		RPID:          req.RPID,
		Date:          date,
		IsFullDay:     req.IsFullDay,
		SlotID:        req.SlotID,
		SessionTypeID: req.SessionTypeID,
		Reason:        req.Reason,
	}

	exists, err := s.records.ExistsExact(ctx, record)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an identical absence record already exists")
	}

	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	if err := s.records.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("create absence: %w", err)
	}

	s.logger.Info("rp marked unavailable",
		zap.String("rp_id", req.RPID),
		zap.String("date", req.Date),
		zap.Bool("full_day", req.IsFullDay))
	return &record, nil
}

// ListByDate returns all absence records for a date.
func (s *UnavailabilityService) ListByDate(ctx context.Context, date time.Time) ([]models.RPUnavailability, error) {
	return s.records.ListByDate(ctx, date)
}

// Remove deletes an absence record, restoring the RP to allocation.
func (s *UnavailabilityService) Remove(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence record not found")
		}
		return fmt.Errorf("delete absence: %w", err)
	}
	return nil
}
