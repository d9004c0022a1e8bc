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

type slotStore interface {
	List(ctx context.Context) ([]models.Slot, error)
	ListActiveOrdered(ctx context.Context) ([]models.Slot, error)
	FindByID(ctx context.Context, id string) (*models.Slot, error)
	Create(ctx context.Context, slot *models.Slot) error
	SetActive(ctx context.Context, id string, active bool) error
}

type subjectStore interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type sessionTypeStore interface {
	ListActive(ctx context.Context) ([]models.SessionType, error)
	Create(ctx context.Context, sessionType *models.SessionType) error
}

type rpStore interface {
	List(ctx context.Context) ([]models.ResourcePerson, error)
	FindByID(ctx context.Context, id string) (*models.ResourcePerson, error)
	Create(ctx context.Context, rp *models.ResourcePerson) error
}

type ruleStore interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.RPSubjectRule, error)
	Create(ctx context.Context, rule *models.RPSubjectRule) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the scheduling reference data: slots, subjects,
// session types, resource persons and the eligibility rules the engine
// consults. All mutations are admin-only; reads back the booking form.
type CatalogService struct {
	slots     slotStore
	subjects  subjectStore
	types     sessionTypeStore
	rps       rpStore
	rules     ruleStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCatalogService(slots slotStore, subjects subjectStore, types sessionTypeStore, rps rpStore, rules ruleStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		slots:     slots,
		subjects:  subjects,
		types:     types,
		rps:       rps,
		rules:     rules,
		validator: validate,
		logger:    logger,
	}
}

func (s *CatalogService) ListSlots(ctx context.Context, includeInactive bool) ([]models.Slot, error) {
	if includeInactive {
		return s.slots.List(ctx)
	}
	return s.slots.ListActiveOrdered(ctx)
}

func (s *CatalogService) CreateSlot(ctx context.Context, req models.CreateSlotRequest) (*models.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	existing, err := s.slots.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, slot := range existing {
		if slot.StartTime == req.StartTime {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a slot already starts at this time")
		}
	}

	now := time.Now().UTC()
	slot := &models.Slot{
		ID:              uuid.NewString(),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("slot created", zap.String("slot_id", slot.ID), zap.String("window", slot.Label()))
	return slot, nil
}

// SetSlotActive retires or reactivates a slot. Retiring a slot removes it
// from the adjacency ordering; existing bookings in it are untouched.
func (s *CatalogService) SetSlotActive(ctx context.Context, id string, active bool) error {
	if _, err := s.slots.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return err
	}
	if err := s.slots.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	s.logger.Info("slot active flag changed", zap.String("slot_id", id), zap.Bool("active", active))
	return nil
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return s.subjects.ListActive(ctx)
}

func (s *CatalogService) CreateSubject(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject")
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.subjects.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists")
	}

	now := time.Now().UTC()
	subject := &models.Subject{ID: uuid.NewString(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

func (s *CatalogService) ListSessionTypes(ctx context.Context) ([]models.SessionType, error) {
	return s.types.ListActive(ctx)
}

func (s *CatalogService) CreateSessionType(ctx context.Context, req models.CreateSessionTypeRequest) (*models.SessionType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session type")
	}

	now := time.Now().UTC()
	sessionType := &models.SessionType{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		DurationMinutes: req.DurationMinutes,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.types.Create(ctx, sessionType); err != nil {
		return nil, fmt.Errorf("create session type: %w", err)
	}
	return sessionType, nil
}

func (s *CatalogService) ListResourcePersons(ctx context.Context) ([]models.ResourcePerson, error) {
	return s.rps.List(ctx)
}

func (s *CatalogService) CreateResourcePerson(ctx context.Context, req models.CreateResourcePersonRequest) (*models.ResourcePerson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource person")
	}

	now := time.Now().UTC()
	rp := &models.ResourcePerson{
		ID:          uuid.NewString(),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.rps.Create(ctx, rp); err != nil {
		return nil, fmt.Errorf("create resource person: %w", err)
	}
	return rp, nil
}

func (s *CatalogService) ListRules(ctx context.Context, subjectID string) ([]models.RPSubjectRule, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_id is required")
	}
	return s.rules.ListBySubject(ctx, subjectID)
}

// CreateRule adds an eligibility row. Priority collisions within a
// combination are allowed; ties resolve by insertion order in the engine's
// priority walk.
func (s *CatalogService) CreateRule(ctx context.Context, req models.CreateRuleRequest) (*models.RPSubjectRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule")
	}

	if _, err := s.rps.FindByID(ctx, req.RPID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource person not found")
		}
		return nil, err
	}

	now := time.Now().UTC()
	rule := &models.RPSubjectRule{
		ID:               uuid.NewString(),
		SubjectID:        req.SubjectID,
		RPID:             req.RPID,
		IsSaturday:       req.IsSaturday,
		IsAVRD:           req.IsAVRD,
		Priority:         req.Priority,
		MaxClassesPerDay: req.MaxClassesPerDay,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.logger.Info("eligibility rule created",
		zap.String("rule_id", rule.ID),
		zap.String("subject_id", rule.SubjectID),
		zap.String("rp_id", rule.RPID),
		zap.Int("priority", rule.Priority))
	return rule, nil
}

func (s *CatalogService) DeleteRule(ctx context.Context, id string) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
