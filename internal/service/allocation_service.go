package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

// Capacity rules enforced by the allocation engine.
const (
	// MaxParallelPerSlot caps concurrent bookings sharing one time slot,
	// across all subjects and RPs.
	MaxParallelPerSlot = 4
	// MaxPerSchoolPerDay caps sessions one school may receive on a date.
	MaxPerSchoolPerDay = 2
	// Hard ceilings on any one RP's total bookings per day, independent of subject.
	saturdayGlobalMax = 2
	weekdayGlobalMax  = 3
	// An RP may run at most one AVRD session per day, regardless of subject or slot.
	avrdPerDayMax = 1
)

type allocationBookingCounter interface {
	CountBlocking(ctx context.Context, filter models.BookingCountFilter) (int, error)
}

type allocationSlotCatalog interface {
	ListActiveOrdered(ctx context.Context) ([]models.Slot, error)
}

type allocationSessionTypes interface {
	FindByID(ctx context.Context, id string) (*models.SessionType, error)
}

type allocationRules interface {
	ListForCombination(ctx context.Context, subjectID string, isSaturday, isAVRD bool) ([]models.RPSubjectRule, error)
}

type allocationAbsences interface {
	ListForRPDate(ctx context.Context, rpID string, date time.Time) ([]models.RPUnavailability, error)
}

// AssignRequest identifies the booking the engine should find an RP for.
// The caller is responsible for referential validity of the ids.
type AssignRequest struct {
	SubjectID     string    `validate:"required"`
	SlotID        string    `validate:"required"`
	Date          time.Time `validate:"required"`
	SessionTypeID string    `validate:"required"`
	SchoolID      string    `validate:"required"`
}

// AllocationService is the allocation engine: a stateless, read-only decision
// procedure over the booking ledger, slot catalog, eligibility rules and
// absence registry. Every invocation recomputes from current table contents.
//
// The engine issues no locks and the caller's subsequent insert is not
// serialized against the reads, so two concurrent booking attempts can both
// pass every check before either insert commits. That race window is
// inherited from the source system on purpose; closing it would require the
// engine to own the insert inside a serializable transaction.
type AllocationService struct {
	bookings  allocationBookingCounter
	slots     allocationSlotCatalog
	types     allocationSessionTypes
	rules     allocationRules
	absences  allocationAbsences
	validator *validator.Validate
	logger    *zap.Logger

	// absenceEnabled is decided once at startup by probing the
	// rp_unavailability table. When false every absence check is skipped;
	// when true a failed lookup still fails open to "not absent".
	absenceEnabled bool
}

// NewAllocationService instantiates the allocation engine.
func NewAllocationService(bookings allocationBookingCounter, slots allocationSlotCatalog, types allocationSessionTypes, rules allocationRules, absences allocationAbsences, absenceEnabled bool, validate *validator.Validate, logger *zap.Logger) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		bookings:       bookings,
		slots:          slots,
		types:          types,
		rules:          rules,
		absences:       absences,
		absenceEnabled: absenceEnabled,
		validator:      validate,
		logger:         logger,
	}
}

func isSaturday(date time.Time) bool {
	return date.Weekday() == time.Saturday
}

func globalDailyMax(date time.Time) int {
	if isSaturday(date) {
		return saturdayGlobalMax
	}
	return weekdayGlobalMax
}

// AssignRP picks the resource person for a new booking, or returns an empty
// id when no candidate survives the capacity, quota, absence and adjacency
// checks. An empty result is a normal outcome ("try another slot"), never a
// fault; only data-store failures surface as errors.
func (s *AllocationService) AssignRP(ctx context.Context, req AssignRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment request")
	}

	sessionType, err := s.types.FindByID(ctx, req.SessionTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown session type is treated as "no RP available",
			// not as an input-validation failure.
			return "", nil
		}
		return "", err
	}

	isAVRD := sessionType.IsAVRD()
	saturday := isSaturday(req.Date)

	slotLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: req.Date, SlotID: req.SlotID})
	if err != nil {
		return "", err
	}
	if slotLoad >= MaxParallelPerSlot {
		return "", nil
	}

	schoolLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: req.Date, SchoolID: req.SchoolID})
	if err != nil {
		return "", err
	}
	if schoolLoad >= MaxPerSchoolPerDay {
		return "", nil
	}

	slots, err := s.slots.ListActiveOrdered(ctx)
	if err != nil {
		return "", err
	}
	adjacent := models.AdjacentSlotIDs(slots, req.SlotID)

	rules, err := s.rules.ListForCombination(ctx, req.SubjectID, saturday, isAVRD)
	if err != nil {
		return "", err
	}
	if len(rules) == 0 {
		return "", nil
	}

	globalMax := globalDailyMax(req.Date)

	for _, rule := range rules {
		ok, err := s.candidatePasses(ctx, rule, req.Date, req.SlotID, req.SubjectID, req.SessionTypeID, adjacent, globalMax, isAVRD)
		if err != nil {
			return "", err
		}
		if ok {
			return rule.RPID, nil
		}
	}

	return "", nil
}

// candidatePasses runs every per-RP check of the priority walk.
func (s *AllocationService) candidatePasses(ctx context.Context, rule models.RPSubjectRule, date time.Time, slotID, subjectID, sessionTypeID string, adjacent []string, globalMax int, isAVRD bool) (bool, error) {
	if s.isRPAbsent(ctx, rule.RPID, date, slotID, sessionTypeID) {
		return false, nil
	}

	subjectLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SubjectID: subjectID})
	if err != nil {
		return false, err
	}
	if subjectLoad >= rule.MaxClassesPerDay {
		return false, nil
	}

	dailyLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID})
	if err != nil {
		return false, err
	}
	if dailyLoad >= globalMax {
		return false, nil
	}

	if isAVRD {
		avrdLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SessionTypeID: sessionTypeID})
		if err != nil {
			return false, err
		}
		if avrdLoad >= avrdPerDayMax {
			return false, nil
		}
	}

	// Same-slot conflict; implied by the other counts only when they are
	// exact, so checked explicitly as a safety net.
	sameSlot, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SlotID: slotID})
	if err != nil {
		return false, err
	}
	if sameSlot > 0 {
		return false, nil
	}

	// Break rule: an RP never works two back-to-back slots.
	for _, adjacentID := range adjacent {
		neighbour, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SlotID: adjacentID})
		if err != nil {
			return false, err
		}
		if neighbour > 0 {
			return false, nil
		}
	}

	return true, nil
}

// isRPAbsent checks the unavailability registry. Lookups fail open: a
// missing or unreadable absence table must never block a booking attempt.
func (s *AllocationService) isRPAbsent(ctx context.Context, rpID string, date time.Time, slotID, sessionTypeID string) bool {
	if !s.absenceEnabled {
		return false
	}

	records, err := s.absences.ListForRPDate(ctx, rpID, date)
	if err != nil {
		s.logger.Warn("absence lookup failed, treating RP as available",
			zap.String("rp_id", rpID),
			zap.Error(err))
		return false
	}

	for _, record := range records {
		if record.Excludes(slotID, sessionTypeID) {
			return true
		}
	}
	return false
}

// AvailableSlotsSummary reports, for every active slot in catalog order, the
// remaining parallel capacity and the number of configured RPs that would
// currently pass every per-RP check for that slot. The per-slot ≥4 and
// school-daily gates are deliberately not folded into the RP count; the
// remaining_parallel column already carries the slot gate.
func (s *AllocationService) AvailableSlotsSummary(ctx context.Context, subjectID string, date time.Time, sessionTypeID string) ([]models.SlotAvailability, error) {
	sessionType, err := s.types.FindByID(ctx, sessionTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session type not found")
		}
		return nil, err
	}

	isAVRD := sessionType.IsAVRD()
	saturday := isSaturday(date)

	slots, err := s.slots.ListActiveOrdered(ctx)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListForCombination(ctx, subjectID, saturday, isAVRD)
	if err != nil {
		return nil, err
	}

	globalMax := globalDailyMax(date)

	summary := make([]models.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		slotLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, SlotID: slot.ID})
		if err != nil {
			return nil, err
		}
		remaining := MaxParallelPerSlot - slotLoad
		if remaining < 0 {
			remaining = 0
		}

		adjacent := models.AdjacentSlotIDs(slots, slot.ID)

		possible := 0
		for _, rule := range rules {
			ok, err := s.summaryCandidatePasses(ctx, rule, date, slot.ID, subjectID, sessionTypeID, adjacent, globalMax, isAVRD)
			if err != nil {
				return nil, err
			}
			if ok {
				possible++
			}
		}

		summary = append(summary, models.SlotAvailability{
			SlotID:            slot.ID,
			StartTime:         slot.StartTime,
			EndTime:           slot.EndTime,
			RemainingParallel: remaining,
			PossibleRPs:       possible,
		})
	}

	return summary, nil
}

// summaryCandidatePasses mirrors candidatePasses with the check ordering the
// summary uses. Outcomes are identical; only the short-circuit order differs.
func (s *AllocationService) summaryCandidatePasses(ctx context.Context, rule models.RPSubjectRule, date time.Time, slotID, subjectID, sessionTypeID string, adjacent []string, globalMax int, isAVRD bool) (bool, error) {
	if s.isRPAbsent(ctx, rule.RPID, date, slotID, sessionTypeID) {
		return false, nil
	}

	dailyLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID})
	if err != nil {
		return false, err
	}
	if dailyLoad >= globalMax {
		return false, nil
	}

	sameSlot, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SlotID: slotID})
	if err != nil {
		return false, err
	}
	if sameSlot > 0 {
		return false, nil
	}

	for _, adjacentID := range adjacent {
		neighbour, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SlotID: adjacentID})
		if err != nil {
			return false, err
		}
		if neighbour > 0 {
			return false, nil
		}
	}

	subjectLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SubjectID: subjectID})
	if err != nil {
		return false, err
	}
	if subjectLoad >= rule.MaxClassesPerDay {
		return false, nil
	}

	if isAVRD {
		avrdLoad, err := s.bookings.CountBlocking(ctx, models.BookingCountFilter{Date: date, RPID: rule.RPID, SessionTypeID: sessionTypeID})
		if err != nil {
			return false, err
		}
		if avrdLoad >= avrdPerDayMax {
			return false, nil
		}
	}

	return true, nil
}
