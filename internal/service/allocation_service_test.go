package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
)

// fakeBooking is one blocking row in the in-memory ledger; cancelled and
// rejected bookings never reach the ledger, matching the repository's
// blocking-status predicate.
type fakeBooking struct {
	date          time.Time
	slotID        string
	schoolID      string
	rpID          string
	subjectID     string
	sessionTypeID string
}

type fakeLedger struct {
	bookings []fakeBooking
	err      error
}

func (l *fakeLedger) CountBlocking(_ context.Context, f models.BookingCountFilter) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	count := 0
	for _, b := range l.bookings {
		if !f.Date.IsZero() && !sameDay(f.Date, b.date) {
			continue
		}
		if f.SlotID != "" && f.SlotID != b.slotID {
			continue
		}
		if f.SchoolID != "" && f.SchoolID != b.schoolID {
			continue
		}
		if f.RPID != "" && f.RPID != b.rpID {
			continue
		}
		if f.SubjectID != "" && f.SubjectID != b.subjectID {
			continue
		}
		if f.SessionTypeID != "" && f.SessionTypeID != b.sessionTypeID {
			continue
		}
		count++
	}
	return count, nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type fakeSlotCatalog struct {
	slots []models.Slot
	err   error
}

func (c *fakeSlotCatalog) ListActiveOrdered(_ context.Context) ([]models.Slot, error) {
	return c.slots, c.err
}

type fakeSessionTypes struct {
	types map[string]*models.SessionType
}

func (t *fakeSessionTypes) FindByID(_ context.Context, id string) (*models.SessionType, error) {
	st, ok := t.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return st, nil
}

type fakeRules struct {
	rules []models.RPSubjectRule
	err   error
	// combinations seen, for asserting the Saturday/AVRD resolution
	gotSubject  string
	gotSaturday bool
	gotAVRD     bool
}

func (r *fakeRules) ListForCombination(_ context.Context, subjectID string, isSaturday, isAVRD bool) ([]models.RPSubjectRule, error) {
	r.gotSubject = subjectID
	r.gotSaturday = isSaturday
	r.gotAVRD = isAVRD
	return r.rules, r.err
}

type fakeAbsences struct {
	records map[string][]models.RPUnavailability
	err     error
}

func (a *fakeAbsences) ListForRPDate(_ context.Context, rpID string, _ time.Time) ([]models.RPUnavailability, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.records[rpID], nil
}

var (
	// Wednesday and Saturday in the same week.
	wednesday = time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
)

const (
	subjMath  = "subj-math"
	typeDemo  = "type-demo"
	typeAVRD  = "type-avrd"
	schoolA   = "school-a"
	schoolB   = "school-b"
	rpAlice   = "rp-alice"
	rpBob     = "rp-bob"
	rpCarol   = "rp-carol"
	slotNine  = "slot-09"
	slotTen   = "slot-10"
	slotElev  = "slot-11"
	slotNoon  = "slot-12"
)

func catalogSlots() []models.Slot {
	return []models.Slot{
		{ID: slotNine, StartTime: "09:00", EndTime: "10:00", Active: true},
		{ID: slotTen, StartTime: "10:00", EndTime: "11:00", Active: true},
		{ID: slotElev, StartTime: "11:00", EndTime: "12:00", Active: true},
		{ID: slotNoon, StartTime: "12:00", EndTime: "13:00", Active: true},
	}
}

func rule(rpID string, priority, maxPerDay int) models.RPSubjectRule {
	return models.RPSubjectRule{
		ID:               "rule-" + rpID,
		SubjectID:        subjMath,
		RPID:             rpID,
		Priority:         priority,
		MaxClassesPerDay: maxPerDay,
	}
}

type engineFixture struct {
	ledger   *fakeLedger
	slots    *fakeSlotCatalog
	types    *fakeSessionTypes
	rules    *fakeRules
	absences *fakeAbsences
}

func newEngineFixture() *engineFixture {
	return &engineFixture{
		ledger: &fakeLedger{},
		slots:  &fakeSlotCatalog{slots: catalogSlots()},
		types: &fakeSessionTypes{types: map[string]*models.SessionType{
			typeDemo: {ID: typeDemo, Name: "Demo Class"},
			typeAVRD: {ID: typeAVRD, Name: "AVRD"},
		}},
		rules: &fakeRules{rules: []models.RPSubjectRule{
			rule(rpAlice, 1, 2),
			rule(rpBob, 2, 2),
		}},
		absences: &fakeAbsences{records: map[string][]models.RPUnavailability{}},
	}
}

func (f *engineFixture) service(absenceEnabled bool) *AllocationService {
	return NewAllocationService(f.ledger, f.slots, f.types, f.rules, f.absences, absenceEnabled, nil, zap.NewNop())
}

func demoRequest(slotID string) AssignRequest {
	return AssignRequest{
		SubjectID:     subjMath,
		SlotID:        slotID,
		Date:          wednesday,
		SessionTypeID: typeDemo,
		SchoolID:      schoolA,
	}
}

func TestAssignRP_PicksHighestPriorityCandidate(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
	assert.Equal(t, subjMath, f.rules.gotSubject)
	assert.False(t, f.rules.gotSaturday)
	assert.False(t, f.rules.gotAVRD)
}

func TestAssignRP_FallsThroughToNextPriorityOnSubjectQuota(t *testing.T) {
	f := newEngineFixture()
	// Alice already carries two maths sessions today, her quota for the subject.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotElev, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
		{date: wednesday, slotID: slotNoon, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpBob, rpID)
}

func TestAssignRP_SlotAtParallelCapacity(t *testing.T) {
	f := newEngineFixture()
	for i := 0; i < MaxParallelPerSlot; i++ {
		f.ledger.bookings = append(f.ledger.bookings, fakeBooking{
			date: wednesday, slotID: slotNine, rpID: rpCarol, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo,
		})
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Empty(t, rpID)
}

func TestAssignRP_SchoolDailyCapReached(t *testing.T) {
	f := newEngineFixture()
	// School A already has two sessions today in other slots.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotElev, rpID: rpCarol, subjectID: "subj-other", schoolID: schoolA, sessionTypeID: typeDemo},
		{date: wednesday, slotID: slotNoon, rpID: rpCarol, subjectID: "subj-other", schoolID: schoolA, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Empty(t, rpID)
}

func TestAssignRP_AdjacentSlotConflict(t *testing.T) {
	f := newEngineFixture()
	// Alice teaches 09:00; Bob teaches 11:00. A 10:00 booking collides with
	// both neighbours, so nobody qualifies.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotNine, rpID: rpAlice, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo},
		{date: wednesday, slotID: slotElev, rpID: rpBob, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotTen))

	require.NoError(t, err)
	assert.Empty(t, rpID)
}

func TestAssignRP_NonAdjacentBookingDoesNotBlock(t *testing.T) {
	f := newEngineFixture()
	// A 12:00 booking leaves the 09:00-11:00 range free; 09:00 is two slots away.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotNoon, rpID: rpAlice, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
}

func TestAssignRP_AVRDOncePerDay(t *testing.T) {
	f := newEngineFixture()
	f.rules.rules = []models.RPSubjectRule{rule(rpAlice, 1, 3)}
	// Alice already ran an AVRD session at noon today.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotNoon, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeAVRD},
	}
	svc := f.service(true)

	req := demoRequest(slotNine)
	req.SessionTypeID = typeAVRD
	rpID, err := svc.AssignRP(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rpID)
	assert.True(t, f.rules.gotAVRD)
}

func TestAssignRP_AVRDNameMatchedCaseInsensitively(t *testing.T) {
	f := newEngineFixture()
	f.types.types[typeAVRD] = &models.SessionType{ID: typeAVRD, Name: "  avrd "}
	svc := f.service(true)

	req := demoRequest(slotNine)
	req.SessionTypeID = typeAVRD
	_, err := svc.AssignRP(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, f.rules.gotAVRD)
}

func TestAssignRP_SaturdayGlobalCeiling(t *testing.T) {
	f := newEngineFixture()
	f.rules.rules = []models.RPSubjectRule{rule(rpAlice, 1, 5)}
	// Two bookings on Saturday exhaust the weekend ceiling even though the
	// subject quota would admit more.
	f.ledger.bookings = []fakeBooking{
		{date: saturday, slotID: slotElev, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
		{date: saturday, slotID: slotNoon, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	req := demoRequest(slotNine)
	req.Date = saturday
	rpID, err := svc.AssignRP(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rpID)
	assert.True(t, f.rules.gotSaturday)
}

func TestAssignRP_WeekdayAllowsThreePerDay(t *testing.T) {
	f := newEngineFixture()
	f.rules.rules = []models.RPSubjectRule{rule(rpAlice, 1, 5)}
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotElev, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
		{date: wednesday, slotID: slotNoon, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	// Third weekday booking at 09:00: not adjacent to 11:00, under the quota
	// of 5 and under the weekday ceiling of 3.
	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
}

func TestAssignRP_FullDayAbsenceSkipsRP(t *testing.T) {
	f := newEngineFixture()
	f.absences.records[rpAlice] = []models.RPUnavailability{
		{RPID: rpAlice, Date: wednesday, IsFullDay: true},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpBob, rpID)
}

func TestAssignRP_SlotScopedAbsenceOnlyBlocksThatSlot(t *testing.T) {
	f := newEngineFixture()
	nine := slotNine
	f.absences.records[rpAlice] = []models.RPUnavailability{
		{RPID: rpAlice, Date: wednesday, SlotID: &nine},
	}
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))
	require.NoError(t, err)
	assert.Equal(t, rpBob, rpID)

	rpID, err = svc.AssignRP(context.Background(), demoRequest(slotElev))
	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
}

func TestAssignRP_AbsenceLookupFailsOpen(t *testing.T) {
	f := newEngineFixture()
	f.absences.err = errors.New("relation does not exist")
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
}

func TestAssignRP_AbsenceDisabledSkipsRegistry(t *testing.T) {
	f := newEngineFixture()
	f.absences.records[rpAlice] = []models.RPUnavailability{
		{RPID: rpAlice, Date: wednesday, IsFullDay: true},
	}
	svc := f.service(false)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Equal(t, rpAlice, rpID)
}

func TestAssignRP_UnknownSessionType(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(true)

	req := demoRequest(slotNine)
	req.SessionTypeID = "type-missing"
	rpID, err := svc.AssignRP(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rpID)
}

func TestAssignRP_NoRulesConfigured(t *testing.T) {
	f := newEngineFixture()
	f.rules.rules = nil
	svc := f.service(true)

	rpID, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.NoError(t, err)
	assert.Empty(t, rpID)
}

func TestAssignRP_ValidationRejectsMissingFields(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(true)

	_, err := svc.AssignRP(context.Background(), AssignRequest{SlotID: slotNine})

	require.Error(t, err)
}

func TestAssignRP_LedgerErrorPropagates(t *testing.T) {
	f := newEngineFixture()
	f.ledger.err = errors.New("connection refused")
	svc := f.service(true)

	_, err := svc.AssignRP(context.Background(), demoRequest(slotNine))

	require.Error(t, err)
}

func TestAvailableSlotsSummary_ReportsCapacityAndPossibleRPs(t *testing.T) {
	f := newEngineFixture()
	// 09:00 carries one booking; Alice is tied up at 11:00, which also makes
	// her unavailable for the adjacent 10:00 and 12:00 windows.
	f.ledger.bookings = []fakeBooking{
		{date: wednesday, slotID: slotNine, rpID: rpCarol, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo},
		{date: wednesday, slotID: slotElev, rpID: rpAlice, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	summary, err := svc.AvailableSlotsSummary(context.Background(), subjMath, wednesday, typeDemo)

	require.NoError(t, err)
	require.Len(t, summary, 4)

	assert.Equal(t, slotNine, summary[0].SlotID)
	assert.Equal(t, MaxParallelPerSlot-1, summary[0].RemainingParallel)
	assert.Equal(t, 2, summary[0].PossibleRPs)

	// 10:00 and 12:00: Bob only, Alice blocked by adjacency.
	assert.Equal(t, 1, summary[1].PossibleRPs)
	assert.Equal(t, 1, summary[3].PossibleRPs)

	// 11:00: Alice already booked there, Bob free.
	assert.Equal(t, 1, summary[2].PossibleRPs)
	assert.Equal(t, MaxParallelPerSlot-1, summary[2].RemainingParallel)
}

func TestAvailableSlotsSummary_RemainingNeverNegative(t *testing.T) {
	f := newEngineFixture()
	for i := 0; i < MaxParallelPerSlot+2; i++ {
		f.ledger.bookings = append(f.ledger.bookings, fakeBooking{
			date: wednesday, slotID: slotNine, rpID: rpCarol, subjectID: "subj-other", schoolID: schoolB, sessionTypeID: typeDemo,
		})
	}
	svc := f.service(true)

	summary, err := svc.AvailableSlotsSummary(context.Background(), subjMath, wednesday, typeDemo)

	require.NoError(t, err)
	assert.Equal(t, 0, summary[0].RemainingParallel)
}

func TestAvailableSlotsSummary_UnknownSessionType(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(true)

	_, err := svc.AvailableSlotsSummary(context.Background(), subjMath, wednesday, "type-missing")

	require.Error(t, err)
}

func TestAvailableSlotsSummary_SaturdayCeilingShrinksPossibleRPs(t *testing.T) {
	f := newEngineFixture()
	f.rules.rules = []models.RPSubjectRule{rule(rpAlice, 1, 5), rule(rpBob, 2, 5)}
	// Alice hits the Saturday ceiling of two; Bob stays available.
	f.ledger.bookings = []fakeBooking{
		{date: saturday, slotID: slotNine, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
		{date: saturday, slotID: slotNoon, rpID: rpAlice, subjectID: subjMath, schoolID: schoolB, sessionTypeID: typeDemo},
	}
	svc := f.service(true)

	summary, err := svc.AvailableSlotsSummary(context.Background(), subjMath, saturday, typeDemo)

	require.NoError(t, err)
	// Alice is over the daily ceiling everywhere, so only Bob counts.
	assert.Equal(t, 1, summary[2].PossibleRPs)
}

func TestAdjacentSlotIDs_Endpoints(t *testing.T) {
	slots := catalogSlots()

	assert.Equal(t, []string{slotTen}, models.AdjacentSlotIDs(slots, slotNine))
	assert.Equal(t, []string{slotNine, slotElev}, models.AdjacentSlotIDs(slots, slotTen))
	assert.Equal(t, []string{slotElev}, models.AdjacentSlotIDs(slots, slotNoon))
	assert.Nil(t, models.AdjacentSlotIDs(slots, "slot-unknown"))
}
