package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type fakeSlotAdmin struct {
	slots   []models.Slot
	created []*models.Slot
	active  map[string]bool
}

func (s *fakeSlotAdmin) List(context.Context) ([]models.Slot, error) { return s.slots, nil }

func (s *fakeSlotAdmin) ListActiveOrdered(context.Context) ([]models.Slot, error) {
	var out []models.Slot
	for _, slot := range s.slots {
		if slot.Active {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *fakeSlotAdmin) FindByID(_ context.Context, id string) (*models.Slot, error) {
	for i := range s.slots {
		if s.slots[i].ID == id {
			return &s.slots[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeSlotAdmin) Create(_ context.Context, slot *models.Slot) error {
	s.created = append(s.created, slot)
	s.slots = append(s.slots, *slot)
	return nil
}

func (s *fakeSlotAdmin) SetActive(_ context.Context, id string, active bool) error {
	if s.active == nil {
		s.active = map[string]bool{}
	}
	s.active[id] = active
	return nil
}

type fakeSubjects struct {
	existing map[string]bool
	created  []*models.Subject
}

func (s *fakeSubjects) ListActive(context.Context) ([]models.Subject, error) { return nil, nil }

func (s *fakeSubjects) ExistsByName(_ context.Context, name string) (bool, error) {
	return s.existing[name], nil
}

func (s *fakeSubjects) Create(_ context.Context, subject *models.Subject) error {
	s.created = append(s.created, subject)
	return nil
}

type fakeTypeAdmin struct {
	created []*models.SessionType
}

func (s *fakeTypeAdmin) ListActive(context.Context) ([]models.SessionType, error) { return nil, nil }

func (s *fakeTypeAdmin) Create(_ context.Context, sessionType *models.SessionType) error {
	s.created = append(s.created, sessionType)
	return nil
}

type fakeRPDirectory struct {
	byID    map[string]*models.ResourcePerson
	created []*models.ResourcePerson
}

func (s *fakeRPDirectory) List(context.Context) ([]models.ResourcePerson, error) {
	var out []models.ResourcePerson
	for _, rp := range s.byID {
		out = append(out, *rp)
	}
	return out, nil
}

func (s *fakeRPDirectory) FindByID(_ context.Context, id string) (*models.ResourcePerson, error) {
	rp, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rp, nil
}

func (s *fakeRPDirectory) Create(_ context.Context, rp *models.ResourcePerson) error {
	s.created = append(s.created, rp)
	return nil
}

type fakeRuleAdmin struct {
	bySubject map[string][]models.RPSubjectRule
	created   []*models.RPSubjectRule
	deleteErr error
	deleted   []string
}

func (s *fakeRuleAdmin) ListBySubject(_ context.Context, subjectID string) ([]models.RPSubjectRule, error) {
	return s.bySubject[subjectID], nil
}

func (s *fakeRuleAdmin) Create(_ context.Context, rule *models.RPSubjectRule) error {
	s.created = append(s.created, rule)
	return nil
}

func (s *fakeRuleAdmin) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func newCatalogUnderTest(slots *fakeSlotAdmin, subjects *fakeSubjects, types *fakeTypeAdmin, rps *fakeRPDirectory, rules *fakeRuleAdmin) *CatalogService {
	if slots == nil {
		slots = &fakeSlotAdmin{}
	}
	if subjects == nil {
		subjects = &fakeSubjects{}
	}
	if types == nil {
		types = &fakeTypeAdmin{}
	}
	if rps == nil {
		rps = &fakeRPDirectory{}
	}
	if rules == nil {
		rules = &fakeRuleAdmin{}
	}
	return NewCatalogService(slots, subjects, types, rps, rules, nil, nil)
}

func TestCreateSlotRejectsInvertedWindow(t *testing.T) {
	svc := newCatalogUnderTest(nil, nil, nil, nil, nil)

	_, err := svc.CreateSlot(context.Background(), models.CreateSlotRequest{
		StartTime:       "11:00",
		EndTime:         "10:00",
		DurationMinutes: 60,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateSlotRejectsDuplicateStart(t *testing.T) {
	slots := &fakeSlotAdmin{slots: []models.Slot{{ID: "slot-1", StartTime: "09:00", EndTime: "10:00", Active: true}}}
	svc := newCatalogUnderTest(slots, nil, nil, nil, nil)

	_, err := svc.CreateSlot(context.Background(), models.CreateSlotRequest{
		StartTime:       "09:00",
		EndTime:         "10:00",
		DurationMinutes: 60,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, slots.created)
}

func TestCreateSlotDefaultsActive(t *testing.T) {
	slots := &fakeSlotAdmin{}
	svc := newCatalogUnderTest(slots, nil, nil, nil, nil)

	slot, err := svc.CreateSlot(context.Background(), models.CreateSlotRequest{
		StartTime:       "09:00",
		EndTime:         "10:00",
		DurationMinutes: 60,
	})

	require.NoError(t, err)
	assert.True(t, slot.Active)
	assert.NotEmpty(t, slot.ID)
	require.Len(t, slots.created, 1)
}

func TestSetSlotActiveUnknownSlot(t *testing.T) {
	svc := newCatalogUnderTest(&fakeSlotAdmin{}, nil, nil, nil, nil)

	err := svc.SetSlotActive(context.Background(), "missing", false)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSubjectTrimsAndRejectsDuplicate(t *testing.T) {
	subjects := &fakeSubjects{existing: map[string]bool{"Mathematics": true}}
	svc := newCatalogUnderTest(nil, subjects, nil, nil, nil)

	_, err := svc.CreateSubject(context.Background(), models.CreateSubjectRequest{Name: "  Mathematics  "})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	subject, err := svc.CreateSubject(context.Background(), models.CreateSubjectRequest{Name: "  Physics "})
	require.NoError(t, err)
	assert.Equal(t, "Physics", subject.Name)
}

func TestCreateResourcePersonLowercasesEmail(t *testing.T) {
	rps := &fakeRPDirectory{}
	svc := newCatalogUnderTest(nil, nil, nil, rps, nil)

	rp, err := svc.CreateResourcePerson(context.Background(), models.CreateResourcePersonRequest{
		DisplayName: "Rina Wati",
		Email:       " Rina@Example.COM ",
	})

	require.NoError(t, err)
	assert.Equal(t, "rina@example.com", rp.Email)
	require.Len(t, rps.created, 1)
}

func TestCreateRuleRequiresExistingRP(t *testing.T) {
	rules := &fakeRuleAdmin{}
	svc := newCatalogUnderTest(nil, nil, nil, &fakeRPDirectory{}, rules)

	_, err := svc.CreateRule(context.Background(), models.CreateRuleRequest{
		SubjectID:        "subj-1",
		RPID:             "missing",
		Priority:         1,
		MaxClassesPerDay: 2,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, rules.created)
}

func TestCreateRuleHappyPath(t *testing.T) {
	rps := &fakeRPDirectory{byID: map[string]*models.ResourcePerson{
		"rp-1": {ID: "rp-1", DisplayName: "AVRD", Active: true},
	}}
	rules := &fakeRuleAdmin{}
	svc := newCatalogUnderTest(nil, nil, nil, rps, rules)

	rule, err := svc.CreateRule(context.Background(), models.CreateRuleRequest{
		SubjectID:        "subj-1",
		RPID:             "rp-1",
		IsSaturday:       true,
		Priority:         2,
		MaxClassesPerDay: 1,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.True(t, rule.IsSaturday)
	require.Len(t, rules.created, 1)
}

func TestListRulesRequiresSubject(t *testing.T) {
	svc := newCatalogUnderTest(nil, nil, nil, nil, nil)

	_, err := svc.ListRules(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteRuleUnknownID(t *testing.T) {
	svc := newCatalogUnderTest(nil, nil, nil, nil, &fakeRuleAdmin{deleteErr: sql.ErrNoRows})

	err := svc.DeleteRule(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
