package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type fakeSnapshotCache struct {
	entries map[string][]byte
	sets    int
	deletes int
}

func (c *fakeSnapshotCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeSnapshotCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *fakeSnapshotCache) DeleteByPattern(_ context.Context, pattern string) error {
	delete(c.entries, pattern)
	c.deletes++
	return nil
}

type fakeAbsenceLister struct {
	records []models.RPUnavailability
}

func (l *fakeAbsenceLister) ListByDate(_ context.Context, _ time.Time) ([]models.RPUnavailability, error) {
	return l.records, nil
}

func dashboardBookings() *fakeBookingStore {
	return &fakeBookingStore{byID: map[string]*models.Booking{
		"b-1": {ID: "b-1", Status: models.StatusApproved, SlotID: slotNine, Date: wednesday, SubjectID: subjMath, RPID: strPtr(rpAlice)},
		"b-2": {ID: "b-2", Status: models.StatusPending, SlotID: slotNine, Date: wednesday, SubjectID: subjMath, RPID: strPtr(rpBob)},
		"b-3": {ID: "b-3", Status: models.StatusCancelled, SlotID: slotTen, Date: wednesday, SubjectID: subjMath},
	}}
}

func TestDailySnapshot_AggregatesLedger(t *testing.T) {
	cache := &fakeSnapshotCache{}
	absences := &fakeAbsenceLister{records: []models.RPUnavailability{
		{RPID: rpAlice, Date: wednesday, IsFullDay: true},
		{RPID: rpAlice, Date: wednesday, SlotID: strPtr(slotTen)},
		{RPID: rpBob, Date: wednesday, IsFullDay: true},
	}}
	svc := NewDashboardService(dashboardBookings(), &fakeSlotCatalog{slots: catalogSlots()}, absences, cache, time.Minute, zap.NewNop())

	snapshot, hit, err := svc.DailySnapshot(context.Background(), wednesday)

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, snapshot.TotalBookings)
	assert.Equal(t, 1, snapshot.StatusCounts["Approved"])
	assert.Equal(t, 1, snapshot.StatusCounts["Cancelled"])

	require.Len(t, snapshot.SlotLoad, 4)
	assert.Equal(t, 2, snapshot.SlotLoad[0].Booked, "cancelled bookings must not count toward slot load")
	assert.Equal(t, MaxParallelPerSlot-2, snapshot.SlotLoad[0].Remaining)
	assert.Equal(t, 0, snapshot.SlotLoad[1].Booked)

	// Tallies only count blocking bookings.
	assert.Equal(t, 2, snapshot.SubjectCounts[subjMath])
	assert.Equal(t, 1, snapshot.RPCounts[rpAlice])
	assert.Equal(t, 1, snapshot.RPCounts[rpBob])

	require.Len(t, snapshot.Upcoming, 2)
	assert.Equal(t, slotNine, snapshot.Upcoming[0].SlotID)
	assert.Equal(t, slotNine, snapshot.Upcoming[1].SlotID)

	// Alice appears twice in the registry but is one absent RP.
	assert.Equal(t, 2, snapshot.AbsentRPs)
	assert.Equal(t, 1, cache.sets)
}

func TestDailySnapshot_ServesFromCacheOnSecondCall(t *testing.T) {
	cache := &fakeSnapshotCache{}
	svc := NewDashboardService(dashboardBookings(), &fakeSlotCatalog{slots: catalogSlots()}, &fakeAbsenceLister{}, cache, time.Minute, zap.NewNop())

	_, hit, err := svc.DailySnapshot(context.Background(), wednesday)
	require.NoError(t, err)
	assert.False(t, hit)

	snapshot, hit, err := svc.DailySnapshot(context.Background(), wednesday)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, snapshot.TotalBookings)
	assert.Equal(t, 1, cache.sets)
}

func TestRefresh_DropsCachedSnapshot(t *testing.T) {
	cache := &fakeSnapshotCache{}
	bookings := dashboardBookings()
	svc := NewDashboardService(bookings, &fakeSlotCatalog{slots: catalogSlots()}, &fakeAbsenceLister{}, cache, time.Minute, zap.NewNop())

	_, _, err := svc.DailySnapshot(context.Background(), wednesday)
	require.NoError(t, err)

	bookings.byID["b-4"] = &models.Booking{ID: "b-4", Status: models.StatusApproved, SlotID: slotTen, Date: wednesday}

	snapshot, err := svc.Refresh(context.Background(), wednesday)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)
	assert.Equal(t, 4, snapshot.TotalBookings)

	// The follow-up read serves the rebuilt figures from cache.
	cached, hit, err := svc.DailySnapshot(context.Background(), wednesday)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, cached.TotalBookings)
}

func TestDailySnapshot_NilCacheStillWorks(t *testing.T) {
	svc := NewDashboardService(dashboardBookings(), &fakeSlotCatalog{slots: catalogSlots()}, &fakeAbsenceLister{}, nil, time.Minute, zap.NewNop())

	snapshot, hit, err := svc.DailySnapshot(context.Background(), wednesday)

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, snapshot.TotalBookings)
}
