package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardBookingSource interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

type dashboardAbsenceSource interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.RPUnavailability, error)
}

// DashboardService assembles the admin's daily snapshot: booking volumes by
// status, per-slot utilisation and absent RPs. Snapshots are cached in redis
// for a short TTL; the caller learns via the hit flag whether the figures
// came from cache.
type DashboardService struct {
	bookings dashboardBookingSource
	slots    allocationSlotCatalog
	absences dashboardAbsenceSource
	cache    snapshotCache
	ttl      time.Duration
	logger   *zap.Logger
}

func NewDashboardService(bookings dashboardBookingSource, slots allocationSlotCatalog, absences dashboardAbsenceSource, cache snapshotCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		bookings: bookings,
		slots:    slots,
		absences: absences,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func dashboardCacheKey(date time.Time) string {
	return "dashboard:daily:" + date.Format("2006-01-02")
}

// DailySnapshot returns the snapshot for a date, serving from cache when a
// fresh copy exists. The second return reports a cache hit.
func (s *DashboardService) DailySnapshot(ctx context.Context, date time.Time) (*models.DashboardSnapshot, bool, error) {
	key := dashboardCacheKey(date)

	if s.cache != nil {
		var cached models.DashboardSnapshot
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	snapshot, err := s.buildSnapshot(ctx, date)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return snapshot, false, nil
}

// Refresh drops the cached snapshot for a date and rebuilds it from live
// table contents.
func (s *DashboardService) Refresh(ctx context.Context, date time.Time) (*models.DashboardSnapshot, error) {
	key := dashboardCacheKey(date)

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, key); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}

	snapshot, err := s.buildSnapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return snapshot, nil
}

func (s *DashboardService) buildSnapshot(ctx context.Context, date time.Time) (*models.DashboardSnapshot, error) {
	day := date
	bookings, total, err := s.bookings.List(ctx, models.BookingFilter{Date: &day, Page: 1, PageSize: 500})
	if err != nil {
		return nil, fmt.Errorf("load bookings for dashboard: %w", err)
	}

	statusCounts := map[string]int{}
	subjectCounts := map[string]int{}
	rpCounts := map[string]int{}
	slotCounts := map[string]int{}
	for _, b := range bookings {
		statusCounts[string(b.Status)]++
		if !b.Status.IsBlocking() {
			continue
		}
		slotCounts[b.SlotID]++
		subjectCounts[b.SubjectID]++
		if b.RPID != nil {
			rpCounts[*b.RPID]++
		}
	}

	slots, err := s.slots.ListActiveOrdered(ctx)
	if err != nil {
		return nil, err
	}

	slotLoad := make([]models.SlotLoad, 0, len(slots))
	for _, slot := range slots {
		booked := slotCounts[slot.ID]
		remaining := MaxParallelPerSlot - booked
		if remaining < 0 {
			remaining = 0
		}
		slotLoad = append(slotLoad, models.SlotLoad{
			SlotID:    slot.ID,
			Label:     slot.Label(),
			Booked:    booked,
			Remaining: remaining,
		})
	}

	upcoming := upcomingSessions(bookings, slots, 3)

	absences, err := s.absences.ListByDate(ctx, date)
	if err != nil {
		// The registry is advisory here; a failed read downgrades the
		// snapshot instead of failing it.
		s.logger.Warn("absence listing failed for dashboard", zap.Error(err))
		absences = nil
	}
	absentRPs := map[string]struct{}{}
	for _, a := range absences {
		absentRPs[a.RPID] = struct{}{}
	}

	return &models.DashboardSnapshot{
		Date:          date.Format("2006-01-02"),
		TotalBookings: total,
		StatusCounts:  statusCounts,
		SubjectCounts: subjectCounts,
		RPCounts:      rpCounts,
		SlotLoad:      slotLoad,
		Upcoming:      upcoming,
		AbsentRPs:     len(absentRPs),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// upcomingSessions walks the ordered slot catalog and picks the first few
// blocking bookings of the day in slot order.
func upcomingSessions(bookings []models.Booking, slots []models.Slot, limit int) []models.UpcomingSession {
	labels := make(map[string]string, len(slots))
	for _, slot := range slots {
		labels[slot.ID] = slot.Label()
	}

	out := make([]models.UpcomingSession, 0, limit)
	for _, slot := range slots {
		for _, b := range bookings {
			if len(out) == limit {
				return out
			}
			if b.SlotID != slot.ID || !b.Status.IsBlocking() {
				continue
			}
			session := models.UpcomingSession{
				BookingID: b.ID,
				SlotID:    b.SlotID,
				SlotLabel: labels[b.SlotID],
				SchoolID:  b.SchoolID,
				SubjectID: b.SubjectID,
				Status:    string(b.Status),
			}
			if b.RPID != nil {
				session.RPID = *b.RPID
			}
			out = append(out, session)
		}
	}
	return out
}
