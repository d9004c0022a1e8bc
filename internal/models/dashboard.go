package models

import "time"

// SlotLoad is one slot's utilisation on the dashboard date.
type SlotLoad struct {
	SlotID    string `json:"slot_id"`
	Label     string `json:"label"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
}

// UpcomingSession is a condensed booking row for the dashboard's
// next-sessions strip.
type UpcomingSession struct {
	BookingID string `json:"booking_id"`
	SlotID    string `json:"slot_id"`
	SlotLabel string `json:"slot_label"`
	SchoolID  string `json:"school_id"`
	SubjectID string `json:"subject_id"`
	RPID      string `json:"rp_id,omitempty"`
	Status    string `json:"status"`
}

// DashboardSnapshot is the admin's daily operations view. Snapshots are
// cached briefly, so figures may trail the ledger by the cache TTL.
type DashboardSnapshot struct {
	Date          string            `json:"date"`
	TotalBookings int               `json:"total_bookings"`
	StatusCounts  map[string]int    `json:"status_counts"`
	SubjectCounts map[string]int    `json:"subject_counts"`
	RPCounts      map[string]int    `json:"rp_counts"`
	SlotLoad      []SlotLoad        `json:"slot_load"`
	Upcoming      []UpcomingSession `json:"upcoming"`
	AbsentRPs     int               `json:"absent_rps"`
	GeneratedAt   time.Time         `json:"generated_at"`
}
