package models

import "time"

// Slot is a fixed daily time window sessions are scheduled into. Slots are
// reference data, totally ordered by start time; "adjacent" slots are the
// immediate neighbours in that ordering.
type Slot struct {
	ID              string    `db:"id" json:"id"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Label renders the slot in the "start - end" form used across the portal.
func (s Slot) Label() string {
	return s.StartTime + " - " + s.EndTime
}

// AdjacentSlotIDs returns the ids of the 0, 1 or 2 slots immediately before
// and after slotID within the given start-time-ordered sequence. An unknown
// slotID yields an empty result.
func AdjacentSlotIDs(slots []Slot, slotID string) []string {
	idx := -1
	for i, s := range slots {
		if s.ID == slotID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var adjacent []string
	if idx-1 >= 0 {
		adjacent = append(adjacent, slots[idx-1].ID)
	}
	if idx+1 < len(slots) {
		adjacent = append(adjacent, slots[idx+1].ID)
	}
	return adjacent
}
