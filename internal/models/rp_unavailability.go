package models

import "time"

// RPUnavailability marks a resource person absent for a date, either for the
// whole day or scoped to one slot or one session type. Multiple scoped
// records may coexist for the same RP and date.
type RPUnavailability struct {
	ID            string    `db:"id" json:"id"`
	RPID          string    `db:"rp_id" json:"rp_id"`
	Date          time.Time `db:"date" json:"date"`
	IsFullDay     bool      `db:"is_full_day" json:"is_full_day"`
	SlotID        *string   `db:"slot_id" json:"slot_id,omitempty"`
	SessionTypeID *string   `db:"session_type_id" json:"session_type_id,omitempty"`
	Reason        string    `db:"reason" json:"reason"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Excludes reports whether this record bars the RP from the given slot and
// session type. A full-day record excludes everything.
func (u RPUnavailability) Excludes(slotID, sessionTypeID string) bool {
	if u.IsFullDay {
		return true
	}
	if slotID != "" && u.SlotID != nil && *u.SlotID == slotID {
		return true
	}
	if sessionTypeID != "" && u.SessionTypeID != nil && *u.SessionTypeID == sessionTypeID {
		return true
	}
	return false
}
