package models

import (
	"strings"
	"time"
)

// AVRDName is the distinguished session-type name that triggers the
// once-per-day-per-RP and weekend-quota rules.
const AVRDName = "AVRD"

// SessionType categorises a booked session (live class, product training, AVRD).
type SessionType struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsAVRD reports whether the session type name matches AVRD, ignoring case
// and surrounding whitespace.
func (t SessionType) IsAVRD() bool {
	return strings.EqualFold(strings.TrimSpace(t.Name), AVRDName)
}
