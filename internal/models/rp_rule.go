package models

import "time"

// RPSubjectRule ranks a resource person for a (subject, Saturday/weekday,
// AVRD/non-AVRD) combination and caps their daily bookings for that subject.
// Rules are consulted strictly in ascending priority order; the first RP
// passing every check wins, with no load balancing.
type RPSubjectRule struct {
	ID               string    `db:"id" json:"id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	RPID             string    `db:"rp_id" json:"rp_id"`
	IsSaturday       bool      `db:"is_saturday" json:"is_saturday"`
	IsAVRD           bool      `db:"is_avrd" json:"is_avrd"`
	Priority         int       `db:"priority" json:"priority"`
	MaxClassesPerDay int       `db:"max_classes_per_day" json:"max_classes_per_day"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
