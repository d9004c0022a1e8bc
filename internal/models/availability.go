package models

// SlotAvailability is one advisory row of the pre-flight availability table:
// how many parallel bookings a slot can still take and how many configured
// RPs could currently serve it. Zero possible RPs is informational, not an
// error.
type SlotAvailability struct {
	SlotID            string `json:"slot_id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	RemainingParallel int    `json:"remaining_parallel"`
	PossibleRPs       int    `json:"possible_rps"`
}
