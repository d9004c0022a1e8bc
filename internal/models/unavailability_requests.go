package models

// MarkUnavailabilityRequest records an RP absence for a date, either for the
// whole day or scoped to a slot and/or session type.
type MarkUnavailabilityRequest struct {
	RPID          string  `json:"rp_id" validate:"required"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsFullDay     bool    `json:"is_full_day"`
	SlotID        *string `json:"slot_id,omitempty"`
	SessionTypeID *string `json:"session_type_id,omitempty"`
	Reason        string  `json:"reason"`
}
