package models

// CreateBookingRequest is the salesperson's booking submission. The school is
// referenced by id when it already exists, or by name and city to create it
// on the fly.
type CreateBookingRequest struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	SlotID        string `json:"slot_id" validate:"required"`
	SubjectID     string `json:"subject_id" validate:"required"`
	SessionTypeID string `json:"session_type_id" validate:"required"`

	SchoolID   string `json:"school_id" validate:"required_without=SchoolName"`
	SchoolName string `json:"school_name" validate:"required_without=SchoolID"`

	City          string `json:"city"`
	ClassName     string `json:"class_name"`
	GradeOfSchool string `json:"grade_of_school"`
	Curriculum    string `json:"curriculum"`
	Topic         string `json:"topic"`
	TitleName     string `json:"title_name"`
	Notes         string `json:"notes"`
	TabType       string `json:"tab_type"`
}

// ReassignBookingRequest moves a booking to a new date and slot; the engine
// picks the RP again for the new placement.
// ReassignBookingRequest moves a booking to a new placement. Leaving rp_id
// empty asks the engine to pick; setting it pins the RP directly.
type ReassignBookingRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	SlotID string `json:"slot_id" validate:"required"`
	RPID   string `json:"rp_id"`
}

// BookingDecisionRequest carries the admin's reason for a reject or cancel.
type BookingDecisionRequest struct {
	Reason string `json:"reason"`
}

// MarkAttendanceRequest is the RP's post-session report on a booking.
type MarkAttendanceRequest struct {
	AttendanceStatus string `json:"attendance_status" validate:"required"`
	SessionNotes     string `json:"session_notes"`
}
