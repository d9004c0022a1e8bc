package models

import (
	"fmt"
	"time"
)

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusApproved  BookingStatus = "Approved"
	StatusScheduled BookingStatus = "Scheduled"
	StatusCompleted BookingStatus = "Completed"
	StatusRejected  BookingStatus = "Rejected"
	StatusCancelled BookingStatus = "Cancelled"
)

// BlockingStatuses are the statuses that consume slot capacity and RP quota.
// Rejected and Cancelled bookings are invisible to the allocation engine.
var BlockingStatuses = []BookingStatus{StatusPending, StatusApproved, StatusScheduled, StatusCompleted}

// ParseBookingStatus validates a raw status string against the closed set.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch BookingStatus(raw) {
	case StatusPending, StatusApproved, StatusScheduled, StatusCompleted, StatusRejected, StatusCancelled:
		return BookingStatus(raw), nil
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

// IsBlocking reports whether the status counts toward capacity and quotas.
func (s BookingStatus) IsBlocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// AttendanceStatus is the RP's post-session self-report.
type AttendanceStatus string

const (
	AttendanceCompleted    AttendanceStatus = "Completed"
	AttendanceNotCompleted AttendanceStatus = "Not Completed"
	AttendancePostponed    AttendanceStatus = "Postponed"
	AttendanceSchoolAbsent AttendanceStatus = "School Absent"
	AttendanceNetworkIssue AttendanceStatus = "Network Issue"
)

// ParseAttendanceStatus validates an attendance value against the closed set.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	switch AttendanceStatus(raw) {
	case AttendanceCompleted, AttendanceNotCompleted, AttendancePostponed, AttendanceSchoolAbsent, AttendanceNetworkIssue:
		return AttendanceStatus(raw), nil
	}
	return "", fmt.Errorf("unknown attendance status %q", raw)
}

// Booking is a session booked by a salesperson for a school, with the
// resource person assigned at creation time by the allocation engine.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	Date          time.Time     `db:"date" json:"date"`
	SlotID        string        `db:"slot_id" json:"slot_id"`
	SubjectID     string        `db:"subject_id" json:"subject_id"`
	SessionTypeID string        `db:"session_type_id" json:"session_type_id"`
	SchoolID      string        `db:"school_id" json:"school_id"`
	SalespersonID string        `db:"salesperson_id" json:"salesperson_id"`
	RPID          *string       `db:"rp_id" json:"rp_id,omitempty"`
	Status        BookingStatus `db:"status" json:"status"`

	City          string `db:"city" json:"city"`
	ClassName     string `db:"class_name" json:"class_name"`
	GradeOfSchool string `db:"grade_of_school" json:"grade_of_school"`
	Curriculum    string `db:"curriculum" json:"curriculum"`
	Topic         string `db:"topic" json:"topic"`
	TitleName     string `db:"title_name" json:"title_name"`
	Notes         string `db:"notes" json:"notes"`
	TabType       string `db:"tab_type" json:"tab_type"`
	AdminReason   string `db:"admin_reason" json:"admin_reason,omitempty"`

	RPAttendanceStatus *AttendanceStatus `db:"rp_attendance_status" json:"rp_attendance_status,omitempty"`
	RPSessionNotes     *string           `db:"rp_session_notes" json:"rp_session_notes,omitempty"`
	RPMarkedAt         *time.Time        `db:"rp_marked_at" json:"rp_marked_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BookingCountFilter is an exact-match filter for the blocking-booking
// counter. Zero-valued fields are ignored; every quota rule of the allocation
// engine reduces to one of these filters compared against a limit.
type BookingCountFilter struct {
	Date          time.Time
	SlotID        string
	SchoolID      string
	RPID          string
	SubjectID     string
	SessionTypeID string
}

// BookingFilter captures supported filters for listing bookings.
type BookingFilter struct {
	Date          *time.Time
	Status        BookingStatus
	SubjectID     string
	RPID          string
	SalespersonID string
	SchoolID      string
	Page          int
	PageSize      int
}
