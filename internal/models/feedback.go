package models

import "time"

// Feedback is a salesperson's post-session report for a completed booking.
// At most one feedback row exists per booking.
type Feedback struct {
	ID                    string    `db:"id" json:"id"`
	BookingID             string    `db:"booking_id" json:"booking_id"`
	SalespersonID         string    `db:"salesperson_id" json:"salesperson_id"`
	WasConducted          bool      `db:"was_conducted" json:"was_conducted"`
	TeacherResponseRating int       `db:"teacher_response_rating" json:"teacher_response_rating"`
	EngagementRating      int       `db:"engagement_rating" json:"engagement_rating"`
	SchoolFeedback        string    `db:"school_feedback" json:"school_feedback"`
	Notes                 string    `db:"notes" json:"notes"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// FeedbackFilter captures supported filters for the admin feedback listing.
type FeedbackFilter struct {
	SchoolID      string
	RPID          string
	SubjectID     string
	SessionTypeID string
	Page          int
	PageSize      int
}

// FeedbackRecord is a feedback row joined with its booking context for
// listing and export.
type FeedbackRecord struct {
	Feedback
	Date          time.Time `db:"date" json:"date"`
	SlotID        string    `db:"slot_id" json:"slot_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	RPID          *string   `db:"rp_id" json:"rp_id,omitempty"`
	SessionTypeID string    `db:"session_type_id" json:"session_type_id"`
	Topic         string    `db:"topic" json:"topic"`
	TitleName     string    `db:"title_name" json:"title_name"`
}
