package models

// CreateFeedbackRequest is the salesperson's post-session report. Ratings
// are on a 1-5 scale.
type CreateFeedbackRequest struct {
	BookingID             string `json:"booking_id" validate:"required"`
	WasConducted          bool   `json:"was_conducted"`
	TeacherResponseRating int    `json:"teacher_response_rating" validate:"required,min=1,max=5"`
	EngagementRating      int    `json:"engagement_rating" validate:"required,min=1,max=5"`
	SchoolFeedback        string `json:"school_feedback"`
	Notes                 string `json:"notes"`
}
