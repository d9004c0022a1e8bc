package models

// Admin requests for managing the scheduling reference data.

type CreateSlotRequest struct {
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string `json:"end_time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateSessionTypeRequest struct {
	Name            string `json:"name" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

type CreateResourcePersonRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

// CreateRuleRequest registers an RP for a (subject, Saturday, AVRD)
// combination at a priority position with a per-day subject quota.
type CreateRuleRequest struct {
	SubjectID        string `json:"subject_id" validate:"required"`
	RPID             string `json:"rp_id" validate:"required"`
	IsSaturday       bool   `json:"is_saturday"`
	IsAVRD           bool   `json:"is_avrd"`
	Priority         int    `json:"priority" validate:"required,gt=0"`
	MaxClassesPerDay int    `json:"max_classes_per_day" validate:"required,gt=0"`
}
