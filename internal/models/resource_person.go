package models

import "time"

// ResourcePerson is a trainer eligible for session assignment. The optional
// UserID links the RP record to a login account; the link is established by
// admins (or the email auto-link during approval), never by the engine.
type ResourcePerson struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
