package models

import (
	"fmt"
	"time"
)

// UserRole is the closed set of portal roles.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleSalesperson UserRole = "salesperson"
	RoleRP          UserRole = "rp"
)

// ParseUserRole validates a raw role string against the closed set.
func ParseUserRole(raw string) (UserRole, error) {
	switch UserRole(raw) {
	case RoleAdmin, RoleSalesperson, RoleRP:
		return UserRole(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// User is a portal login account. New registrations start inactive and must
// be approved by an admin before logging in.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
