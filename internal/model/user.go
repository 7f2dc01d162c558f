package model

import (
	"time"

	"github.com/google/uuid"
)

// User role constants
const (
	UserRoleAdmin   = "admin"
	UserRoleManager = "manager"
	UserRoleRep     = "rep"
	UserRoleIntern  = "intern"
)

// User represents a CRM user. Identity lives with the external auth
// provider; this row carries role, activity and assignment state only.
type User struct {
	Base
	Email          string     `json:"email" db:"email"`
	Name           string     `json:"name" db:"name"`
	Role           string     `json:"role" db:"role"`
	Active         bool       `json:"active" db:"active"`
	ManagerID      *uuid.UUID `json:"manager_id" db:"manager_id"`
	LastAssignedAt *time.Time `json:"last_assigned_at" db:"last_assigned_at"`
}

// IsAssignable reports whether the user can receive round-robin leads.
func (u *User) IsAssignable() bool {
	return u.Active && (u.Role == UserRoleRep || u.Role == UserRoleManager)
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Email     string     `json:"email" binding:"required,email"`
	Name      string     `json:"name" binding:"required"`
	Role      string     `json:"role" binding:"required,oneof=admin manager rep intern"`
	ManagerID *uuid.UUID `json:"manager_id"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name      *string    `json:"name"`
	Role      *string    `json:"role" binding:"omitempty,oneof=admin manager rep intern"`
	Active    *bool      `json:"active"`
	ManagerID *uuid.UUID `json:"manager_id"`
}

// UserFilters represents user search parameters
type UserFilters struct {
	Role   string `json:"role" form:"role"`
	Active *bool  `json:"active" form:"active"`
}
