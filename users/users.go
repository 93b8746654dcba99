package users

import (
	"time"

	"github.com/jrsteele09/go-lms-client/internal/validation"
)

// RoleType is the single role a user holds in the LMS.
type RoleType string

const (
	RoleStudent    RoleType = "student"
	RoleInstructor RoleType = "instructor"
	RoleAdmin      RoleType = "admin"
)

var roleLabels = map[RoleType]string{
	RoleStudent:    "Student",
	RoleInstructor: "Instructor",
	RoleAdmin:      "Admin",
}

// Label returns the display name for the role, or the raw value if unknown.
func (r RoleType) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

type StatusType string

const (
	StatusActive   StatusType = "active"
	StatusInactive StatusType = "inactive"
	StatusPending  StatusType = "pending"
	StatusBanned   StatusType = "banned"
)

// User is the denormalized profile snapshot cached per session track.
type User struct {
	ID            string     `json:"id" validate:"notblank"`                                  // Backend user ID
	Username      string     `json:"username"`                                                // Display name
	Email         string     `json:"email" validate:"required,email"`                         // Login email
	Role          RoleType   `json:"role" validate:"oneof=student instructor admin"`          // Single LMS role
	Status        StatusType `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending banned"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks the snapshot carries a usable identity.
func (u *User) Validate() error {
	return validation.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// Clone returns a copy so callers can't mutate cached state through the pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// DashboardPath is the console landing route for the user's role.
func (u *User) DashboardPath() string {
	switch u.Role {
	case RoleAdmin:
		return "/dashboard/admin/users"
	case RoleInstructor:
		return "/dashboard/instructor"
	case RoleStudent:
		return "/dashboard/student"
	}
	return "/dashboard"
}

type List struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

type CreateRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Username string   `json:"username" validate:"min=3,max=255"`
	Password string   `json:"password" validate:"min=8,max=255"`
	Role     RoleType `json:"role" validate:"oneof=student instructor admin"`
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Username *string     `json:"username,omitempty" validate:"omitempty,min=3,max=255"`
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Role     *RoleType   `json:"role,omitempty" validate:"omitempty,oneof=student instructor admin"`
	Status   *StatusType `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending banned"`
}
