package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role values. The first registered user is promoted to RoleAdmin inside the
// creation transaction; everyone after that starts as RoleGuest.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
	RoleGuest = "GUEST"
)

// ValidRole reports whether role is one of the known role values
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser || role == RoleGuest
}

// User represents a user account
// Maps to the users table
type User struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	Role         string    `json:"role" db:"role"`
	TOTPSecret   *string   `json:"-" db:"totp_secret"` // Present iff MFA is enrolled
	TOTPVerified bool      `json:"-" db:"totp_verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MFAEnrolled reports whether the user has a confirmed TOTP secret. A secret
// that was generated but never verified does not count; login will not
// demand a code for it and the next setup request replaces it.
func (u *User) MFAEnrolled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != "" && u.TOTPVerified
}

// UserResponse is the safe user representation returned to clients
type UserResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	MFA       bool      `json:"mfa_enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse (removes sensitive data)
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UserID:    u.UserID,
		Email:     u.Email,
		Role:      u.Role,
		MFA:       u.MFAEnrolled(),
		CreatedAt: u.CreatedAt,
	}
}
