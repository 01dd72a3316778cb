package domain

import (
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AccountStatus is the lockout state derived from User.LockoutUntil
type AccountStatus string

const (
	StatusActive  AccountStatus = "Active"
	StatusBlocked AccountStatus = "Blocked"
)

// BlockedForever is the lockout sentinel written by a block transition.
var BlockedForever = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// User represents a user in the domain layer
type User struct {
	ID           string
	Email        string // Normalized (lower-case)
	Username     string
	PasswordHash string
	Roles        []Role
	LockoutUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Status returns Blocked while LockoutUntil lies in the future.
func (u *User) Status(now time.Time) AccountStatus {
	if u.LockoutUntil != nil && u.LockoutUntil.After(now) {
		return StatusBlocked
	}
	return StatusActive
}

// HasRole checks if the user holds role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole assigns role once
func (u *User) AddRole(role Role) {
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
}

// PrimaryRole returns the first assigned role, or RoleUser when none is set.
func (u *User) PrimaryRole() Role {
	if len(u.Roles) == 0 {
		return RoleUser
	}
	return u.Roles[0]
}

// RoleNames returns roles as plain strings (for token claims)
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = string(r)
	}
	return names
}

// ResetToken is the stored half of a password reset token.
// Only a hash of the token value is kept.
type ResetToken struct {
	UserID      string
	TokenHash   string
	Fingerprint string // Fingerprint of the password hash at issuance
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// IsExpired checks if the token is past its expiry
func (t *ResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// AuthEvent is published when an identity changes state
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Auth event types
const (
	EventUserRegistered    = "user.registered"
	EventUserLoggedIn      = "user.logged_in"
	EventUserLoggedOut     = "user.logged_out"
	EventUserBlocked       = "user.blocked"
	EventUserUnblocked     = "user.unblocked"
	EventPasswordResetSent = "user.password_reset_requested"
	EventPasswordReset     = "user.password_reset"
)

// NormalizeEmail lower-cases and trims an email for lookups and storage
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
