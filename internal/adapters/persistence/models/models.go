package models

import (
	"time"

	"langlearn-api/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity Tables
// ============================================================

// User represents users table
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	LockoutUntil *time.Time `json:"lockout_until"`
	Roles        []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"roles"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserRole represents user_roles table
type UserRole struct {
	UserID string `gorm:"primaryKey;size:36" json:"user_id"`
	Role   string `gorm:"primaryKey;size:20" json:"role"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// PasswordResetToken represents password_reset_tokens table.
// One row per user; reissuing overwrites it.
type PasswordResetToken struct {
	UserID      string    `gorm:"primaryKey;size:36" json:"user_id"`
	TokenHash   string    `gorm:"size:64;not null" json:"-"`
	Fingerprint string    `gorm:"size:64;not null" json:"-"`
	IssuedAt    time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// ============================================================
// Mapping
// ============================================================

// ToDomain converts a users row to the domain user
func (u *User) ToDomain() *domain.User {
	roles := make([]domain.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, domain.Role(r.Role))
	}

	var lockout *time.Time
	if u.LockoutUntil != nil {
		t := u.LockoutUntil.UTC()
		lockout = &t
	}

	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		LockoutUntil: lockout,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UserFromDomain converts a domain user to a users row
func UserFromDomain(u *domain.User) *User {
	roles := make([]UserRole, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, UserRole{UserID: u.ID, Role: string(r)})
	}

	var lockout *time.Time
	if u.LockoutUntil != nil {
		t := u.LockoutUntil.UTC()
		lockout = &t
	}

	return &User{
		ID:           u.ID,
		Email:        domain.NormalizeEmail(u.Email),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		LockoutUntil: lockout,
		Roles:        roles,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ToDomain converts a password_reset_tokens row to the domain token
func (t *PasswordResetToken) ToDomain() *domain.ResetToken {
	return &domain.ResetToken{
		UserID:      t.UserID,
		TokenHash:   t.TokenHash,
		Fingerprint: t.Fingerprint,
		IssuedAt:    t.IssuedAt.UTC(),
		ExpiresAt:   t.ExpiresAt.UTC(),
	}
}

// ResetTokenFromDomain converts a domain token to a password_reset_tokens row
func ResetTokenFromDomain(t *domain.ResetToken) *PasswordResetToken {
	return &PasswordResetToken{
		UserID:      t.UserID,
		TokenHash:   t.TokenHash,
		Fingerprint: t.Fingerprint,
		IssuedAt:    t.IssuedAt.UTC(),
		ExpiresAt:   t.ExpiresAt.UTC(),
	}
}

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserRole{},
		&PasswordResetToken{},
	)
}
