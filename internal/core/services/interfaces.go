package services

import (
	"context"
	"time"

	"langlearn-api/internal/core/domain"
)

// Notifier delivers outgoing email. Delivery itself happens outside this service.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EventPublisher emits auth events to interested consumers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AuthEvent) error
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput represents login input; EmailOrUsername matches either field
type LoginInput struct {
	EmailOrUsername string `json:"emailOrUserName"`
	Password        string `json:"password"`
}

// ForgotPasswordInput represents forgot password input
type ForgotPasswordInput struct {
	Email string `json:"email"`
}

// ResetPasswordInput represents reset password input
type ResetPasswordInput struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	ID        string
	Email     string
	Username  string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// UserStatus is returned by block and unblock
type UserStatus struct {
	ID     string
	Status domain.AccountStatus
}

// ForgotPasswordResult carries the raw token only when echoing it is enabled
type ForgotPasswordResult struct {
	Token string
}

// ResetPasswordResult represents reset password outcome
type ResetPasswordResult struct {
	Succeeded bool
	Errors    []string
}
