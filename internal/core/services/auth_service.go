package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/config"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/jwt"
	"langlearn-api/internal/pkg/logging"
	"langlearn-api/internal/pkg/password"
)

const resetEmailSubject = "Password recovery"

// AuthService handles authentication business logic
type AuthService struct {
	users     repositories.UserRepository
	hasher    *password.Hasher
	tokens    *jwt.TokenService
	resets    *ResetTokenService
	accounts  *AccountStateMachine
	validator *Validator
	notifier  Notifier
	events    EventPublisher
	cfg       *config.Config
	dummyHash string
	now       func() time.Time
}

// NewAuthService creates a new auth service. events may be nil.
func NewAuthService(
	users repositories.UserRepository,
	hasher *password.Hasher,
	tokens *jwt.TokenService,
	resets *ResetTokenService,
	accounts *AccountStateMachine,
	notifier Notifier,
	events EventPublisher,
	cfg *config.Config,
) *AuthService {
	// Verified against when the login identifier is unknown, so that
	// a miss costs the same as a wrong password.
	dummy, _ := hasher.Hash("not-a-real-password")

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		resets:    resets,
		accounts:  accounts,
		validator: NewValidator(NewPasswordPolicy(cfg.Password)),
		notifier:  notifier,
		events:    events,
		cfg:       cfg,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// Register registers a new user with the default role
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := s.validator.Register(input); err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:    input.Email,
		Username: strings.TrimSpace(input.Username),
		Roles:    []domain.Role{domain.RoleUser},
	}
	if err := s.users.Create(ctx, user, input.Password); err != nil {
		return nil, err
	}

	s.log(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)
	s.publish(ctx, domain.EventUserRegistered, user)

	return s.authResult(user)
}

// Login authenticates by email or username
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := s.validator.Login(input); err != nil {
		return nil, err
	}

	user, err := s.findByLogin(ctx, strings.TrimSpace(input.EmailOrUsername))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(input.Password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.log(ctx).Warn("login failed", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	if s.accounts.Status(user) == domain.StatusBlocked {
		s.log(ctx).Warn("login rejected for blocked user", "user_id", user.ID)
		return nil, domain.ErrAccountBlocked
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, input.Password)
	}

	s.log(ctx).Info("user logged in", "user_id", user.ID)
	s.publish(ctx, domain.EventUserLoggedIn, user)

	return s.authResult(user)
}

// findByLogin resolves identifier as an email first, then as a username
func (s *AuthService) findByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.users.GetByUsername(ctx, identifier)
}

// rehash upgrades a hash made with an older cost. It is skipped when the
// password changed since it was read; failure keeps the old hash.
func (s *AuthService) rehash(ctx context.Context, user *domain.User, plaintext string) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.log(ctx).Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, user.PasswordHash, hash); err != nil {
		s.log(ctx).Warn("password rehash not saved", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

// BlockUser locks a user out
func (s *AuthService) BlockUser(ctx context.Context, userID string) (*UserStatus, error) {
	user, err := s.accounts.Block(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("user blocked", "user_id", user.ID)
	s.publish(ctx, domain.EventUserBlocked, user)

	return &UserStatus{ID: user.ID, Status: s.accounts.Status(user)}, nil
}

// UnblockUser lifts a lockout
func (s *AuthService) UnblockUser(ctx context.Context, userID string) (*UserStatus, error) {
	user, err := s.accounts.Unblock(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("user unblocked", "user_id", user.ID)
	s.publish(ctx, domain.EventUserUnblocked, user)

	return &UserStatus{ID: user.ID, Status: s.accounts.Status(user)}, nil
}

// ForgotPassword issues a reset token and mails the reset link
func (s *AuthService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) (*ForgotPasswordResult, error) {
	if err := s.validator.ForgotPassword(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) && s.cfg.Reset.HideUnknownEmail {
			s.log(ctx).Info("password reset requested for unknown email")
			return &ForgotPasswordResult{}, nil
		}
		return nil, err
	}

	token, err := s.resets.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	link := ResetLink(s.cfg.Reset.BaseURL, user.Email, token)
	if err := s.notifier.Send(ctx, user.Email, resetEmailSubject, resetEmailBody(link)); err != nil {
		return nil, fmt.Errorf("send reset email: %w", err)
	}

	s.log(ctx).Info("password reset token issued", "user_id", user.ID)
	s.publish(ctx, domain.EventPasswordResetSent, user)

	result := &ForgotPasswordResult{}
	if s.cfg.Reset.TokenInResponse {
		result.Token = token
	}
	return result, nil
}

// ResetPassword redeems a reset token
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) (*ResetPasswordResult, error) {
	if err := s.validator.ResetPassword(input); err != nil {
		return nil, err
	}

	user, err := s.resets.ValidateAndConsume(ctx, input.Email, input.Token, input.NewPassword)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("password reset", "user_id", user.ID)
	s.publish(ctx, domain.EventPasswordReset, user)

	return &ResetPasswordResult{Succeeded: true}, nil
}

// Logout acknowledges a logout. Access tokens are not revoked; consumers
// of the event stream may act on it.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	s.log(ctx).Info("user logged out", "user_id", userID)
	s.publish(ctx, domain.EventUserLoggedOut, &domain.User{ID: userID})
	return nil
}

// GetUserByID gets user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// AccountStatus derives the lockout state of user
func (s *AuthService) AccountStatus(user *domain.User) domain.AccountStatus {
	return s.accounts.Status(user)
}

func (s *AuthService) authResult(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(jwt.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Roles:    user.RoleNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResult{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      string(user.PrimaryRole()),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// publish emits an event; delivery failures never fail the operation
func (s *AuthService) publish(ctx context.Context, eventType string, user *domain.User) {
	if s.events == nil {
		return
	}
	event := domain.AuthEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("auth event not published", "type", eventType, "error", err)
	}
}

func (s *AuthService) log(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx).With("svc", "auth")
}

// ResetLink builds the link mailed to the user
func ResetLink(baseURL, email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(baseURL, "/") + "/api/auth/reset-password?" + q.Encode()
}

func resetEmailBody(link string) string {
	return "<p>To reset your password, please follow the link below:</p>" +
		"<a href='" + html.EscapeString(link) + "'>Reset password</a>"
}
