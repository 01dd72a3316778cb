package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/logging"
	"langlearn-api/internal/pkg/password"
)

const resetTokenBytes = 32

// ResetTokenService issues and redeems single-use password reset tokens.
// A token is bound to the fingerprint of the password hash it was issued
// against, so it dies as soon as the password changes.
type ResetTokenService struct {
	users  repositories.UserRepository
	tokens repositories.ResetTokenRepository
	hasher *password.Hasher
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokenService creates a new reset token service
func NewResetTokenService(
	users repositories.UserRepository,
	tokens repositories.ResetTokenRepository,
	hasher *password.Hasher,
	ttl time.Duration,
) *ResetTokenService {
	return &ResetTokenService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source
func (s *ResetTokenService) WithClock(now func() time.Time) *ResetTokenService {
	s.now = now
	return s
}

// Issue creates a token for user, replacing any earlier one
func (s *ResetTokenService) Issue(ctx context.Context, user *domain.User) (string, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.now().UTC()
	record := &domain.ResetToken{
		UserID:      user.ID,
		TokenHash:   password.HashToken(token),
		Fingerprint: password.Fingerprint(user.PasswordHash),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.tokens.Upsert(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateAndConsume checks token for the user behind email and, when it
// holds, sets newPassword and discards the token. The password write only
// succeeds against the hash the token was validated with, so of two
// concurrent redemptions at most one wins.
func (s *ResetTokenService) ValidateAndConsume(ctx context.Context, email, token, newPassword string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	record, err := s.tokens.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if record.IsExpired(s.now()) {
		return nil, domain.ErrTokenExpired
	}

	if subtle.ConstantTimeCompare([]byte(password.HashToken(token)), []byte(record.TokenHash)) != 1 {
		return nil, domain.ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(password.Fingerprint(user.PasswordHash)), []byte(record.Fingerprint)) != 1 {
		return nil, domain.ErrTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, user.PasswordHash, hash); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	user.PasswordHash = hash

	// The new hash already invalidates the token; the delete is housekeeping.
	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		logging.FromContext(ctx).Warn("reset token cleanup failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// PurgeExpired removes tokens past their expiry
func (s *ResetTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
