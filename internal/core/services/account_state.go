package services

import (
	"context"
	"time"

	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/core/domain"
)

// AccountStateMachine moves users between Active and Blocked.
// Both transitions are idempotent.
type AccountStateMachine struct {
	users repositories.UserRepository
	now   func() time.Time
}

// NewAccountStateMachine creates a new account state machine
func NewAccountStateMachine(users repositories.UserRepository) *AccountStateMachine {
	return &AccountStateMachine{users: users, now: time.Now}
}

// WithClock replaces the time source
func (m *AccountStateMachine) WithClock(now func() time.Time) *AccountStateMachine {
	m.now = now
	return m
}

// Status derives the current state of user
func (m *AccountStateMachine) Status(user *domain.User) domain.AccountStatus {
	return user.Status(m.now())
}

// Block locks the user out indefinitely
func (m *AccountStateMachine) Block(ctx context.Context, userID string) (*domain.User, error) {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.LockoutUntil != nil && user.LockoutUntil.Equal(domain.BlockedForever) {
		return user, nil
	}

	lockout := domain.BlockedForever
	if err := m.users.SetLockout(ctx, user.ID, &lockout); err != nil {
		return nil, err
	}
	user.LockoutUntil = &lockout
	return user, nil
}

// Unblock clears any lockout
func (m *AccountStateMachine) Unblock(ctx context.Context, userID string) (*domain.User, error) {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.LockoutUntil == nil {
		return user, nil
	}

	if err := m.users.SetLockout(ctx, user.ID, nil); err != nil {
		return nil, err
	}
	user.LockoutUntil = nil
	return user, nil
}
