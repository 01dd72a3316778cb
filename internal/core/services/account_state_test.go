package services

import (
	"context"
	"testing"
	"time"

	"langlearn-api/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStateMachine(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := aliceUser(t, env)
	machine := NewAccountStateMachine(env.users).WithClock(env.clock.Now)
	ctx := context.Background()

	assert.Equal(t, domain.StatusActive, machine.Status(alice))

	blocked, err := machine.Block(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, machine.Status(blocked))
	require.NotNil(t, blocked.LockoutUntil)
	assert.True(t, blocked.LockoutUntil.Equal(domain.BlockedForever))

	unblocked, err := machine.Unblock(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, unblocked.LockoutUntil)
	assert.Equal(t, domain.StatusActive, machine.Status(unblocked))
}

func TestAccountStateMachine_TemporaryLockout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := aliceUser(t, env)
	machine := NewAccountStateMachine(env.users).WithClock(env.clock.Now)
	ctx := context.Background()

	until := env.clock.Now().Add(10 * time.Minute)
	require.NoError(t, env.users.SetLockout(ctx, alice.ID, &until))
	alice, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, machine.Status(alice))

	env.clock.Advance(11 * time.Minute)
	assert.Equal(t, domain.StatusActive, machine.Status(alice))

	blocked, err := machine.Block(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked.LockoutUntil.Equal(domain.BlockedForever))
}

func TestAccountStateMachine_BlockKeepsConcurrentPasswordReset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := aliceUser(t, env)
	ctx := context.Background()

	token, err := env.resets.Issue(ctx, alice)
	require.NoError(t, err)

	// the block read alice before the reset committed
	machine := NewAccountStateMachine(&staleUsers{UserRepository: env.users, snapshot: *alice}).
		WithClock(env.clock.Now)

	_, err = env.resets.ValidateAndConsume(ctx, "alice@x.com", token, "NewPw2@")
	require.NoError(t, err)

	_, err = machine.Block(ctx, alice.ID)
	require.NoError(t, err)

	stored, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, stored.Status(env.clock.Now()))
	assert.True(t, env.hasher.Verify("NewPw2@", stored.PasswordHash))
	assert.False(t, env.hasher.Verify("Pw1!", stored.PasswordHash))
}
