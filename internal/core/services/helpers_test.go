package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/adapters/persistence/testdb"
	"langlearn-api/internal/config"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/jwt"
	"langlearn-api/internal/pkg/password"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) Sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domain.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) Events() []domain.AuthEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.AuthEvent(nil), p.events...)
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret",
			Issuer:          "langlearn-api",
			AccessTokenMins: 60,
		},
		Reset: config.ResetConfig{
			TokenMinutes:    15,
			BaseURL:         "http://localhost:3000",
			TokenInResponse: true,
		},
		Password: config.PasswordConfig{
			BcryptCost:    bcrypt.MinCost,
			MinLength:     4,
			RequireDigit:  true,
			RequireUpper:  true,
			RequireLower:  true,
			RequireSymbol: true,
		},
	}
}

type testEnv struct {
	svc      *AuthService
	users    repositories.UserRepository
	resets   *ResetTokenService
	tokens   *jwt.TokenService
	hasher   *password.Hasher
	notifier *fakeNotifier
	events   *fakePublisher
	clock    *fakeClock
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testdb.New(t)
	hasher := password.NewHasher(cfg.Password.BcryptCost)
	users := repositories.NewUserRepository(db, hasher)
	clock := newFakeClock()

	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL())
	require.NoError(t, err)

	resets := NewResetTokenService(users, repositories.NewResetTokenRepository(db), hasher, cfg.Reset.TokenTTL()).
		WithClock(clock.Now)
	accounts := NewAccountStateMachine(users).WithClock(clock.Now)

	notifier := &fakeNotifier{}
	events := &fakePublisher{}
	svc := NewAuthService(users, hasher, tokens, resets, accounts, notifier, events, cfg)

	return &testEnv{
		svc:      svc,
		users:    users,
		resets:   resets,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		events:   events,
		clock:    clock,
	}
}

func (e *testEnv) registerAlice(t *testing.T) *AuthResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{
		Email:    "alice@x.com",
		Username: "alice",
		Password: "Pw1!",
	})
	require.NoError(t, err)
	return res
}

var errBrokerDown = errors.New("broker down")
