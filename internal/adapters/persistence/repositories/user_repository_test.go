package repositories

import (
	"context"
	"testing"
	"time"

	"langlearn-api/internal/adapters/persistence/testdb"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserRepo(t *testing.T) (UserRepository, *password.Hasher) {
	t.Helper()
	hasher := password.NewHasher(bcrypt.MinCost)
	return NewUserRepository(testdb.New(t), hasher), hasher
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo, hasher := newUserRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: " Alice@X.com", Username: "alice"}
	require.NoError(t, repo.Create(ctx, u, "Pw1!"))

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, []domain.Role{domain.RoleUser}, u.Roles)
	assert.True(t, hasher.Verify("Pw1!", u.PasswordHash))
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, []domain.Role{domain.RoleUser}, byEmail.Roles)
	assert.Nil(t, byEmail.LockoutUntil)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, u.PasswordHash, byID.PasswordHash)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	t.Parallel()

	repo, _ := newUserRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "alice@x.com", Username: "alice"}, "Pw1!"))

	tests := []struct {
		name string
		user *domain.User
	}{
		{name: "same email", user: &domain.User{Email: "alice@x.com", Username: "alice2"}},
		{name: "email differs only in case", user: &domain.User{Email: "ALICE@X.COM", Username: "alice3"}},
		{name: "same username", user: &domain.User{Email: "other@x.com", Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user, "Pw1!")
			assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
		})
	}

	exists, err := repo.ExistsByEmail(ctx, "Alice@X.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo, _ := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	lockout := domain.BlockedForever
	assert.ErrorIs(t, repo.SetLockout(ctx, "missing", &lockout), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "missing", "a", "b"), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.AddRole(ctx, "missing", domain.RoleAdmin), domain.ErrUserNotFound)
}

func TestUserRepository_SetLockout(t *testing.T) {
	t.Parallel()

	repo, _ := newUserRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "alice@x.com", Username: "alice"}
	require.NoError(t, repo.Create(ctx, u, "Pw1!"))

	lockout := domain.BlockedForever
	require.NoError(t, repo.SetLockout(ctx, u.ID, &lockout))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LockoutUntil)
	assert.True(t, got.LockoutUntil.Equal(domain.BlockedForever))
	assert.Equal(t, domain.StatusBlocked, got.Status(time.Now()))
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	require.NoError(t, repo.SetLockout(ctx, u.ID, nil))

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LockoutUntil)
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	t.Parallel()

	repo, _ := newUserRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "alice@x.com", Username: "alice"}
	require.NoError(t, repo.Create(ctx, u, "Pw1!"))
	original := u.PasswordHash

	require.NoError(t, repo.UpdatePasswordHash(ctx, u.ID, original, "$2a$04$first"))

	// a writer still holding the original hash loses
	err := repo.UpdatePasswordHash(ctx, u.ID, original, "$2a$04$second")
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$first", got.PasswordHash)
}

func TestUserRepository_AddRole(t *testing.T) {
	t.Parallel()

	repo, _ := newUserRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "alice@x.com", Username: "alice"}
	require.NoError(t, repo.Create(ctx, u, "Pw1!"))

	require.NoError(t, repo.AddRole(ctx, u.ID, domain.RoleAdmin))
	require.NoError(t, repo.AddRole(ctx, u.ID, domain.RoleAdmin))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Role{domain.RoleUser, domain.RoleAdmin}, got.Roles)
}
