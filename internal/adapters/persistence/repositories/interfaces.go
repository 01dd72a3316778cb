package repositories

import (
	"context"
	"fmt"
	"time"

	"langlearn-api/internal/core/domain"
)

// UserRepository defines the credential store
type UserRepository interface {
	// Create hashes plaintextPassword and persists user, filling its ID,
	// normalized email, hash and timestamps.
	Create(ctx context.Context, user *domain.User, plaintextPassword string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Each write touches only its own columns so that concurrent
	// transitions on one user do not overwrite each other.
	SetLockout(ctx context.Context, id string, until *time.Time) error
	UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error
	AddRole(ctx context.Context, id string, role domain.Role) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// ResetTokenRepository defines password reset token storage
type ResetTokenRepository interface {
	Upsert(ctx context.Context, token *domain.ResetToken) error
	GetByUserID(ctx context.Context, userID string) (*domain.ResetToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
