package repositories

import (
	"context"
	"errors"
	"time"

	"langlearn-api/internal/adapters/persistence/models"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db     *gorm.DB
	hasher *password.Hasher
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, hasher *password.Hasher) UserRepository {
	return &userRepository{db: db, hasher: hasher}
}

// Create creates a new user together with its roles
func (r *userRepository) Create(ctx context.Context, user *domain.User, plaintextPassword string) error {
	user.Email = domain.NormalizeEmail(user.Email)

	exists, err := r.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateIdentity
	}
	exists, err = r.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateIdentity
	}

	hash, err := r.hasher.Hash(plaintextPassword)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if len(user.Roles) == 0 {
		user.AddRole(domain.RoleUser)
	}
	user.PasswordHash = hash

	row := models.UserFromDomain(user)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		// A concurrent registration can slip past the pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateIdentity
		}
		return storeErr(err)
	}

	user.CreatedAt = row.CreatedAt
	user.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail gets a user by email, ignoring case
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return user.ToDomain(), nil
}

// SetLockout writes lockout_until only
func (r *userRepository) SetLockout(ctx context.Context, id string, until *time.Time) error {
	if until != nil {
		t := until.UTC()
		until = &t
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"lockout_until": until,
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.mustExist(ctx, id)
	}
	return nil
}

// UpdatePasswordHash swaps oldHash for newHash. When the stored hash is no
// longer oldHash nothing is written and ErrConcurrentUpdate is returned.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND password_hash = ?", id, oldHash).
		Updates(map[string]interface{}{
			"password_hash": newHash,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := r.mustExist(ctx, id); err != nil {
			return err
		}
		return domain.ErrConcurrentUpdate
	}
	return nil
}

// AddRole grants role; granting a held role is a no-op
func (r *userRepository) AddRole(ctx context.Context, id string, role domain.Role) error {
	if err := r.mustExist(ctx, id); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: id, Role: string(role)}).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *userRepository) mustExist(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return storeErr(err)
	}
	if count == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ExistsByUsername checks if username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

// ExistsByEmail checks if email exists, ignoring case
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", domain.NormalizeEmail(email)).Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}
