package repositories

import (
	"context"
	"errors"
	"time"

	"langlearn-api/internal/adapters/persistence/models"
	"langlearn-api/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resetTokenRepository implements ResetTokenRepository interface
type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Upsert stores token, replacing any previous token of the same user
func (r *resetTokenRepository) Upsert(ctx context.Context, token *domain.ResetToken) error {
	row := models.ResetTokenFromDomain(token)
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "fingerprint", "issued_at", "expires_at"}),
		}).
		Create(row).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// GetByUserID gets the current token of a user
func (r *resetTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.ResetToken, error) {
	var token models.PasswordResetToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return token.ToDomain(), nil
}

// DeleteByUserID removes the token of a user
func (r *resetTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before the given time
func (r *resetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before.UTC()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, storeErr(result.Error)
	}
	return result.RowsAffected, nil
}
