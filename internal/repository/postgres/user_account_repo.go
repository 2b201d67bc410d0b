package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// UserAccountRepo implements repository.UserAccountRepository
type UserAccountRepo struct {
	db *gorm.DB
}

// NewUserAccountRepo creates a new account repository
func NewUserAccountRepo(db *gorm.DB) *UserAccountRepo {
	return &UserAccountRepo{db: db}
}

// GetByID returns an account by uaid
func (r *UserAccountRepo) GetByID(ctx context.Context, id uint) (*entity.UserAccount, error) {
	var account entity.UserAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// GetByAuthUID returns the account linked to the auth provider identity
func (r *UserAccountRepo) GetByAuthUID(ctx context.Context, authUID string) (*entity.UserAccount, error) {
	var account entity.UserAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", authUID).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}
