package repository

import (
	"context"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// UserAccountRepository defines access to application accounts
type UserAccountRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.UserAccount, error)
	// GetByAuthUID resolves the account linked to a hosted auth provider identity
	GetByAuthUID(ctx context.Context, authUID string) (*entity.UserAccount, error)
}
