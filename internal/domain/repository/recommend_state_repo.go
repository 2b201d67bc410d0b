package repository

import (
	"context"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// SessionStateRepository loads and saves per-session recommendation state
type SessionStateRepository interface {
	// Load returns a zero state when the session has none stored
	Load(ctx context.Context, childID uint, sessionID string) (entity.UncertaintyState, error)
	Save(ctx context.Context, childID uint, sessionID string, state entity.UncertaintyState) error
}
