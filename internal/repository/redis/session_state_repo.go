package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
)

const sessionStateTTL = 24 * time.Hour

// SessionStateRepo implements repository.SessionStateRepository on top of the JSON cache
type SessionStateRepo struct {
	cache repository.CacheRepository
}

// NewSessionStateRepo creates a new recommendation state repository
func NewSessionStateRepo(cache repository.CacheRepository) *SessionStateRepo {
	return &SessionStateRepo{cache: cache}
}

func sessionStateKey(childID uint, sessionID string) string {
	return fmt.Sprintf("recommend:state:%d:%s", childID, sessionID)
}

// Load returns the stored state or a zero state
func (r *SessionStateRepo) Load(ctx context.Context, childID uint, sessionID string) (entity.UncertaintyState, error) {
	var state entity.UncertaintyState
	err := r.cache.GetJSON(ctx, sessionStateKey(childID, sessionID), &state)
	if errors.Is(err, apperrors.ErrNotFound) {
		return entity.UncertaintyState{}, nil
	}
	if err != nil {
		return entity.UncertaintyState{}, err
	}
	return state, nil
}

// Save stores the state with a sliding TTL
func (r *SessionStateRepo) Save(ctx context.Context, childID uint, sessionID string, state entity.UncertaintyState) error {
	return r.cache.SetJSON(ctx, sessionStateKey(childID, sessionID), state, sessionStateTTL)
}
