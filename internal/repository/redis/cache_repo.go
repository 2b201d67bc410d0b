package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
)

// CacheRepo is the generic key/value store behind the genre catalog cache
// and the per-session recommendation state. Missing keys map to ErrNotFound.
type CacheRepo struct {
	client redis.UniversalClient
}

func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("cache repo: nil redis client")
	}
	return &CacheRepo{client: client}, nil
}

func (r *CacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *CacheRepo) Get(ctx context.Context, key string) (string, error) {
	raw, err := r.raw(ctx, key)
	return string(raw), err
}

func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// SetJSON encodes value as JSON before storing it
func (r *CacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.Set(ctx, key, data, expiration)
}

// GetJSON decodes the stored JSON into dest
func (r *CacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.raw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetNX reports whether the key was created
func (r *CacheRepo) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

func (r *CacheRepo) raw(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	return data, err
}
