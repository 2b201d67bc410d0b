package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	dayMarkerTTL      = 72 * time.Hour
	trackedSessionTTL = 12 * time.Hour
)

// DayMarkerRepo implements repository.DayMarkerRepository.
// It keeps the marker server-side under the same key the web client used.
type DayMarkerRepo struct {
	client redis.UniversalClient
}

// NewDayMarkerRepo creates a new day marker repository
func NewDayMarkerRepo(client redis.UniversalClient) *DayMarkerRepo {
	return &DayMarkerRepo{client: client}
}

func dayMarkerKey(childID uint) string {
	return fmt.Sprintf("last_login:%d", childID)
}

// GetLastSeenDay returns the stored ISO date or "" when absent
func (r *DayMarkerRepo) GetLastSeenDay(ctx context.Context, childID uint) (string, error) {
	day, err := r.client.Get(ctx, dayMarkerKey(childID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return day, err
}

// SetLastSeenDay stores the ISO date
func (r *DayMarkerRepo) SetLastSeenDay(ctx context.Context, childID uint, day string) error {
	return r.client.Set(ctx, dayMarkerKey(childID), day, dayMarkerTTL).Err()
}

// TrackedSessionRepo implements repository.TrackedSessionRepository
type TrackedSessionRepo struct {
	client redis.UniversalClient
}

// NewTrackedSessionRepo creates a new tracked session repository
func NewTrackedSessionRepo(client redis.UniversalClient) *TrackedSessionRepo {
	return &TrackedSessionRepo{client: client}
}

func trackedSessionKey(childID uint) string {
	return fmt.Sprintf("screen_session:%d", childID)
}

func watcherCountKey(childID uint) string {
	return fmt.Sprintf("screen_session_watchers:%d", childID)
}

// leaveScript decrements the watcher count and drops the key once nobody is left
var leaveScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
return n
`)

// Join increments the open watcher count of a child
func (r *TrackedSessionRepo) Join(ctx context.Context, childID uint) (int64, error) {
	key := watcherCountKey(childID)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, trackedSessionTTL)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Leave decrements the open watcher count of a child
func (r *TrackedSessionRepo) Leave(ctx context.Context, childID uint) (int64, error) {
	return leaveScript.Run(ctx, r.client, []string{watcherCountKey(childID)}).Int64()
}

// Start opens an interval unless one is already open
func (r *TrackedSessionRepo) Start(ctx context.Context, childID uint, at time.Time) error {
	return r.client.SetNX(ctx, trackedSessionKey(childID), at.UTC().UnixMilli(), trackedSessionTTL).Err()
}

// Take atomically reads the open interval start and replaces it with next (or closes it when next is zero)
func (r *TrackedSessionRepo) Take(ctx context.Context, childID uint, next time.Time) (time.Time, bool, error) {
	key := trackedSessionKey(childID)

	var cmd *redis.StringCmd
	if next.IsZero() {
		cmd = r.client.GetDel(ctx, key)
	} else {
		cmd = r.client.GetSet(ctx, key, next.UTC().UnixMilli())
	}

	millis, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		if !next.IsZero() {
			// GETSET created the key without a TTL
			r.client.Expire(ctx, key, trackedSessionTTL)
		}
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if !next.IsZero() {
		r.client.Expire(ctx, key, trackedSessionTTL)
		r.client.Expire(ctx, watcherCountKey(childID), trackedSessionTTL)
	}
	return time.UnixMilli(millis).UTC(), true, nil
}

// NotificationLogRepo implements repository.NotificationLogRepository
type NotificationLogRepo struct {
	client redis.UniversalClient
}

// NewNotificationLogRepo creates a new notification dedup repository
func NewNotificationLogRepo(client redis.UniversalClient) *NotificationLogRepo {
	return &NotificationLogRepo{client: client}
}

// MarkSent returns true for the first call with a key within ttl
func (r *NotificationLogRepo) MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, notifyKey(key), 1, ttl).Result()
}

// Unmark deletes a key claimed by MarkSent
func (r *NotificationLogRepo) Unmark(ctx context.Context, key string) error {
	return r.client.Del(ctx, notifyKey(key)).Err()
}

func notifyKey(key string) string {
	return "notify:" + key
}
