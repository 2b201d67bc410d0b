package repository

import (
	"context"
	"time"
)

// DayMarkerRepository stores the last calendar day a child was seen (key last_login:<childID>)
type DayMarkerRepository interface {
	// GetLastSeenDay returns "" when no marker exists
	GetLastSeenDay(ctx context.Context, childID uint) (string, error)
	SetLastSeenDay(ctx context.Context, childID uint, day string) error
}

// TrackedSessionRepository stores the start of a child's not yet flushed usage interval.
// Every open watcher of a child shares the interval; Join and Leave count them.
type TrackedSessionRepository interface {
	// Join registers one more open watcher and returns the new count
	Join(ctx context.Context, childID uint) (int64, error)
	// Leave unregisters a watcher and returns how many are still open (never below 0)
	Leave(ctx context.Context, childID uint) (int64, error)
	// Start records the beginning of an interval unless one is already open
	Start(ctx context.Context, childID uint, at time.Time) error
	// Take returns the open interval start and replaces it with next.
	// When next is zero the interval is closed. ok is false if nothing was open.
	Take(ctx context.Context, childID uint, next time.Time) (started time.Time, ok bool, err error)
}

// NotificationLogRepository deduplicates parent notifications
type NotificationLogRepository interface {
	// MarkSent returns true only for the first call with the same key within ttl
	MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unmark forgets a key so the notification can be retried
	Unmark(ctx context.Context, key string) error
}
