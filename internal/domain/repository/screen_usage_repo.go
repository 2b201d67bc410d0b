package repository

import (
	"context"
	"time"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// ScreenUsageRepository defines access to the usage ledger
type ScreenUsageRepository interface {
	Create(ctx context.Context, record *entity.UsageRecord) error
	// SumDuration returns the total seconds of a child's records with from <= usage_date < to
	SumDuration(ctx context.Context, childID uint, from, to time.Time) (int64, error)
	// DeleteRange removes a child's records with from <= usage_date < to and returns the count
	DeleteRange(ctx context.Context, childID uint, from, to time.Time) (int64, error)
	// ArchiveBefore folds a child's records dated before the cutoff into per-day totals
	// and deletes them. Returns the number of deleted records.
	ArchiveBefore(ctx context.Context, childID uint, cutoff time.Time) (int64, error)
	// ArchiveAllBefore does the same for every child
	ArchiveAllBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// DailyTotals returns a child's usage per UTC day with from <= day < to,
	// combining archived totals and live records
	DailyTotals(ctx context.Context, childID uint, from, to time.Time) ([]entity.DailyUsage, error)
}
