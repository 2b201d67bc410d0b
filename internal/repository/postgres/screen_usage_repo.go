package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// ScreenUsageRepo implements repository.ScreenUsageRepository
type ScreenUsageRepo struct {
	db *gorm.DB
}

// NewScreenUsageRepo creates a new usage ledger repository
func NewScreenUsageRepo(db *gorm.DB) *ScreenUsageRepo {
	return &ScreenUsageRepo{db: db}
}

// Create appends a usage record
func (r *ScreenUsageRepo) Create(ctx context.Context, record *entity.UsageRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// SumDuration returns the total seconds of a child's records in [from, to)
func (r *ScreenUsageRepo) SumDuration(ctx context.Context, childID uint, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.UsageRecord{}).
		Select("COALESCE(SUM(duration), 0)").
		Where("child_id = ? AND usage_date >= ? AND usage_date < ?", childID, from, to).
		Scan(&total).Error
	return total, err
}

// DeleteRange removes a child's records in [from, to)
func (r *ScreenUsageRepo) DeleteRange(ctx context.Context, childID uint, from, to time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("child_id = ? AND usage_date >= ? AND usage_date < ?", childID, from, to).
		Delete(&entity.UsageRecord{})
	return result.RowsAffected, result.Error
}

// archiveDaySQL folds matching rows into screen_usage_daily; %s is the row filter
const archiveDaySQL = `
INSERT INTO screen_usage_daily (child_id, day, seconds)
SELECT child_id, (usage_date AT TIME ZONE 'UTC')::date, SUM(duration)
FROM screen_usage
WHERE %s
GROUP BY 1, 2
ON CONFLICT (child_id, day) DO UPDATE SET seconds = screen_usage_daily.seconds + EXCLUDED.seconds`

// ArchiveBefore moves a child's records dated before the cutoff into per-day totals
func (r *ScreenUsageRepo) ArchiveBefore(ctx context.Context, childID uint, cutoff time.Time) (int64, error) {
	return r.archive(ctx, "child_id = ? AND usage_date < ?", childID, cutoff)
}

// ArchiveAllBefore moves every record dated before the cutoff into per-day totals
func (r *ScreenUsageRepo) ArchiveAllBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.archive(ctx, "usage_date < ?", cutoff)
}

// archive aggregates the filtered rows and deletes them in one transaction
func (r *ScreenUsageRepo) archive(ctx context.Context, where string, args ...interface{}) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf(archiveDaySQL, where), args...).Error; err != nil {
			return fmt.Errorf("aggregate usage: %w", err)
		}
		result := tx.Where(where, args...).Delete(&entity.UsageRecord{})
		if result.Error != nil {
			return fmt.Errorf("delete usage: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// dailyTotalRow is the scan target of the per-day aggregate
type dailyTotalRow struct {
	Day     time.Time
	Seconds int64
}

// dailyTotalsSQL merges archived days with the live ledger
const dailyTotalsSQL = `
SELECT day, SUM(seconds)::bigint AS seconds FROM (
	SELECT day, seconds FROM screen_usage_daily
	WHERE child_id = ? AND day >= ?::date AND day < ?::date
	UNION ALL
	SELECT (usage_date AT TIME ZONE 'UTC')::date AS day, duration AS seconds FROM screen_usage
	WHERE child_id = ? AND usage_date >= ? AND usage_date < ?
) AS usage_days
GROUP BY day
ORDER BY day`

// DailyTotals returns usage per UTC day in [from, to), ordered by day
func (r *ScreenUsageRepo) DailyTotals(ctx context.Context, childID uint, from, to time.Time) ([]entity.DailyUsage, error) {
	var rows []dailyTotalRow
	err := r.db.WithContext(ctx).
		Raw(dailyTotalsSQL, childID, entity.ISODate(from), entity.ISODate(to), childID, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]entity.DailyUsage, len(rows))
	for i, row := range rows {
		day := row.Day
		totals[i] = entity.DailyUsage{
			Day:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Seconds: row.Seconds,
		}
	}
	return totals, nil
}
