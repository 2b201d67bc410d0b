package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	"github.com/coreadability/coreadability-api/internal/metrics"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

// TimeLimitState is the derived state of a child's daily allowance
type TimeLimitState string

const (
	StateUnknown     TimeLimitState = "unknown"
	StateWithinLimit TimeLimitState = "within_limit"
	StateExceeded    TimeLimitState = "exceeded"
	StateUnlimited   TimeLimitState = "unlimited"
)

const (
	// limitToleranceMinutes absorbs rounding of second-level usage
	limitToleranceMinutes = 0.1

	// maxFlushSeconds caps one tracked interval so a silent client is not billed for hours
	maxFlushSeconds = 5 * 60

	maxRecordSeconds = 24 * 60 * 60
	maxLimitMinutes  = 24 * 60
)

// TimeLimitStatus is the result of a time-limit check
type TimeLimitStatus struct {
	State           TimeLimitState `json:"state"`
	IsExceeded      bool           `json:"is_exceeded"`
	TimeUsed        float64        `json:"time_used"`  // minutes
	TimeLimit       *int           `json:"time_limit"` // minutes, nil when no limit is stored
	Message         string         `json:"message"`
	ResetsInSeconds int64          `json:"resets_in_seconds"`
}

// ScreenTimeService implements the daily screen-time limiter
type ScreenTimeService struct {
	relRepo     repository.ParentChildRepository
	usageRepo   repository.ScreenUsageRepository
	markerRepo  repository.DayMarkerRepository
	sessionRepo repository.TrackedSessionRepository
	alerts      LimitAlerter

	now func() time.Time
	log zerolog.Logger
}

// LimitAlerter is told when a child has been signed out for exceeding the limit
type LimitAlerter interface {
	LimitReached(ctx context.Context, childID uint, status TimeLimitStatus)
}

// NewScreenTimeService creates a new screen-time service
func NewScreenTimeService(
	relRepo repository.ParentChildRepository,
	usageRepo repository.ScreenUsageRepository,
	markerRepo repository.DayMarkerRepository,
	sessionRepo repository.TrackedSessionRepository,
	alerts LimitAlerter,
) *ScreenTimeService {
	return &ScreenTimeService{
		relRepo:     relRepo,
		usageRepo:   usageRepo,
		markerRepo:  markerRepo,
		sessionRepo: sessionRepo,
		alerts:      alerts,
		now:         time.Now,
		log:         logger.Component("screentime"),
	}
}

// TimeUntilReset returns the time left until the next UTC midnight
func TimeUntilReset(now time.Time) time.Duration {
	_, next := entity.DayBounds(now)
	return next.Sub(now)
}

// CheckUserTimeLimit determines whether the child has exceeded today's allowance.
// It never returns an error: infrastructure failures yield an "unknown", not exceeded result.
func (s *ScreenTimeService) CheckUserTimeLimit(ctx context.Context, childID uint) TimeLimitStatus {
	now := s.now()

	if _, err := s.CheckAndResetDailyUsage(ctx, childID); err != nil {
		s.log.Warn().Err(err).Uint("child_id", childID).Msg("daily usage reset skipped")
	}

	status := s.evaluate(ctx, childID, now)
	status.ResetsInSeconds = int64(TimeUntilReset(now).Seconds())

	metrics.TimeLimitChecks.WithLabelValues(string(status.State)).Inc()
	return status
}

func (s *ScreenTimeService) evaluate(ctx context.Context, childID uint, now time.Time) TimeLimitStatus {
	rel, err := s.relRepo.GetByChildID(ctx, childID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return TimeLimitStatus{State: StateUnlimited, Message: "No time limit set"}
		}
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to read time limit")
		return unknownStatus()
	}

	if rel.IsUnlimited() {
		return TimeLimitStatus{
			State:     StateUnlimited,
			TimeLimit: rel.TimeLimitMinute,
			Message:   "No time limit set",
		}
	}

	limit := *rel.TimeLimitMinute
	start, end := entity.DayBounds(now)
	seconds, err := s.usageRepo.SumDuration(ctx, childID, start, end)
	if err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to sum today's usage")
		return unknownStatus()
	}

	used := float64(seconds) / 60.0
	return limitStatus(used, limit)
}

// limitStatus compares minutes used against the limit with a small tolerance
func limitStatus(used float64, limit int) TimeLimitStatus {
	limitCopy := limit
	status := TimeLimitStatus{
		TimeUsed:  used,
		TimeLimit: &limitCopy,
	}
	if used >= float64(limit)+limitToleranceMinutes {
		status.State = StateExceeded
		status.IsExceeded = true
		status.Message = fmt.Sprintf("Daily limit of %d minutes reached (%.1f minutes used)", limit, used)
		return status
	}
	status.State = StateWithinLimit
	status.Message = fmt.Sprintf("%.1f of %d minutes used today", used, limit)
	return status
}

func unknownStatus() TimeLimitStatus {
	return TimeLimitStatus{State: StateUnknown, Message: "Unable to check time limit"}
}

// CheckAndResetDailyUsage archives stale usage when the child is first seen on a new UTC day.
// Returns true when a reset happened. Best effort: a failing marker store skips the reset.
func (s *ScreenTimeService) CheckAndResetDailyUsage(ctx context.Context, childID uint) (bool, error) {
	now := s.now()
	today := entity.ISODate(now)

	lastSeen, err := s.markerRepo.GetLastSeenDay(ctx, childID)
	if err != nil {
		return false, fmt.Errorf("read last seen day: %w", err)
	}
	if lastSeen == today {
		return false, nil
	}

	start, _ := entity.DayBounds(now)
	deleted, err := s.usageRepo.ArchiveBefore(ctx, childID, start)
	if err != nil {
		return false, fmt.Errorf("archive stale usage: %w", err)
	}

	if err := s.markerRepo.SetLastSeenDay(ctx, childID, today); err != nil {
		return true, fmt.Errorf("store last seen day: %w", err)
	}

	metrics.UsageRowsReset.WithLabelValues("login").Add(float64(deleted))
	s.log.Info().
		Uint("child_id", childID).
		Str("last_seen", lastSeen).
		Str("today", today).
		Int64("deleted", deleted).
		Msg("new day detected, stale usage archived")
	return true, nil
}

// RecordUsage appends one usage interval for the child
func (s *ScreenTimeService) RecordUsage(ctx context.Context, childID uint, seconds int) error {
	if seconds <= 0 || seconds > maxRecordSeconds {
		return fmt.Errorf("%w: duration must be between 1 and %d seconds", apperrors.ErrValidation, maxRecordSeconds)
	}

	record := &entity.UsageRecord{
		ChildID:   childID,
		Duration:  seconds,
		UsageDate: s.now().UTC(),
	}
	if err := s.usageRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	metrics.UsageSecondsRecorded.Add(float64(seconds))
	return nil
}

// StartSession registers a watcher, checks the allowance and opens a tracked interval
// when the child may continue. Every StartSession must be paired with an EndSession.
func (s *ScreenTimeService) StartSession(ctx context.Context, childID uint) (TimeLimitStatus, error) {
	if _, err := s.sessionRepo.Join(ctx, childID); err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to register watcher")
	}

	status := s.CheckUserTimeLimit(ctx, childID)
	if status.IsExceeded {
		s.ForceLogout(ctx, childID, status, "login")
		return status, nil
	}

	// an untracked session only under-counts usage; the child is not locked out
	if err := s.sessionRepo.Start(ctx, childID, s.now()); err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to open tracked session")
	}
	return status, nil
}

// Heartbeat flushes the open interval into the ledger and re-checks the allowance
func (s *ScreenTimeService) Heartbeat(ctx context.Context, childID uint) (TimeLimitStatus, error) {
	if _, err := s.flush(ctx, childID, s.now()); err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to flush tracked usage")
	}

	status := s.CheckUserTimeLimit(ctx, childID)
	if status.IsExceeded {
		s.ForceLogout(ctx, childID, status, "watcher")
	}
	return status, nil
}

// EndSession unregisters a watcher and returns the flushed seconds.
// The interval stays open while other watchers of the child are connected.
func (s *ScreenTimeService) EndSession(ctx context.Context, childID uint) (int, error) {
	remaining, err := s.sessionRepo.Leave(ctx, childID)
	if err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to unregister watcher")
		remaining = 0
	}
	if remaining > 0 {
		return s.flush(ctx, childID, s.now())
	}
	return s.flush(ctx, childID, time.Time{})
}

// ForceLogout ends the tracked session of a child who exceeded the limit and alerts the parent.
// Signing out of the auth provider is done by the client after it receives the status.
func (s *ScreenTimeService) ForceLogout(ctx context.Context, childID uint, status TimeLimitStatus, source string) {
	if _, err := s.flush(ctx, childID, time.Time{}); err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to end tracked session")
	}

	metrics.ForcedLogouts.WithLabelValues(source).Inc()
	s.log.Info().
		Uint("child_id", childID).
		Str("source", source).
		Float64("used", status.TimeUsed).
		Msg("daily limit exceeded, forcing logout")

	if s.alerts != nil {
		s.alerts.LimitReached(ctx, childID, status)
	}
}

// flush moves the elapsed part of the open interval into screen_usage.
// next is the new interval start, or zero to close the interval.
func (s *ScreenTimeService) flush(ctx context.Context, childID uint, next time.Time) (int, error) {
	now := s.now()
	started, ok, err := s.sessionRepo.Take(ctx, childID, next)
	if err != nil {
		return 0, fmt.Errorf("take tracked session: %w", err)
	}
	if !ok {
		return 0, nil
	}

	// only today's part of an interval that crossed midnight counts
	dayStart, _ := entity.DayBounds(now)
	if started.Before(dayStart) {
		started = dayStart
	}

	seconds := int(now.Sub(started).Seconds())
	if seconds > maxFlushSeconds {
		seconds = maxFlushSeconds
	}
	if seconds <= 0 {
		return 0, nil
	}

	if err := s.RecordUsage(ctx, childID, seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

// UpdateTimeLimit stores a parent's new daily limit (0 = unlimited) and resets today's usage
func (s *ScreenTimeService) UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes int) error {
	if minutes < 0 || minutes > maxLimitMinutes {
		return fmt.Errorf("%w: time limit must be between 0 and %d minutes", apperrors.ErrValidation, maxLimitMinutes)
	}

	if err := s.relRepo.UpdateTimeLimit(ctx, parentID, childID, &minutes); err != nil {
		return fmt.Errorf("update time limit for child %d: %w", childID, err)
	}

	deleted, err := s.deleteToday(ctx, childID)
	if err != nil {
		return err
	}

	metrics.UsageRowsReset.WithLabelValues("parent").Add(float64(deleted))
	s.log.Info().
		Uint("parent_id", parentID).
		Uint("child_id", childID).
		Int("minutes", minutes).
		Int64("deleted", deleted).
		Msg("time limit updated")
	return nil
}

// ResetTodayUsage clears today's usage of a parent's child
func (s *ScreenTimeService) ResetTodayUsage(ctx context.Context, parentID, childID uint) (int64, error) {
	if _, err := s.relRepo.GetByParentAndChild(ctx, parentID, childID); err != nil {
		return 0, fmt.Errorf("child %d of parent %d: %w", childID, parentID, err)
	}

	deleted, err := s.deleteToday(ctx, childID)
	if err != nil {
		return 0, err
	}
	metrics.UsageRowsReset.WithLabelValues("parent").Add(float64(deleted))
	return deleted, nil
}

func (s *ScreenTimeService) deleteToday(ctx context.Context, childID uint) (int64, error) {
	start, end := entity.DayBounds(s.now())
	deleted, err := s.usageRepo.DeleteRange(ctx, childID, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete today's usage for child %d: %w", childID, err)
	}
	return deleted, nil
}

// ChildStatus returns the check result of a parent's child
func (s *ScreenTimeService) ChildStatus(ctx context.Context, parentID, childID uint) (TimeLimitStatus, error) {
	if _, err := s.relRepo.GetByParentAndChild(ctx, parentID, childID); err != nil {
		return TimeLimitStatus{}, fmt.Errorf("child %d of parent %d: %w", childID, parentID, err)
	}
	return s.CheckUserTimeLimit(ctx, childID), nil
}

// ChildOverview is one child of a parent with its current check result
type ChildOverview struct {
	ChildID uint            `json:"child_id"`
	Status  TimeLimitStatus `json:"status"`
}

// ListChildren returns every child of the parent with today's status
func (s *ScreenTimeService) ListChildren(ctx context.Context, parentID uint) ([]ChildOverview, error) {
	rels, err := s.relRepo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("children of parent %d: %w", parentID, err)
	}

	children := make([]ChildOverview, 0, len(rels))
	for _, rel := range rels {
		children = append(children, ChildOverview{
			ChildID: rel.ChildID,
			Status:  s.CheckUserTimeLimit(ctx, rel.ChildID),
		})
	}
	return children, nil
}

// UsageReport returns per-day usage of the last days (today included), zero-filled and oldest first
func (s *ScreenTimeService) UsageReport(ctx context.Context, parentID, childID uint, days int) ([]entity.DailyUsage, error) {
	if days < 1 || days > 31 {
		return nil, fmt.Errorf("%w: days must be between 1 and 31", apperrors.ErrValidation)
	}
	if _, err := s.relRepo.GetByParentAndChild(ctx, parentID, childID); err != nil {
		return nil, fmt.Errorf("child %d of parent %d: %w", childID, parentID, err)
	}

	todayStart, end := entity.DayBounds(s.now())
	from := todayStart.AddDate(0, 0, -(days - 1))

	totals, err := s.usageRepo.DailyTotals(ctx, childID, from, end)
	if err != nil {
		return nil, fmt.Errorf("daily totals for child %d: %w", childID, err)
	}

	byDay := make(map[string]int64, len(totals))
	for _, t := range totals {
		byDay[entity.ISODate(t.Day)] += t.Seconds
	}

	report := make([]entity.DailyUsage, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		report[i] = entity.DailyUsage{Day: day, Seconds: byDay[entity.ISODate(day)]}
	}
	return report, nil
}

// RolloverAll archives and deletes every usage row dated before today; run by the midnight job
func (s *ScreenTimeService) RolloverAll(ctx context.Context) (int64, error) {
	start, _ := entity.DayBounds(s.now())
	deleted, err := s.usageRepo.ArchiveAllBefore(ctx, start)
	if err != nil {
		return 0, fmt.Errorf("rollover: %w", err)
	}
	metrics.UsageRowsReset.WithLabelValues("rollover").Add(float64(deleted))
	return deleted, nil
}
