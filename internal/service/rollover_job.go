package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/pkg/logger"
)

// RolloverJob clears the previous day's usage at UTC midnight.
// The per-child reset in CheckAndResetDailyUsage still covers children
// who were active while the job was not running.
type RolloverJob struct {
	cron    *cron.Cron
	screen  *ScreenTimeService
	timeout time.Duration
	log     zerolog.Logger
}

// NewRolloverJob schedules RolloverAll using a standard 5-field cron spec evaluated in UTC
func NewRolloverJob(spec string, screen *ScreenTimeService) (*RolloverJob, error) {
	j := &RolloverJob{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		screen:  screen,
		timeout: 2 * time.Minute,
		log:     logger.Component("rollover"),
	}
	if _, err := j.cron.AddFunc(spec, j.Run); err != nil {
		return nil, fmt.Errorf("invalid rollover spec %q: %w", spec, err)
	}
	return j, nil
}

// Start runs the scheduler in its own goroutine
func (j *RolloverJob) Start() {
	j.cron.Start()
	j.log.Info().Msg("rollover job started")
}

// Stop waits for a running rollover to finish
func (j *RolloverJob) Stop() {
	<-j.cron.Stop().Done()
}

// Run performs one rollover
func (j *RolloverJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.screen.RolloverAll(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("rollover failed")
		return
	}
	j.log.Info().Int64("deleted", deleted).Msg("rollover complete")
}
