package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

const alertDedupTTL = 26 * time.Hour

// ParentAlertService emails a parent the first time each day a child exceeds the limit
type ParentAlertService struct {
	relRepo     repository.ParentChildRepository
	accountRepo repository.UserAccountRepository
	sentLog     repository.NotificationLogRepository
	email       EmailService

	sendTimeout time.Duration
	async       bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewParentAlertService creates the alerter; sends happen in the background
func NewParentAlertService(
	relRepo repository.ParentChildRepository,
	accountRepo repository.UserAccountRepository,
	sentLog repository.NotificationLogRepository,
	email EmailService,
) *ParentAlertService {
	return &ParentAlertService{
		relRepo:     relRepo,
		accountRepo: accountRepo,
		sentLog:     sentLog,
		email:       email,
		sendTimeout: 20 * time.Second,
		async:       true,
		now:         time.Now,
		log:         logger.Component("parent_alert"),
	}
}

// LimitReached implements LimitAlerter
func (s *ParentAlertService) LimitReached(ctx context.Context, childID uint, status TimeLimitStatus) {
	if s.async {
		go s.notify(context.WithoutCancel(ctx), childID, status)
		return
	}
	s.notify(ctx, childID, status)
}

func (s *ParentAlertService) notify(ctx context.Context, childID uint, status TimeLimitStatus) {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.send(ctx, childID, status); err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to alert parent")
	}
}

func (s *ParentAlertService) send(ctx context.Context, childID uint, status TimeLimitStatus) error {
	rel, err := s.relRepo.GetByChildID(ctx, childID)
	if err != nil {
		return fmt.Errorf("relationship: %w", err)
	}
	parent, err := s.accountRepo.GetByID(ctx, rel.ParentID)
	if err != nil {
		return fmt.Errorf("parent account: %w", err)
	}
	if parent.Email == "" {
		return nil
	}
	child, err := s.accountRepo.GetByID(ctx, childID)
	if err != nil {
		return fmt.Errorf("child account: %w", err)
	}

	day := entity.ISODate(s.now())
	key := fmt.Sprintf("limit_reached:%d:%s", childID, day)
	first, err := s.sentLog.MarkSent(ctx, key, alertDedupTTL)
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if !first {
		return nil
	}

	limit := 0
	if status.TimeLimit != nil {
		limit = *status.TimeLimit
	}
	msg := LimitReachedEmail{
		To:           parent.Email,
		ParentName:   displayName(parent),
		ChildName:    displayName(child),
		MinutesUsed:  status.TimeUsed,
		LimitMinutes: limit,
		Day:          day,
	}
	if err := s.email.SendLimitReached(ctx, msg, key); err != nil {
		// free the key so the next limit check can try again
		if unmarkErr := s.sentLog.Unmark(context.WithoutCancel(ctx), key); unmarkErr != nil {
			s.log.Warn().Err(unmarkErr).Str("key", key).Msg("failed to release notification key")
		}
		return err
	}

	s.log.Info().Uint("child_id", childID).Uint("parent_id", parent.ID).Msg("parent alerted")
	return nil
}

func displayName(u *entity.UserAccount) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
