package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// MockParentChildRepository implements repository.ParentChildRepository
type MockParentChildRepository struct {
	mock.Mock
}

func (m *MockParentChildRepository) GetByChildID(ctx context.Context, childID uint) (*entity.ParentChildRelationship, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ParentChildRelationship), args.Error(1)
}

func (m *MockParentChildRepository) GetByParentAndChild(ctx context.Context, parentID, childID uint) (*entity.ParentChildRelationship, error) {
	args := m.Called(ctx, parentID, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ParentChildRelationship), args.Error(1)
}

func (m *MockParentChildRepository) ListByParent(ctx context.Context, parentID uint) ([]entity.ParentChildRelationship, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ParentChildRelationship), args.Error(1)
}

func (m *MockParentChildRepository) UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes *int) error {
	return m.Called(ctx, parentID, childID, minutes).Error(0)
}

// MockScreenUsageRepository implements repository.ScreenUsageRepository
type MockScreenUsageRepository struct {
	mock.Mock
}

func (m *MockScreenUsageRepository) Create(ctx context.Context, record *entity.UsageRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockScreenUsageRepository) SumDuration(ctx context.Context, childID uint, from, to time.Time) (int64, error) {
	args := m.Called(ctx, childID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScreenUsageRepository) DeleteRange(ctx context.Context, childID uint, from, to time.Time) (int64, error) {
	args := m.Called(ctx, childID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScreenUsageRepository) ArchiveBefore(ctx context.Context, childID uint, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, childID, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScreenUsageRepository) ArchiveAllBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScreenUsageRepository) DailyTotals(ctx context.Context, childID uint, from, to time.Time) ([]entity.DailyUsage, error) {
	args := m.Called(ctx, childID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyUsage), args.Error(1)
}

// MockDayMarkerRepository implements repository.DayMarkerRepository
type MockDayMarkerRepository struct {
	mock.Mock
}

func (m *MockDayMarkerRepository) GetLastSeenDay(ctx context.Context, childID uint) (string, error) {
	args := m.Called(ctx, childID)
	return args.String(0), args.Error(1)
}

func (m *MockDayMarkerRepository) SetLastSeenDay(ctx context.Context, childID uint, day string) error {
	return m.Called(ctx, childID, day).Error(0)
}

// MockTrackedSessionRepository implements repository.TrackedSessionRepository
type MockTrackedSessionRepository struct {
	mock.Mock
}

func (m *MockTrackedSessionRepository) Join(ctx context.Context, childID uint) (int64, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTrackedSessionRepository) Leave(ctx context.Context, childID uint) (int64, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTrackedSessionRepository) Start(ctx context.Context, childID uint, at time.Time) error {
	return m.Called(ctx, childID, at).Error(0)
}

func (m *MockTrackedSessionRepository) Take(ctx context.Context, childID uint, next time.Time) (time.Time, bool, error) {
	args := m.Called(ctx, childID, next)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

// MockNotificationLogRepository implements repository.NotificationLogRepository
type MockNotificationLogRepository struct {
	mock.Mock
}

func (m *MockNotificationLogRepository) MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationLogRepository) Unmark(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockUserAccountRepository implements repository.UserAccountRepository
type MockUserAccountRepository struct {
	mock.Mock
}

func (m *MockUserAccountRepository) GetByID(ctx context.Context, id uint) (*entity.UserAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserAccount), args.Error(1)
}

func (m *MockUserAccountRepository) GetByAuthUID(ctx context.Context, authUID string) (*entity.UserAccount, error) {
	args := m.Called(ctx, authUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserAccount), args.Error(1)
}

// MockEmailService implements EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendLimitReached(ctx context.Context, msg LimitReachedEmail, idempotencyKey string) error {
	return m.Called(ctx, msg, idempotencyKey).Error(0)
}

// recordingAlerter captures LimitReached calls
type recordingAlerter struct {
	mu    sync.Mutex
	calls []uint
}

func (a *recordingAlerter) LimitReached(ctx context.Context, childID uint, status TimeLimitStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, childID)
}

func intPtr(v int) *int { return &v }
