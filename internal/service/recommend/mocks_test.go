package recommend

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// MockGenreRepository implements repository.GenreRepository
type MockGenreRepository struct {
	mock.Mock
}

func (m *MockGenreRepository) List(ctx context.Context) ([]entity.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Genre), args.Error(1)
}

func (m *MockGenreRepository) GetByID(ctx context.Context, id uint) (*entity.Genre, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Genre), args.Error(1)
}

// MockBlockedGenreRepository implements repository.BlockedGenreRepository
type MockBlockedGenreRepository struct {
	mock.Mock
}

func (m *MockBlockedGenreRepository) ListIDs(ctx context.Context, childID uint) ([]uint, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockBlockedGenreRepository) Block(ctx context.Context, childID, genreID uint) error {
	return m.Called(ctx, childID, genreID).Error(0)
}

func (m *MockBlockedGenreRepository) Unblock(ctx context.Context, childID, genreID uint) error {
	return m.Called(ctx, childID, genreID).Error(0)
}

// MockChildDetailsRepository implements repository.ChildDetailsRepository
type MockChildDetailsRepository struct {
	mock.Mock
}

func (m *MockChildDetailsRepository) GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChildDetailsRepository) SaveFavoriteGenres(ctx context.Context, childID uint, names []string) error {
	return m.Called(ctx, childID, names).Error(0)
}

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

// MockCacheRepository implements repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCacheRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *MockCacheRepository) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}
