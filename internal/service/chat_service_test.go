package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/internal/service/recommend"
)

// in-memory stand-ins for the genre repositories
type stubGenres struct{ list []entity.Genre }

func (s stubGenres) List(ctx context.Context) ([]entity.Genre, error) { return s.list, nil }
func (s stubGenres) GetByID(ctx context.Context, id uint) (*entity.Genre, error) {
	for i := range s.list {
		if s.list[i].ID == id {
			return &s.list[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type stubBlocked struct{}

func (stubBlocked) ListIDs(ctx context.Context, childID uint) ([]uint, error) { return nil, nil }
func (stubBlocked) Block(ctx context.Context, childID, genreID uint) error    { return nil }
func (stubBlocked) Unblock(ctx context.Context, childID, genreID uint) error  { return nil }

type stubDetails struct{ favorites []string }

func (s stubDetails) GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error) {
	return s.favorites, nil
}
func (s stubDetails) SaveFavoriteGenres(ctx context.Context, childID uint, names []string) error {
	return nil
}

type missCache struct{}

func (missCache) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return nil
}
func (missCache) Get(ctx context.Context, key string) (string, error) { return "", apperrors.ErrNotFound }
func (missCache) Delete(ctx context.Context, key string) error      { return nil }
func (missCache) SetJSON(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return nil
}
func (missCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return apperrors.ErrNotFound
}
func (missCache) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	return true, nil
}

// MockSessionStateRepository implements repository.SessionStateRepository
type MockSessionStateRepository struct {
	mock.Mock
}

func (m *MockSessionStateRepository) Load(ctx context.Context, childID uint, sessionID string) (entity.UncertaintyState, error) {
	args := m.Called(ctx, childID, sessionID)
	return args.Get(0).(entity.UncertaintyState), args.Error(1)
}

func (m *MockSessionStateRepository) Save(ctx context.Context, childID uint, sessionID string, state entity.UncertaintyState) error {
	return m.Called(ctx, childID, sessionID, state).Error(0)
}

// MockChatBackend implements ChatBackend
type MockChatBackend struct {
	mock.Mock
}

func (m *MockChatBackend) Ask(ctx context.Context, childID uint, question string) (*ChatAnswer, error) {
	args := m.Called(ctx, childID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChatAnswer), args.Error(1)
}

func newTestRecommender() *recommend.Service {
	genres := stubGenres{list: []entity.Genre{{ID: 1, Name: "Fantasy"}, {ID: 2, Name: "Mystery"}, {ID: 3, Name: "Comics"}}}
	return recommend.NewService(genres, stubBlocked{}, stubDetails{favorites: []string{"Fantasy"}}, nil, missCache{},
		recommend.Options{UncertaintyThreshold: 2, RandomGenreCount: 3})
}

func TestChatService_UncertainTurnAnswersLocally(t *testing.T) {
	states := new(MockSessionStateRepository)
	backend := new(MockChatBackend)
	svc := NewChatService(newTestRecommender(), states, backend, 100)

	states.On("Load", mock.Anything, uint(42), "s1").Return(entity.UncertaintyState{Count: 1}, nil)
	states.On("Save", mock.Anything, uint(42), "s1", mock.MatchedBy(func(st entity.UncertaintyState) bool {
		return st.Count == 2
	})).Return(nil)

	reply, err := svc.Ask(context.Background(), 42, "s1", "I'm not sure what I want", "")
	require.NoError(t, err)
	require.NotNil(t, reply.Genres)
	assert.Nil(t, reply.Answer)
	assert.Equal(t, []string{"Fantasy"}, reply.Genres.Favorites)
	assert.ElementsMatch(t, []string{"Mystery", "Comics"}, reply.Genres.Random)
	backend.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_PlainQuestionGoesToBackend(t *testing.T) {
	states := new(MockSessionStateRepository)
	backend := new(MockChatBackend)
	svc := NewChatService(newTestRecommender(), states, backend, 100)

	states.On("Load", mock.Anything, uint(42), mock.Anything).Return(entity.UncertaintyState{Count: 3}, nil)
	states.On("Save", mock.Anything, uint(42), mock.Anything, mock.MatchedBy(func(st entity.UncertaintyState) bool {
		return st.Count == 0
	})).Return(nil)
	backend.On("Ask", mock.Anything, uint(42), "books about dragons").Return(&ChatAnswer{Answer: "Try these!"}, nil)

	reply, err := svc.Ask(context.Background(), 42, "", "  books about dragons ", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID, "a session id is issued when missing")
	require.NotNil(t, reply.Answer)
	assert.Equal(t, "Try these!", reply.Answer.Answer)
}

func TestChatService_BackendUnavailable(t *testing.T) {
	states := new(MockSessionStateRepository)
	backend := new(MockChatBackend)
	svc := NewChatService(newTestRecommender(), states, backend, 100)

	states.On("Load", mock.Anything, uint(42), "s1").Return(entity.UncertaintyState{}, nil)
	states.On("Save", mock.Anything, uint(42), "s1", mock.Anything).Return(nil)
	backend.On("Ask", mock.Anything, uint(42), mock.Anything).Return(nil, apperrors.ErrUnavailable)

	_, err := svc.Ask(context.Background(), 42, "s1", "books about dragons", "")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestChatService_Validation(t *testing.T) {
	svc := NewChatService(newTestRecommender(), new(MockSessionStateRepository), new(MockChatBackend), 10)

	_, err := svc.Ask(context.Background(), 42, "s1", "   ", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Ask(context.Background(), 42, "s1", strings.Repeat("a", 11), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestChatService_SelectGenreResets(t *testing.T) {
	states := new(MockSessionStateRepository)
	svc := NewChatService(newTestRecommender(), states, new(MockChatBackend), 100)

	states.On("Load", mock.Anything, uint(42), "s1").Return(entity.UncertaintyState{Count: 4}, nil)
	states.On("Save", mock.Anything, uint(42), "s1", mock.MatchedBy(func(st entity.UncertaintyState) bool {
		return st.Count == 0 && !st.LastReset.IsZero()
	})).Return(nil)

	_, err := svc.SelectGenre(context.Background(), 42, "s1")
	require.NoError(t, err)
	states.AssertExpectations(t)
}

func TestHTTPChatBackend_Ask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint(42), req.UAIDChild)
		assert.Equal(t, "dragons", req.Question)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books":[{"title":"Dragon Rider"}]}`))
	}))
	defer srv.Close()

	backend, err := NewHTTPChatBackend(ChatBackendOptions{BaseURL: srv.URL + "/", Timeout: time.Second, BreakerTimeout: time.Second})
	require.NoError(t, err)

	answer, err := backend.Ask(context.Background(), 42, "dragons")
	require.NoError(t, err)
	require.Len(t, answer.Books, 1)
	assert.JSONEq(t, `{"title":"Dragon Rider"}`, string(answer.Books[0]))
}

func TestHTTPChatBackend_BreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	backend, err := NewHTTPChatBackend(ChatBackendOptions{BaseURL: srv.URL, Timeout: time.Second, BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := backend.Ask(context.Background(), 42, "dragons")
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	}
	assert.Equal(t, 2, calls, "open breaker stops calling the backend")
}

func TestUnavailableChatBackend(t *testing.T) {
	_, err := UnavailableChatBackend{}.Ask(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
