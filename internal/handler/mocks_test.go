package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/service"
	"github.com/coreadability/coreadability-api/internal/service/recommend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asAccount stands in for RequireAuth in handler tests
func asAccount(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextAccountID, id)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

type MockScreenTimeService struct {
	mock.Mock
}

func (m *MockScreenTimeService) CheckUserTimeLimit(ctx context.Context, childID uint) service.TimeLimitStatus {
	args := m.Called(ctx, childID)
	return args.Get(0).(service.TimeLimitStatus)
}

func (m *MockScreenTimeService) StartSession(ctx context.Context, childID uint) (service.TimeLimitStatus, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(service.TimeLimitStatus), args.Error(1)
}

func (m *MockScreenTimeService) Heartbeat(ctx context.Context, childID uint) (service.TimeLimitStatus, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(service.TimeLimitStatus), args.Error(1)
}

func (m *MockScreenTimeService) EndSession(ctx context.Context, childID uint) (int, error) {
	args := m.Called(ctx, childID)
	return args.Int(0), args.Error(1)
}

type MockParentControls struct {
	mock.Mock
}

func (m *MockParentControls) ListChildren(ctx context.Context, parentID uint) ([]service.ChildOverview, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ChildOverview), args.Error(1)
}

func (m *MockParentControls) UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes int) error {
	return m.Called(ctx, parentID, childID, minutes).Error(0)
}

func (m *MockParentControls) ResetTodayUsage(ctx context.Context, parentID, childID uint) (int64, error) {
	args := m.Called(ctx, parentID, childID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParentControls) ChildStatus(ctx context.Context, parentID, childID uint) (service.TimeLimitStatus, error) {
	args := m.Called(ctx, parentID, childID)
	return args.Get(0).(service.TimeLimitStatus), args.Error(1)
}

func (m *MockParentControls) UsageReport(ctx context.Context, parentID, childID uint, days int) ([]entity.DailyUsage, error) {
	args := m.Called(ctx, parentID, childID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyUsage), args.Error(1)
}

type MockGenreBlocker struct {
	mock.Mock
}

func (m *MockGenreBlocker) ListBlockedGenres(ctx context.Context, parentID, childID uint) ([]entity.Genre, error) {
	args := m.Called(ctx, parentID, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Genre), args.Error(1)
}

func (m *MockGenreBlocker) BlockGenre(ctx context.Context, parentID, childID, genreID uint) error {
	return m.Called(ctx, parentID, childID, genreID).Error(0)
}

func (m *MockGenreBlocker) UnblockGenre(ctx context.Context, parentID, childID, genreID uint) error {
	return m.Called(ctx, parentID, childID, genreID).Error(0)
}

type MockGenreCatalog struct {
	mock.Mock
}

func (m *MockGenreCatalog) ListGenres(ctx context.Context, childID uint) ([]entity.Genre, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Genre), args.Error(1)
}

func (m *MockGenreCatalog) GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGenreCatalog) SetFavoriteGenres(ctx context.Context, childID uint, names []string) ([]string, error) {
	args := m.Called(ctx, childID, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGenreCatalog) GetRandomGenres(ctx context.Context, childID uint, count int, excluded []string) []string {
	args := m.Called(ctx, childID, count, excluded)
	return args.Get(0).([]string)
}

type MockTurnProcessor struct {
	mock.Mock
}

func (m *MockTurnProcessor) Turn(ctx context.Context, childID uint, sessionID, message, lastBotMessage string) (string, recommend.TurnResult, error) {
	args := m.Called(ctx, childID, sessionID, message, lastBotMessage)
	return args.String(0), args.Get(1).(recommend.TurnResult), args.Error(2)
}

func (m *MockTurnProcessor) SelectGenre(ctx context.Context, childID uint, sessionID string) (string, error) {
	args := m.Called(ctx, childID, sessionID)
	return args.String(0), args.Error(1)
}

type MockChatAsker struct {
	mock.Mock
}

func (m *MockChatAsker) Ask(ctx context.Context, childID uint, sessionID, question, lastBotMessage string) (*service.ChatReply, error) {
	args := m.Called(ctx, childID, sessionID, question, lastBotMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatReply), args.Error(1)
}

func intPtr(v int) *int { return &v }
