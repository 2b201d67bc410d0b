package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coreadability/coreadability-api/internal/handler/dto"
	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/service"
)

// ScreenTimeService is the part of the screen-time limiter used by the child endpoints
type ScreenTimeService interface {
	CheckUserTimeLimit(ctx context.Context, childID uint) service.TimeLimitStatus
	StartSession(ctx context.Context, childID uint) (service.TimeLimitStatus, error)
	Heartbeat(ctx context.Context, childID uint) (service.TimeLimitStatus, error)
	EndSession(ctx context.Context, childID uint) (int, error)
}

// ScreenTimeHandler serves the child's screen-time endpoints
type ScreenTimeHandler struct {
	screen ScreenTimeService
}

// NewScreenTimeHandler creates a new screen-time handler
func NewScreenTimeHandler(screen ScreenTimeService) *ScreenTimeHandler {
	return &ScreenTimeHandler{screen: screen}
}

type statusResponse struct {
	service.TimeLimitStatus
	ForceLogout bool `json:"force_logout"`
}

func newStatusResponse(s service.TimeLimitStatus) statusResponse {
	return statusResponse{TimeLimitStatus: s, ForceLogout: s.IsExceeded}
}

// Status handles GET /api/screen-time/status
func (h *ScreenTimeHandler) Status(c *gin.Context) {
	childID, _ := middleware.AccountID(c)
	c.JSON(http.StatusOK, newStatusResponse(h.screen.CheckUserTimeLimit(c.Request.Context(), childID)))
}

// StartSession handles POST /api/screen-time/session/start.
// An exceeded child gets force_logout=true and no session is opened.
func (h *ScreenTimeHandler) StartSession(c *gin.Context) {
	childID, _ := middleware.AccountID(c)
	status, err := h.screen.StartSession(c.Request.Context(), childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(status))
}

// Heartbeat handles POST /api/screen-time/session/heartbeat
func (h *ScreenTimeHandler) Heartbeat(c *gin.Context) {
	childID, _ := middleware.AccountID(c)
	status, err := h.screen.Heartbeat(c.Request.Context(), childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(status))
}

// EndSession handles POST /api/screen-time/session/end
func (h *ScreenTimeHandler) EndSession(c *gin.Context) {
	childID, _ := middleware.AccountID(c)
	seconds, err := h.screen.EndSession(c.Request.Context(), childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EndSessionResponse{FlushedSeconds: seconds})
}
