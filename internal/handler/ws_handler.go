package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/websocket"
)

// WSHandler upgrades a child's connection into a screen-time watcher
type WSHandler struct {
	tracker  websocket.SessionTracker
	interval time.Duration
	upgrader gorillaws.Upgrader
	appCtx   context.Context
}

// NewWSHandler creates a new WebSocket handler. Watchers stop when appCtx is cancelled.
func NewWSHandler(appCtx context.Context, tracker websocket.SessionTracker, interval time.Duration, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		tracker:  tracker,
		interval: interval,
		appCtx:   appCtx,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker allows non-browser clients (no Origin) and the configured web origins
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		log.Warn().Str("component", "ws").Str("origin", origin).Msg("rejected websocket origin")
		return false
	}
}

// ScreenTime handles GET /ws/screen-time
func (h *WSHandler) ScreenTime(c *gin.Context) {
	childID, ok := middleware.AccountID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		log.Warn().Err(err).Str("component", "ws").Uint("child_id", childID).Msg("websocket upgrade failed")
		return
	}

	websocket.NewWatcher(conn, childID, h.tracker, h.interval).Run(h.appCtx)
}
