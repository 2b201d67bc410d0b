// Package websocket pushes in-session screen-time checks to a connected child.
package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/internal/metrics"
	"github.com/coreadability/coreadability-api/internal/service"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// SessionTracker is the part of the screen-time service a watcher drives
type SessionTracker interface {
	StartSession(ctx context.Context, childID uint) (service.TimeLimitStatus, error)
	Heartbeat(ctx context.Context, childID uint) (service.TimeLimitStatus, error)
	EndSession(ctx context.Context, childID uint) (int, error)
}

// Watcher re-checks one child's allowance on an interval while the socket is open
type Watcher struct {
	conn     *websocket.Conn
	childID  uint
	tracker  SessionTracker
	interval time.Duration
	log      zerolog.Logger
}

// NewWatcher creates a watcher for an upgraded connection
func NewWatcher(conn *websocket.Conn, childID uint, tracker SessionTracker, interval time.Duration) *Watcher {
	return &Watcher{
		conn:     conn,
		childID:  childID,
		tracker:  tracker,
		interval: interval,
		log:      logger.Component("ws_watcher").With().Uint("child_id", childID).Logger(),
	}
}

// Run blocks until the client disconnects, the limit is exceeded or ctx is done.
// The tracked session is opened on entry and flushed on exit.
func (w *Watcher) Run(ctx context.Context) {
	metrics.ActiveWatchers.Inc()
	defer metrics.ActiveWatchers.Dec()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		endCtx, endCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer endCancel()
		if _, err := w.tracker.EndSession(endCtx, w.childID); err != nil {
			w.log.Error().Err(err).Msg("failed to end tracked session")
		}
		w.conn.Close()
	}()

	go w.readPump(cancel)

	status, err := w.tracker.StartSession(ctx, w.childID)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to start tracked session")
	}
	if !w.push(status) {
		return
	}

	poll := time.NewTicker(w.interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			w.close(websocket.CloseGoingAway, "server shutting down")
			return
		case <-poll.C:
			status, err := w.tracker.Heartbeat(ctx, w.childID)
			if err != nil {
				w.log.Error().Err(err).Msg("heartbeat failed")
				continue
			}
			if !w.push(status) {
				return
			}
		case <-ping.C:
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				w.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

// push sends the status and reports whether the watcher should keep running
func (w *Watcher) push(status service.TimeLimitStatus) bool {
	msg := Message{Type: TypeStatus, Data: status}
	if status.IsExceeded {
		msg.Type = TypeExceeded
		msg.Redirect = exceededRedirect
	}
	if err := w.write(msg); err != nil {
		w.log.Debug().Err(err).Msg("write failed")
		return false
	}
	if status.IsExceeded {
		w.log.Info().Float64("used", status.TimeUsed).Msg("limit exceeded, closing watcher")
		w.close(websocket.ClosePolicyViolation, "daily limit reached")
		return false
	}
	return true
}

func (w *Watcher) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *Watcher) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readPump only handles pongs and close frames; the client sends nothing else
func (w *Watcher) readPump(cancel context.CancelFunc) {
	defer cancel()

	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
	}
}
