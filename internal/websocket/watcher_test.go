package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreadability/coreadability-api/internal/service"
)

type fakeTracker struct {
	mu         sync.Mutex
	start      service.TimeLimitStatus
	beats      []service.TimeLimitStatus
	heartbeats int
	ended      chan uint
}

func newFakeTracker(start service.TimeLimitStatus, beats ...service.TimeLimitStatus) *fakeTracker {
	return &fakeTracker{start: start, beats: beats, ended: make(chan uint, 1)}
}

func (f *fakeTracker) StartSession(ctx context.Context, childID uint) (service.TimeLimitStatus, error) {
	return f.start, nil
}

func (f *fakeTracker) Heartbeat(ctx context.Context, childID uint) (service.TimeLimitStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.heartbeats
	f.heartbeats++
	if i >= len(f.beats) {
		return f.beats[len(f.beats)-1], nil
	}
	return f.beats[i], nil
}

func (f *fakeTracker) EndSession(ctx context.Context, childID uint) (int, error) {
	f.ended <- childID
	return 0, nil
}

func startWatcherServer(t *testing.T, ctx context.Context, tracker SessionTracker) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewWatcher(conn, 42, tracker, 20*time.Millisecond).Run(ctx)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWatcher_ClosesWhenLimitExceeded(t *testing.T) {
	limit := 30
	tracker := newFakeTracker(
		service.TimeLimitStatus{State: service.StateWithinLimit, TimeUsed: 29, TimeLimit: &limit},
		service.TimeLimitStatus{State: service.StateExceeded, IsExceeded: true, TimeUsed: 30.2, TimeLimit: &limit},
	)
	url := startWatcherServer(t, context.Background(), tracker)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, TypeStatus, readMessage(t, conn).Type)
	exceeded := readMessage(t, conn)
	assert.Equal(t, TypeExceeded, exceeded.Type)
	assert.Equal(t, "/", exceeded.Redirect)

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	select {
	case id := <-tracker.ended:
		assert.Equal(t, uint(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("session was not ended")
	}
}

func TestWatcher_ExceededOnConnect(t *testing.T) {
	tracker := newFakeTracker(service.TimeLimitStatus{State: service.StateExceeded, IsExceeded: true})
	url := startWatcherServer(t, context.Background(), tracker)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, TypeExceeded, readMessage(t, conn).Type)
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestWatcher_StopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unlimited := service.TimeLimitStatus{State: service.StateUnlimited}
	tracker := newFakeTracker(unlimited, unlimited)
	url := startWatcherServer(t, ctx, tracker)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, TypeStatus, readMessage(t, conn).Type)
	cancel()

	// heartbeats may still be in flight before the close frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err = conn.ReadMessage()
		if err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	select {
	case <-tracker.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not ended")
	}
}
