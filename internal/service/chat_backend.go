package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/coreadability/coreadability-api/internal/metrics"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

// ChatAnswer is what the chat backend returns: a text answer or content lists
type ChatAnswer struct {
	Answer string            `json:"answer,omitempty"`
	Books  []json.RawMessage `json:"books,omitempty"`
	Videos []json.RawMessage `json:"videos,omitempty"`
}

// ChatBackend asks the hosted chat service a question on behalf of a child
type ChatBackend interface {
	Ask(ctx context.Context, childID uint, question string) (*ChatAnswer, error)
}

type chatRequest struct {
	Question  string `json:"question"`
	UAIDChild uint   `json:"uaid_child"`
}

// ChatBackendOptions configures HTTPChatBackend
type ChatBackendOptions struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// HTTPChatBackend calls POST <base>/api/chat through a circuit breaker
type HTTPChatBackend struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[*ChatAnswer]
	log      zerolog.Logger
}

// NewHTTPChatBackend creates the chat backend client
func NewHTTPChatBackend(opts ChatBackendOptions) (*HTTPChatBackend, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("chat backend base url is required")
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}

	b := &HTTPChatBackend{
		endpoint: base + "/api/chat",
		client:   &http.Client{Timeout: opts.Timeout},
		log:      logger.Component("chat_backend"),
	}

	b.cb = gobreaker.NewCircuitBreaker[*ChatAnswer](gobreaker.Settings{
		Name:        "chat-backend",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("chat backend breaker state change")
		},
	})
	return b, nil
}

// Ask implements ChatBackend. Any failure is reported as apperrors.ErrUnavailable.
func (b *HTTPChatBackend) Ask(ctx context.Context, childID uint, question string) (*ChatAnswer, error) {
	answer, err := b.cb.Execute(func() (*ChatAnswer, error) {
		return b.post(ctx, chatRequest{Question: question, UAIDChild: childID})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ChatBackendRequests.WithLabelValues("breaker_open").Inc()
		} else {
			metrics.ChatBackendRequests.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("%w: chat backend: %v", apperrors.ErrUnavailable, err)
	}

	metrics.ChatBackendRequests.WithLabelValues("ok").Inc()
	return answer, nil
}

func (b *HTTPChatBackend) post(ctx context.Context, payload chatRequest) (*ChatAnswer, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var answer ChatAnswer
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return &answer, nil
}

// UnavailableChatBackend is used when no chat backend is configured
type UnavailableChatBackend struct{}

func (UnavailableChatBackend) Ask(ctx context.Context, childID uint, question string) (*ChatAnswer, error) {
	return nil, fmt.Errorf("%w: chat backend is not configured", apperrors.ErrUnavailable)
}
