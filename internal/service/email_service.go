package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/pkg/logger"
)

// LimitReachedEmail is the content of a "daily limit reached" notification
type LimitReachedEmail struct {
	To           string
	ParentName   string
	ChildName    string
	MinutesUsed  float64
	LimitMinutes int
	Day          string
}

// EmailService sends parent notifications
type EmailService interface {
	SendLimitReached(ctx context.Context, msg LimitReachedEmail, idempotencyKey string) error
}

// NoopEmailService only logs; used when Resend is not configured
type NoopEmailService struct {
	log zerolog.Logger
}

func NewNoopEmailService() *NoopEmailService {
	return &NoopEmailService{log: logger.Component("email")}
}

func (s *NoopEmailService) SendLimitReached(ctx context.Context, msg LimitReachedEmail, idempotencyKey string) error {
	s.log.Debug().
		Str("to", msg.To).
		Str("child", msg.ChildName).
		Str("key", idempotencyKey).
		Msg("email disabled, limit reached notice not sent")
	return nil
}

const (
	sendAttempts = 3
	maxSendWait  = 30 * time.Second
)

var (
	limitTextTmpl = template.Must(template.New("text").Parse(
		"Hi {{.ParentName}}, {{.ChildName}} used {{printf \"%.0f\" .MinutesUsed}} of {{.LimitMinutes}} minutes on {{.Day}} " +
			"and has been signed out. The limit resets at midnight UTC."))
	limitHTMLTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(
		"<p>Hi {{.ParentName}},</p><p><strong>{{.ChildName}}</strong> used {{printf \"%.0f\" .MinutesUsed}} of " +
			"{{.LimitMinutes}} minutes on {{.Day}} and has been signed out.</p><p>The limit resets at midnight UTC.</p>"))
)

// ResendEmailService delivers notifications through Resend
type ResendEmailService struct {
	from   string
	client *resend.Client
	log    zerolog.Logger
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	switch {
	case apiKey == "":
		return nil, fmt.Errorf("resend api key is required")
	case from == "":
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
		log:    logger.Component("email"),
	}, nil
}

// SendLimitReached renders and sends the notice. Rate limits and timeouts are retried;
// the idempotency key keeps retries from producing duplicates on Resend's side.
func (s *ResendEmailService) SendLimitReached(ctx context.Context, msg LimitReachedEmail, idempotencyKey string) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	text, html, err := renderLimitReached(msg)
	if err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: fmt.Sprintf("%s reached today's reading time", msg.ChildName),
		Text:    text,
		Html:    html,
	}
	opts := &resend.SendEmailOptions{IdempotencyKey: strings.TrimSpace(idempotencyKey)}

	for attempt := 0; ; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, req, opts)
		if err == nil {
			return nil
		}

		wait, retry := retryAfter(err, attempt)
		if !retry || attempt+1 >= sendAttempts {
			return fmt.Errorf("resend send failed after %d attempt(s): %w", attempt+1, err)
		}
		s.log.Warn().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying email")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func renderLimitReached(msg LimitReachedEmail) (string, string, error) {
	var text, html bytes.Buffer
	if err := limitTextTmpl.Execute(&text, msg); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := limitHTMLTmpl.Execute(&html, msg); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return text.String(), html.String(), nil
}

// retryAfter decides whether a failed send is worth another attempt and how long to wait
func retryAfter(err error, attempt int) (time.Duration, bool) {
	backoff := time.Duration(attempt+1) * 500 * time.Millisecond

	var rle *resend.RateLimitError
	if errors.As(err, &rle) {
		if secs, convErr := strconv.Atoi(strings.TrimSpace(rle.RetryAfter)); convErr == nil && secs > 0 {
			return min(time.Duration(secs)*time.Second, maxSendWait), true
		}
		return 2 * backoff, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoff, true
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "temporar") {
		return backoff, true
	}
	return 0, false
}
