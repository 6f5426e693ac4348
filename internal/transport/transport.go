// Package transport carries serialized messages to the bank endpoint. The
// dialog engine only depends on the Transport contract; retry and timeout
// policy live here, never in the protocol core.
package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Transport sends one serialized request message and returns the decoded
// response bytes. Implementations own timeout and bounded retry; the caller
// treats any returned error as fatal to the current attempt.
type Transport interface {
	Send(ctx context.Context, msg []byte) ([]byte, error)
}

var ErrBadStatus = errors.New("transport: bad HTTP status from bank endpoint")

// Config defines transport reliability behavior.
type Config struct {
	URL          string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	MaxRetryWait time.Duration
}

// DefaultConfig mirrors the reference deployment: 30s per attempt, three
// retries with exponential backoff starting at one second.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		MaxRetryWait: 30 * time.Second,
	}
}

// HTTP posts base64-encoded messages to a bank-supplied URL.
type HTTP struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewHTTP builds a transport from config. A disabled logger is the default.
func NewHTTP(cfg Config) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig(cfg.URL).Timeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig(cfg.URL).RetryDelay
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    zerolog.Nop(),
	}
}

// WithLogger returns the transport logging through l.
func (t *HTTP) WithLogger(l zerolog.Logger) *HTTP {
	t.log = l
	return t
}

// Send posts the message and returns the decoded response body. Failed
// attempts are retried up to MaxRetries times with the delay doubling per
// attempt; context cancellation aborts between attempts.
func (t *HTTP) Send(ctx context.Context, msg []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(msg)
	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(t.cfg.RetryDelay, t.cfg.MaxRetryWait, attempt)
			t.log.Debug().Int("attempt", attempt).Dur("delay", delay).
				Err(lastErr).Msg("transport retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		body, err := t.post(ctx, encoded)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("transport: request failed after %d attempts: %w",
		t.cfg.MaxRetries+1, lastErr)
}

func (t *HTTP) post(ctx context.Context, encoded string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL,
		bytes.NewBufferString(encoded))
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return nil, fmt.Errorf("transport: response is not valid base64: %w", err)
	}
	return decoded, nil
}

// backoffDelay returns the wait before retry attempt N (1-based), doubling
// per attempt and capped at max.
func backoffDelay(initial, max time.Duration, attempt int) time.Duration {
	delay := initial << (attempt - 1)
	if max > 0 && delay > max {
		return max
	}
	return delay
}
