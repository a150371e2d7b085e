package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-medicine-lookup/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxResponseBytes caps how much of an upstream body is buffered.
const maxResponseBytes = 8 << 20

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("upstream status %d", e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client performs JSON and form requests against third-party APIs. Every call
// is bounded by the timeout passed with it.
type Client struct {
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	userAgent   string
}

type Option func(*Client)

// WithMaxAttempts sets how many times an idempotent GET is tried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between GET attempts; attempt n waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithHTTPClient replaces the underlying client, e.g. with an httptest one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates an upstream client with the given options
func NewClient(opts ...Option) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 16 << 10,
	}

	c := &Client{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxAttempts: 2,
		backoff:     500 * time.Millisecond,
		userAgent:   "Go-Medicine-Lookup/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues GET rawURL?query and decodes the body into out. 5xx and
// transport errors are retried; 4xx never are.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, headers map[string]string, timeout time.Duration, out any) error {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
		}

		raw, err := c.do(ctx, http.MethodGet, rawURL, nil, "", headers, timeout)
		if err == nil {
			return decode(raw, out)
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return lastErr
}

// PostJSON sends body as JSON exactly once and decodes the reply into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, headers map[string]string, timeout time.Duration, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, rawURL, bs, "application/json", headers, timeout)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// PostForm sends form url-encoded exactly once and decodes the reply into out.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string, timeout time.Duration, out any) error {
	raw, err := c.do(ctx, http.MethodPost, rawURL, []byte(form.Encode()), "application/x-www-form-urlencoded", headers, timeout)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	reqID := uuid.New().String()
	start := time.Now()
	log := logger.WithFields(logrus.Fields{
		"req_id": reqID,
		"method": method,
		"host":   req.URL.Host,
		"path":   req.URL.Path,
	})
	log.Debug("Upstream request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Debug("Upstream request failed")
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"bytes":      len(raw),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Upstream response")

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(raw)}
	}
	return raw, nil
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

func decode(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
