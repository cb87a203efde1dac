// Package source holds the shared plumbing for structured upstream APIs:
// bounded JSON GETs with per-call timeouts, optional pacing, and metrics.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/metrics"
)

const maxResponseSize = 4 << 20

// ErrNoResults is returned by search clients when the upstream answered but
// had nothing usable.
var ErrNoResults = errors.New("no results")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Source     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: HTTP %d from %s", e.Source, e.StatusCode, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Waiter paces outbound requests. ratelimit.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Options configures a Client.
type Options struct {
	// Name labels metrics and log lines, e.g. "mdn" or "github".
	Name       string
	Timeout    time.Duration
	Headers    http.Header
	HTTPClient *http.Client
	Waiter     Waiter
	Logger     *zap.Logger
}

// Client performs JSON GETs against one upstream.
type Client struct {
	name    string
	timeout time.Duration
	headers http.Header
	http    *http.Client
	waiter  Waiter
	logger  *zap.Logger
}

// NewClient builds a Client with defaults for unset options.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "source"
	}
	return &Client{
		name:    opts.Name,
		timeout: opts.Timeout,
		headers: opts.Headers.Clone(),
		http:    opts.HTTPClient,
		waiter:  opts.Waiter,
		logger:  opts.Logger.Named(opts.Name),
	}
}

// GetJSON issues a GET for u and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, u *url.URL, out any) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	target := u.String()
	if c.waiter != nil {
		if err := c.waiter.Wait(ctx, target); err != nil {
			return fmt.Errorf("%s rate limit: %w", c.name, err)
		}
	}

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ObserveSourceRequest(c.name, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("upstream returned non-2xx", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return &StatusError{
			Source:     c.name,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       snippet(body),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Endpoint joins base and path into a URL carrying query.
func Endpoint(base, path string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.RawQuery = query.Encode()
	return u, nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
