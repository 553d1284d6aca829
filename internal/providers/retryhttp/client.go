// Package retryhttp implements the retrying HTTP client described in
// spec component C: exponential backoff with full jitter, retrying on
// connection errors, timeouts, 5xx, and 429, and never on 2xx/3xx or
// other 4xx.
package retryhttp

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// Defaults match spec §4.C. Overridable via env (MAX_RETRIES,
// BASE_RETRY_DELAY, MAX_RETRY_DELAY, §6).
const (
	DefaultMaxRetries    = 3
	DefaultBaseDelay     = 1 * time.Second
	DefaultMaxDelay      = 16 * time.Second
	DefaultAttemptTimeout = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	UserAgent            = "flutter-mcp-server/1.0 (+https://pub.dev)"
)

// Client is a retrying, jittered HTTP GET client.
type Client struct {
	inner      *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries overrides the retry count.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithBaseDelay overrides the initial backoff delay.
func WithBaseDelay(d time.Duration) Option { return func(c *Client) { c.baseDelay = d } }

// WithMaxDelay overrides the backoff ceiling.
func WithMaxDelay(d time.Duration) Option { return func(c *Client) { c.maxDelay = d } }

// WithHTTPClient overrides the underlying *http.Client (for tests).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.inner = h } }

// New returns a Client with spec-default retry policy and a 30s
// per-attempt timeout, 10s connect timeout.
func New(opts ...Option) *Client {
	c := &Client{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		inner: &http.Client{
			Timeout: DefaultAttemptTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: DefaultConnectTimeout}).DialContext,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ core.HTTPFetcher = (*Client)(nil)

// Get performs the request, retrying on qualifying failures with
// exponential backoff and full jitter (uniform [0, base*2^n]).
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*core.HTTPResponse, error) {
	bo := &backoff.Backoff{
		Min:    c.baseDelay,
		Max:    c.maxDelay,
		Factor: 2,
		Jitter: false,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.attempt(ctx, url, headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		ce := core.AsError(err)
		if !retryable(ce) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		delay := time.Duration(rand.Int63n(int64(bo.Duration()) + 1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, core.NewError(core.ErrNetwork, "request cancelled during backoff").WithCause(ctx.Err())
		}
	}
	return nil, lastErr
}

func retryable(e *core.Error) bool {
	switch e.Kind {
	case core.ErrNetwork, core.ErrUpstreamServerError, core.ErrRateLimited:
		return true
	default:
		return false
	}
}

func (c *Client) attempt(ctx context.Context, url string, headers map[string]string) (*core.HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewError(core.ErrInvalidInput, "malformed request").WithCause(err)
	}
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, core.NewError(core.ErrNetwork, fmt.Sprintf("GET %s failed", url)).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewError(core.ErrNetwork, "reading response body").WithCause(err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return &core.HTTPResponse{Status: resp.StatusCode, Body: body}, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, core.NewError(core.ErrNotFound, fmt.Sprintf("%s: not found", url))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.NewError(core.ErrRateLimited, fmt.Sprintf("%s: rate limited", url))
	case resp.StatusCode >= 500:
		return nil, core.NewError(core.ErrUpstreamServerError, fmt.Sprintf("%s: upstream %d", url, resp.StatusCode))
	default:
		return nil, core.NewError(core.ErrNotFound, fmt.Sprintf("%s: unexpected status %d", url, resp.StatusCode))
	}
}
