// Package jenkins implements a resilient client for the Jenkins REST API:
// authenticated HTTP verbs with bounded timeouts, transparent retry of
// transient failures with full-jitter backoff, and a small typed error
// taxonomy that callers can branch on.
package jenkins

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
)

// Defaults applied by NewClient when the corresponding Config field is zero.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultBaseRetryDelay = time.Second
)

// Config holds the immutable configuration of a Client.
type Config struct {
	// BaseURL is the Jenkins root, without a trailing slash.
	BaseURL string
	// Username and APIToken are sent as HTTP Basic credentials.
	Username string
	APIToken string
	// Timeout bounds each individual attempt. The caller's context bounds
	// the whole call including backoff sleeps.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseRetryDelay seeds the exponential backoff.
	BaseRetryDelay time.Duration
}

// TraceFunc receives per-attempt diagnostics (method, URL, attempt, delay).
// It is observability only, not part of the client contract.
type TraceFunc func(format string, args ...any)

// Client performs authenticated exchanges against a Jenkins server. It is
// stateless apart from its immutable configuration and is safe for
// concurrent use.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
	trace TraceFunc
}

// NewClient creates a client for the given configuration, applying defaults
// for zero-valued timeout and retry settings. MaxRetries may be explicitly
// zero by setting it negative.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = DefaultBaseRetryDelay
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			// Jenkins reports asynchronously created resources (queue items)
			// via a 302/201 Location header; we surface it instead of
			// following the redirect.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retry: newRetryPolicy(cfg.MaxRetries, cfg.BaseRetryDelay),
	}
}

// SetTrace installs a diagnostic sink for per-attempt traces.
func (c *Client) SetTrace(fn TraceFunc) { c.trace = fn }

// BaseURL returns the configured Jenkins root.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() Config { return c.cfg }

func (c *Client) tracef(format string, args ...any) {
	if c.trace != nil {
		c.trace(format, args...)
	}
}

// rawResponse is a fully-read HTTP response. Bodies are read inside the
// attempt so the per-attempt deadline covers the read.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// bodyFunc produces a fresh request body and its content type. A new reader
// is needed per attempt so retries can replay the body.
type bodyFunc func() (io.Reader, string)

func (c *Client) buildURL(path string, params url.Values) string {
	u := c.cfg.BaseURL
	if !strings.HasPrefix(path, "/") {
		u += "/"
	}
	u += path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func accept2xx(status int) bool { return status >= 200 && status < 300 }

// do runs the retry loop around single attempts. accept decides which
// statuses are terminal successes (nil means 2xx). Retryable statuses
// (429, 500, 502, 503, 504) and transport errors are retried up to the
// budget; timeouts and context cancellation abort immediately.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body bodyFunc, accept func(int) bool) (*rawResponse, error) {
	if accept == nil {
		accept = accept2xx
	}
	u := c.buildURL(path, params)

	for attempt := 0; ; attempt++ {
		c.tracef("%s %s (attempt %d/%d)", method, u, attempt+1, c.retry.maxRetries+1)
		resp, err := c.attempt(ctx, method, u, body)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				// The per-attempt budget expired; retrying a request that
				// already used up its time budget is never correct.
				return nil, timeoutError(err)
			}
			if ctx.Err() != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, timeoutError(ctx.Err())
				}
				return nil, networkError(ctx.Err())
			}
			if attempt < c.retry.maxRetries {
				if werr := c.waitRetry(ctx, method, u, attempt, err.Error()); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, networkError(err)
		}

		if retryableStatus(resp.status) && attempt < c.retry.maxRetries {
			if werr := c.waitRetry(ctx, method, u, attempt, fmt.Sprintf("HTTP %d", resp.status)); werr != nil {
				return nil, werr
			}
			continue
		}
		if accept(resp.status) {
			return resp, nil
		}
		return nil, classifyStatus(resp.status, string(resp.body))
	}
}

// waitRetry traces the failure and sleeps the backoff for the given attempt.
func (c *Client) waitRetry(ctx context.Context, method, u string, attempt int, reason string) error {
	d := c.retry.delay(attempt)
	c.tracef("%s %s attempt %d failed (%s), retrying in %s", method, u, attempt+1, reason, d)
	if err := c.retry.sleep(ctx, d); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return timeoutError(err)
		}
		return networkError(err)
	}
	return nil
}

// attempt issues one HTTP exchange under the per-attempt timeout and reads
// the full body before returning.
func (c *Client) attempt(ctx context.Context, method, u string, body bodyFunc) (*rawResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	var contentType string
	if body != nil {
		reader, contentType = body()
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// GetJSON issues a GET and decodes the JSON response into out. A nil out
// discards the body.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, params, nil, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return &ClientError{
			Kind:    ErrKindServer,
			Status:  raw.status,
			Message: "response is not valid JSON",
			Body:    string(raw.body),
			cause:   err,
		}
	}
	return nil
}

// GetText issues a GET and returns the raw response body. Used for console
// logs, which are plain text.
func (c *Client) GetText(ctx context.Context, path string, params url.Values) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, path, params, nil, nil)
	if err != nil {
		return "", err
	}
	return string(raw.body), nil
}

// GetTextWithHeaders is GetText plus the response headers. Progressive log
// polling reads its continuation state (X-Text-Size, X-More-Data) from them.
func (c *Client) GetTextWithHeaders(ctx context.Context, path string, params url.Values) (string, http.Header, error) {
	raw, err := c.do(ctx, http.MethodGet, path, params, nil, nil)
	if err != nil {
		return "", nil, err
	}
	return string(raw.body), raw.header, nil
}

// PostForm issues a POST with a URL-encoded form body. See submit for the
// redirect and body semantics.
func (c *Client) PostForm(ctx context.Context, path string, params url.Values, form url.Values) (map[string]any, string, error) {
	encoded := form.Encode()
	return c.submit(ctx, path, params, func() (io.Reader, string) {
		return strings.NewReader(encoded), "application/x-www-form-urlencoded"
	})
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, params url.Values, payload any) (map[string]any, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request body: %w", err)
	}
	return c.submit(ctx, path, params, func() (io.Reader, string) {
		return bytes.NewReader(data), "application/json"
	})
}

// submit runs a POST without following redirects: 201 and 302 are successes
// whose Location header names the asynchronously created resource. A 2xx
// body that is empty or not JSON yields a nil map.
func (c *Client) submit(ctx context.Context, path string, params url.Values, body bodyFunc) (map[string]any, string, error) {
	accept := func(status int) bool {
		return accept2xx(status) || status == http.StatusFound
	}
	raw, err := c.do(ctx, http.MethodPost, path, params, body, accept)
	if err != nil {
		return nil, "", err
	}
	location := raw.header.Get("Location")
	var parsed map[string]any
	if len(bytes.TrimSpace(raw.body)) > 0 {
		if jsonErr := json.Unmarshal(raw.body, &parsed); jsonErr != nil {
			parsed = nil
		}
	}
	return parsed, location, nil
}

// Head issues a HEAD and returns the raw status and headers without error
// translation; the caller decides what the status means. Transient 5xx
// statuses are still retried within the budget.
func (c *Client) Head(ctx context.Context, path string) (int, http.Header, error) {
	raw, err := c.do(ctx, http.MethodHead, path, nil, nil, func(int) bool { return true })
	if err != nil {
		return 0, nil, err
	}
	return raw.status, raw.header, nil
}
