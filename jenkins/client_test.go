package jenkins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client against a test server with instant backoff
// sleeps and zero jitter so retry tests run deterministically.
func newTestClient(srv *httptest.Server, cfg Config) *Client {
	cfg.BaseURL = srv.URL
	c := NewClient(cfg)
	c.retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	c.retry.jitter = func(max time.Duration) time.Duration { return 0 }
	return c
}

func TestGetJSON_SendsAuthAndQuery(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"mode":"NORMAL"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{Username: "admin", APIToken: "secret"})
	var out struct {
		Mode string `json:"mode"`
	}
	err := c.GetJSON(context.Background(), "/api/json", url.Values{"tree": {"jobs[name]"}}, &out)
	require.NoError(t, err)

	assert.Equal(t, "NORMAL", out.Mode)
	assert.Equal(t, "tree=jobs%5Bname%5D", gotQuery)

	// Basic admin:secret
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", gotAuth)
}

func TestGetJSON_InvalidJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login page</html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	var out map[string]any
	err := c.GetJSON(context.Background(), "/api/json", nil, &out)
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrKindServer, ce.Kind)
	assert.Contains(t, ce.Body, "login page")
}

func TestRetry_TransientFailuresThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 3})
	var out map[string]any
	err := c.GetJSON(context.Background(), "/api/json", nil, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts.Load(), "two failures plus one success")
}

func TestRetry_BudgetExhausted(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 2})
	err := c.GetJSON(context.Background(), "/api/json", nil, nil)
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrKindServer, ce.Kind)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Equal(t, "boom", ce.Body)
	assert.EqualValues(t, 3, attempts.Load(), "maxRetries+1 total attempts")
}

func TestRetry_TooManyRequestsIsRetryable(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 1})
	err := c.GetJSON(context.Background(), "/api/json", nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestNoRetry_NotFound(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 3})
	err := c.GetJSON(context.Background(), "/job/missing/api/json", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, attempts.Load(), "404 must not be retried")
}

func TestNoRetry_AuthFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 3})
	err := c.GetJSON(context.Background(), "/api/json", nil, nil)
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Contains(t, err.Error(), "JENKINS_API_TOKEN")
	assert.EqualValues(t, 1, attempts.Load(), "401 must not be retried")
}

func TestTimeout_SurfacedImmediately(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{Timeout: 20 * time.Millisecond, MaxRetries: 3})
	_, err := c.GetText(context.Background(), "/consoleText", nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.EqualValues(t, 1, attempts.Load(), "timeouts must never be retried")
}

func TestNetworkError_AfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv, Config{MaxRetries: 1})
	err := c.GetJSON(context.Background(), "/api/json", nil, nil)
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrKindNetwork, ce.Kind)
	assert.Zero(t, ce.Status)
}

func TestSubmit_SurfacesLocationWithoutFollowingRedirect(t *testing.T) {
	var followed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/job/app/build":
			w.Header().Set("Location", "http://jenkins.example.com/queue/item/42/")
			w.WriteHeader(http.StatusFound)
		default:
			followed.Add(1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	parsed, location, err := c.PostForm(context.Background(), "/job/app/build", nil, url.Values{})
	require.NoError(t, err)
	assert.Nil(t, parsed)
	assert.Equal(t, "http://jenkins.example.com/queue/item/42/", location)
	assert.Zero(t, followed.Load(), "redirect must not be followed")
}

func TestSubmit_FormEncodingAndJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "main", r.PostFormValue("BRANCH"))
		w.Header().Set("Location", "http://jenkins.example.com/queue/item/7/")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"queued":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	parsed, location, err := c.PostForm(context.Background(), "/job/app/buildWithParameters", nil,
		url.Values{"BRANCH": {"main"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"queued": true}, parsed)
	assert.Equal(t, "http://jenkins.example.com/queue/item/7/", location)
}

func TestSubmit_NonJSONBodyYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	parsed, _, err := c.PostJSON(context.Background(), "/job/app/build", nil, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestSubmit_RetriesReplayBody(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		bodies = append(bodies, r.PostFormValue("BRANCH"))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{MaxRetries: 1})
	_, _, err := c.PostForm(context.Background(), "/job/app/buildWithParameters", nil,
		url.Values{"BRANCH": {"main"}})
	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Equal(t, "main", bodies[1], "retried attempt must resend the form body")
}

func TestHead_ReturnsRawStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("X-Jenkins", "2.440")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	status, headers, err := c.Head(context.Background(), "/job/app/api/json")
	require.NoError(t, err, "Head does not translate statuses into errors")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "2.440", headers.Get("X-Jenkins"))
}

func TestGetTextWithHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Text-Size", "2048")
		w.Header().Set("X-More-Data", "true")
		w.Write([]byte("chunk of log"))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	text, headers, err := c.GetTextWithHeaders(context.Background(), "/logText/progressiveText", nil)
	require.NoError(t, err)
	assert.Equal(t, "chunk of log", text)
	assert.Equal(t, "2048", headers.Get("X-Text-Size"))
}

func TestContextCancellation_AbortsRetryLoop(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(srv, Config{MaxRetries: 10})
	c.retry.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := c.GetJSON(ctx, "/api/json", nil, nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, attempts.Load(), "pending retries are skipped after cancellation")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://jenkins.example.com/"})
	cfg := c.Config()
	assert.Equal(t, "http://jenkins.example.com", cfg.BaseURL, "trailing slash stripped")
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultBaseRetryDelay, cfg.BaseRetryDelay)

	noRetries := NewClient(Config{BaseURL: "http://jenkins.example.com", MaxRetries: -1})
	assert.Zero(t, noRetries.Config().MaxRetries, "negative MaxRetries means no retries")
}
