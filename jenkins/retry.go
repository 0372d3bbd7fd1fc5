package jenkins

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"
)

// maxBackoff caps the computed delay between attempts.
const maxBackoff = 30 * time.Second

// retryPolicy decides whether a failed attempt is retried and how long to
// wait before the next one. sleep and jitter are injectable so tests can run
// with a fake clock and deterministic jitter.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retryPolicy {
	return retryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepCtx,
		jitter: func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return rand.N(max)
		},
	}
}

// retryableStatus reports whether a response status indicates a transient
// upstream condition worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// delay computes the backoff before retrying attempt i (0-indexed):
// exponential with full jitter, capped at maxBackoff.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << attempt
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	d += p.jitter(p.baseDelay)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
