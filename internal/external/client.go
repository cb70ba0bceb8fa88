// Package external provides the anti-corruption layer between the market-data
// domain and the third-party provider APIs. All outbound HTTP calls are routed
// through the BaseClient, which enforces consistent resilience patterns:
// circuit breaking, retries with backoff, and error mapping to types.AppError.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"eprice/internal/types"
)

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// NoRetryPolicy disables retries; each request gets exactly one attempt.
// The spot price client uses this so bulk per-hour loops fail fast.
func NoRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 0}
}

// BaseClient wraps an *http.Client and a circuit breaker to enforce consistent
// resilience patterns on all outbound HTTP calls. Provider clients embed a
// BaseClient to inherit this behavior instead of re-implementing the retry
// loop per method.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// NewBaseClient creates a BaseClient with the given http client, circuit
// breaker name, and retry policy.
func NewBaseClient(httpClient *http.Client, breakerName string, retryPolicy RetryPolicy, opts ...BaseClientOption) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	bc := &BaseClient{
		client:      httpClient,
		breaker:     cb,
		retryPolicy: retryPolicy,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Do executes the HTTP request with circuit breaker wrapping, retry on
// 429/5xx/transport errors, and error mapping to types.AppError.
//
// On success (2xx/3xx/4xx other than 429), Do returns the response as-is and
// the caller is responsible for closing the body. On exhausted retries or an
// open circuit breaker, Do returns a types.AppError whose details carry the
// last upstream status and the attempt count.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	// Snapshot the request body so it can be replayed on retries. Range and
	// latest fetches are GETs, so this is usually a no-op.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support",
				err,
			)
		}
		req.Body.Close()
	}

	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		attempts++
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx and 429 count as failures for the circuit breaker.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		// An open circuit breaker will not recover within this request.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		// Only 429 and 5xx are retryable; other statuses return as-is.
		if resp != nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	return nil, c.mapError(lastResp, lastErr, attempts)
}

// computeBackoff determines the wait before the next retry attempt: the base
// wait grows with the attempt number and is jittered and clamped to MaxWait.
func (c *BaseClient) computeBackoff(attempt int) time.Duration {
	base := c.retryPolicy.MinWait * time.Duration(attempt+1)
	if c.retryPolicy.MaxWait > 0 && base > c.retryPolicy.MaxWait {
		base = c.retryPolicy.MaxWait
	}
	if base <= c.retryPolicy.MinWait {
		return c.retryPolicy.MinWait
	}
	// Full jitter in [MinWait, base].
	span := float64(base - c.retryPolicy.MinWait)
	return c.retryPolicy.MinWait + time.Duration(rand.Float64()*span)
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error, attempts int) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamRateLimit,
			"circuit breaker is open; upstream unavailable",
			err,
			map[string]any{"attempts": attempts},
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppErrorWithDetails(
				types.ErrCodeUpstreamRateLimit,
				"upstream rate limit exceeded",
				err,
				map[string]any{"status": resp.StatusCode, "attempts": attempts},
			)
		case resp.StatusCode >= 500:
			return types.NewAppErrorWithDetails(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d after %d attempts", resp.StatusCode, attempts),
				err,
				map[string]any{"status": resp.StatusCode, "attempts": attempts},
			)
		}
	}

	// Transport-level failure (connection refused, DNS, timeout).
	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
		map[string]any{"attempts": attempts},
	)
}
