package httpcall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Defaults matching the provider rate limits this tool was tuned against.
const (
	DefaultAttempts   = 3
	DefaultBaseDelay  = 2 * time.Second
	DefaultMultiplier = 2.0
	DefaultCallDelay  = 1 * time.Second
)

// retryableStatus is the fixed set of status codes treated as transient.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryPolicy bounds how often and how fast a failed call is re-issued.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first. Minimum 1.
	Attempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	// Values below 1 are treated as 1 so delays never decrease.
	Multiplier float64
}

// DefaultRetryPolicy returns the policy used for all provider calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   DefaultAttempts,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Delay returns the backoff before retry number attempt (0-based):
// BaseDelay × Multiplier^attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(m, float64(attempt)))
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// TransientError marks a failure worth retrying: a connection-level error
// (Status 0) or a retryable upstream status.
type TransientError struct {
	Status int
	URL    string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient call failure (%s): %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transient status %d (%s)", e.Status, e.URL)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a non-retryable upstream response, e.g. a malformed
// request or an auth failure. It is returned on the first occurrence.
type FatalError struct {
	Status int
	URL    string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal status %d (%s)", e.Status, e.URL)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Executor issues HTTP requests under a RetryPolicy with inter-call pacing.
// It is safe for use from a single pipeline goroutine at a time, which is
// all the strictly sequential batch driver ever needs.
type Executor struct {
	client *http.Client
	policy RetryPolicy
	pacer  *rate.Limiter

	// sleep is injectable so tests observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an Executor. callDelay is the fixed pacing interval applied
// after every completed attempt; zero disables pacing.
func New(client *http.Client, policy RetryPolicy, callDelay time.Duration) *Executor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	pacer := rate.NewLimiter(rate.Inf, 1)
	if callDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(callDelay), 1)
		// Drain the initial token so the first attempt is followed by a
		// real pacing interval like every later one.
		pacer.Allow()
	}
	return &Executor{
		client: client,
		policy: policy.normalized(),
		pacer:  pacer,
		sleep:  sleepCtx,
	}
}

// Get issues a paced, retried GET for url.
func (e *Executor) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpcall: build request: %w", err)
	}
	return e.Do(req)
}

// Do executes req under the retry policy. On exhaustion the last
// *TransientError is returned; a *FatalError is returned without retrying.
// The request must be re-issuable (no body, or a body with GetBody set).
func (e *Executor) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt < e.policy.Attempts; attempt++ {
		if attempt > 0 {
			wait := e.policy.Delay(attempt - 1)
			slog.Debug("httpcall: retrying",
				"url", req.URL.Redacted(), "attempt", attempt+1, "backoff", wait)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		resp, err := e.attempt(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs one try and the trailing pacing delay.
func (e *Executor) attempt(req *http.Request) (*http.Response, error) {
	resp, err := e.client.Do(req)
	if perr := e.pace(req.Context()); perr != nil {
		if err == nil {
			resp.Body.Close()
		}
		return nil, perr
	}

	switch {
	case err != nil:
		return nil, &TransientError{URL: req.URL.Redacted(), Err: err}
	case retryableStatus[resp.StatusCode]:
		drain(resp)
		return nil, &TransientError{Status: resp.StatusCode, URL: req.URL.Redacted()}
	case resp.StatusCode >= 400:
		drain(resp)
		return nil, &FatalError{Status: resp.StatusCode, URL: req.URL.Redacted()}
	default:
		return resp, nil
	}
}

// pace blocks until the inter-call interval has elapsed. It runs after
// every attempt, the first on a fresh Executor included.
func (e *Executor) pace(ctx context.Context) error {
	return e.pacer.Wait(ctx)
}

// drain consumes and closes the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
