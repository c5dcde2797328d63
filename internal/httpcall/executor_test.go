package httpcall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryPolicy_Delay_Monotonic(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: 2 * time.Second, Multiplier: 2}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, w := range want {
		if got := p.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestRetryPolicy_Delay_MultiplierBelowOne(t *testing.T) {
	// A fractional multiplier must not produce decreasing delays.
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Second, Multiplier: 0.5}
	if d0, d1 := p.Delay(0), p.Delay(1); d1 < d0 {
		t.Errorf("delays decreased: Delay(0)=%v Delay(1)=%v", d0, d1)
	}
}

// newTestExecutor builds an Executor with pacing disabled and a sleep stub
// that records backoff waits instead of blocking.
func newTestExecutor(client *http.Client, policy RetryPolicy) (*Executor, *[]time.Duration) {
	e := New(client, policy, 0)
	var waits []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return e, &waits
}

func TestExecutor_TransientThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, waits := newTestExecutor(srv.Client(), DefaultRetryPolicy())

	resp, err := e.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if len(*waits) != 2 {
		t.Fatalf("backoff waits = %d, want 2", len(*waits))
	}
	if (*waits)[0] >= (*waits)[1] {
		t.Errorf("backoff not increasing: %v then %v", (*waits)[0], (*waits)[1])
	}
}

func TestExecutor_TransientExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, _ := newTestExecutor(srv.Client(), DefaultRetryPolicy())

	_, err := e.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Get() error = nil, want transient failure")
	}
	if !IsTransient(err) {
		t.Errorf("IsTransient(%v) = false, want true", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestExecutor_FatalNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e, waits := newTestExecutor(srv.Client(), DefaultRetryPolicy())

	_, err := e.Get(context.Background(), srv.URL)
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("Get() error = %v, want *FatalError", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("FatalError.Status = %d, want 404", fe.Status)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retries)", got)
	}
	if len(*waits) != 0 {
		t.Errorf("backoff waits = %d, want 0", len(*waits))
	}
}

func TestExecutor_ConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening any more

	e, waits := newTestExecutor(&http.Client{Timeout: time.Second}, DefaultRetryPolicy())

	_, err := e.Get(context.Background(), url)
	if !IsTransient(err) {
		t.Fatalf("connection error classified as %v, want transient", err)
	}
	if len(*waits) != 2 {
		t.Errorf("backoff waits = %d, want 2", len(*waits))
	}
}

func TestExecutor_Pacing(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
	}))
	defer srv.Close()

	const delay = 30 * time.Millisecond
	e := New(srv.Client(), RetryPolicy{Attempts: 1}, delay)

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := e.Get(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Get() #%d error = %v", i, err)
		}
		resp.Body.Close()
	}

	// Every attempt carries a trailing pacing interval, the first included.
	if elapsed := time.Since(start); elapsed < 3*delay {
		t.Errorf("3 paced calls took %v, want >= %v", elapsed, 3*delay)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(arrivals) != 3 {
		t.Fatalf("server saw %d calls, want 3", len(arrivals))
	}
	// The second call must not go out back-to-back with the first.
	if gap := arrivals[1].Sub(arrivals[0]); gap < delay {
		t.Errorf("gap between first two calls = %v, want >= %v", gap, delay)
	}
}

func TestExecutor_ContextCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	e := New(srv.Client(), DefaultRetryPolicy(), 0)
	e.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := e.Get(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}
