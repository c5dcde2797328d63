package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sitepulse/sitepulse/internal/httpcall"
)

func TestVariants_Order(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "https without www",
			in:   "https://example.com",
			want: []string{
				"https://example.com",
				"http://example.com",
				"https://www.example.com",
			},
		},
		{
			name: "https with www",
			in:   "https://www.example.com",
			want: []string{
				"https://www.example.com",
				"http://www.example.com",
				"https://example.com",
			},
		},
		{
			name: "http scheme swaps to https",
			in:   "http://example.com",
			want: []string{
				"http://example.com",
				"https://example.com",
				"http://www.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Variants(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Variants(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// singleAttempt builds the prober's executor: one attempt, no pacing.
func singleAttempt(client *http.Client) *httpcall.Executor {
	return httpcall.New(client, httpcall.RetryPolicy{Attempts: 1}, 0)
}

func TestProbe_ThirdVariantReachable(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := checks.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<html><head><title>Acme Plumbing</title></head></html>"))
	}))
	defer srv.Close()

	// The test server answers every variant; reachability is decided purely
	// by status, so the variant set just needs three distinct entries.
	client := srv.Client()
	client.Transport = rewriteHost(srv, client.Transport)
	p := New(singleAttempt(client))

	res, ok := p.Probe(context.Background(), "https://example.com")
	if !ok {
		t.Fatal("Probe() ok = false, want true")
	}
	if got := checks.Load(); got != 3 {
		t.Errorf("reachability checks = %d, want exactly 3", got)
	}
	if res.URL != "https://www.example.com" {
		t.Errorf("Probe() URL = %q, want the third variant", res.URL)
	}
	if res.Title != "Acme Plumbing" {
		t.Errorf("Probe() Title = %q, want %q", res.Title, "Acme Plumbing")
	}
}

func TestProbe_AllVariantsFail(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := srv.Client()
	client.Transport = rewriteHost(srv, client.Transport)
	p := New(singleAttempt(client))

	if _, ok := p.Probe(context.Background(), "https://example.com"); ok {
		t.Fatal("Probe() ok = true, want false")
	}
	if got := checks.Load(); got != 3 {
		t.Errorf("reachability checks = %d, want 3 (one per variant, no retries)", got)
	}
}

func TestProbe_FirstVariantWins(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks.Add(1)
		_, _ = w.Write([]byte("<html><head><title>ok</title></head></html>"))
	}))
	defer srv.Close()

	client := srv.Client()
	client.Transport = rewriteHost(srv, client.Transport)
	p := New(singleAttempt(client))

	res, ok := p.Probe(context.Background(), "https://example.com")
	if !ok || res.URL != "https://example.com" {
		t.Fatalf("Probe() = (%+v, %v), want first variant", res, ok)
	}
	if got := checks.Load(); got != 1 {
		t.Errorf("reachability checks = %d, want 1", got)
	}
}

// rewriteHost sends every variant to the test server regardless of the
// candidate's host or scheme.
func rewriteHost(srv *httptest.Server, base http.RoundTripper) http.RoundTripper {
	target := strings.TrimPrefix(srv.URL, "http://")
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		req.URL.Scheme = "http"
		req.URL.Host = target
		return base.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
