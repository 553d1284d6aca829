package retryhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

func TestClient_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(WithBaseDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestClient_DoesNotRetryOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithBaseDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if core.AsError(err).Kind != core.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", core.AsError(err).Kind)
	}
	if calls != 1 {
		t.Errorf("404 must not be retried, got %d calls", calls)
	}
}

func TestClient_ExhaustsRetriesOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(WithMaxRetries(2), WithBaseDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if core.AsError(err).Kind != core.ErrRateLimited {
		t.Errorf("expected ErrRateLimited, got %v", core.AsError(err).Kind)
	}
	if calls != 3 {
		t.Errorf("expected initial attempt + 2 retries = 3 calls, got %d", calls)
	}
}

func TestClient_PropagatesCanonicalIDHeader(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Canonical-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New()
	_, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Canonical-Id": "flutter:widget:Container"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotHeader != "flutter:widget:Container" {
		t.Errorf("expected canonical id header to propagate, got %q", gotHeader)
	}
}

func TestClient_CancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(WithBaseDelay(50*time.Millisecond), WithMaxDelay(50*time.Millisecond))

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := c.Get(ctx, srv.URL, nil)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
