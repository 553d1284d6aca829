package versionlist

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

type fakeFetcher struct {
	calls atomic.Int32
	body  []byte
}

func (f *fakeFetcher) Get(ctx context.Context, url string, headers map[string]string) (*core.HTTPResponse, error) {
	f.calls.Add(1)
	return &core.HTTPResponse{Status: 200, Body: f.body}, nil
}

const samplePackagesJSON = `{"versions":[{"version":"1.0.0"},{"version":"1.2.0"},{"version":"2.0.0-beta.1"},{"version":"not-a-version"}]}`

func TestListVersions_ParsesAndSkipsInvalid(t *testing.T) {
	f := &fakeFetcher{body: []byte(samplePackagesJSON)}
	l := New(f)

	versions, err := l.ListVersions(context.Background(), "dio")
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3 (invalid entry skipped)", len(versions))
	}
}

func TestListVersions_CachesWithinTTL(t *testing.T) {
	f := &fakeFetcher{body: []byte(samplePackagesJSON)}
	now := time.Now()
	l := New(f, WithClock(func() time.Time { return now }), WithTTL(time.Hour))

	if _, err := l.ListVersions(context.Background(), "dio"); err != nil {
		t.Fatalf("first ListVersions() error = %v", err)
	}
	if _, err := l.ListVersions(context.Background(), "dio"); err != nil {
		t.Fatalf("second ListVersions() error = %v", err)
	}
	if f.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call within TTL, got %d", f.calls.Load())
	}
}

func TestListVersions_RefetchesAfterExpiry(t *testing.T) {
	f := &fakeFetcher{body: []byte(samplePackagesJSON)}
	now := time.Now()
	clock := func() time.Time { return now }
	l := New(f, WithClock(clock), WithTTL(time.Millisecond))

	if _, err := l.ListVersions(context.Background(), "dio"); err != nil {
		t.Fatalf("first ListVersions() error = %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := l.ListVersions(context.Background(), "dio"); err != nil {
		t.Fatalf("second ListVersions() error = %v", err)
	}
	if f.calls.Load() != 2 {
		t.Errorf("expected 2 upstream calls after expiry, got %d", f.calls.Load())
	}
}
