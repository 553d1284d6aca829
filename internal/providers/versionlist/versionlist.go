// Package versionlist fetches and caches the published-versions list
// for a pub.dev package (spec component F.1). It wraps an
// core.HTTPFetcher with a TTL cache and singleflight deduplication so
// that concurrent docs() calls for the same package share one
// upstream request.
package versionlist

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// fetchTimeout bounds a singleflight-shared upstream call so that one
// caller's cancellation never fails the others waiting on it.
const fetchTimeout = 10 * time.Second

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([\w.]+))?$`)

type entry struct {
	versions  []core.SemVer
	expiresAt time.Time
}

// Lister implements core.VersionLister against pub.dev's package API,
// caching the result for core.TTLVersionListMs per package.
type Lister struct {
	fetcher core.HTTPFetcher
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	cache   map[string]entry
	flights singleflight.Group
}

// Option configures a Lister at construction time.
type Option func(*Lister)

// WithClock injects a custom time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Lister) { l.now = now }
}

// WithTTL overrides the default cache TTL (core.TTLVersionListMs).
func WithTTL(ttl time.Duration) Option {
	return func(l *Lister) { l.ttl = ttl }
}

// New returns a Lister backed by fetcher.
func New(fetcher core.HTTPFetcher, opts ...Option) *Lister {
	l := &Lister{
		fetcher: fetcher,
		ttl:     time.Duration(core.TTLVersionListMs) * time.Millisecond,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

var _ core.VersionLister = (*Lister)(nil)

type packagesResponse struct {
	Versions []struct {
		Version string `json:"version"`
	} `json:"versions"`
}

// ListVersions returns pkg's published versions, using the cache when
// fresh and deduplicating concurrent cache misses via singleflight.
func (l *Lister) ListVersions(ctx context.Context, pkg string) ([]core.SemVer, error) {
	l.mu.RLock()
	e, ok := l.cache[pkg]
	l.mu.RUnlock()
	if ok && l.now().Before(e.expiresAt) {
		return e.versions, nil
	}

	v, err, _ := l.flights.Do(pkg, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		url := fmt.Sprintf("https://pub.dev/api/packages/%s", pkg)
		resp, err := l.fetcher.Get(fetchCtx, url, nil)
		if err != nil {
			return nil, err
		}

		var parsed packagesResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, core.NewError(core.ErrUpstreamServerError, "malformed pub.dev package response").WithCause(err)
		}

		versions := make([]core.SemVer, 0, len(parsed.Versions))
		for _, pv := range parsed.Versions {
			sv, ok := parseSemVer(pv.Version)
			if !ok {
				continue // skip unparseable entries rather than failing the whole list
			}
			versions = append(versions, sv)
		}

		l.mu.Lock()
		l.cache[pkg] = entry{versions: versions, expiresAt: l.now().Add(l.ttl)}
		l.mu.Unlock()

		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.SemVer), nil
}

func parseSemVer(raw string) (core.SemVer, bool) {
	m := versionRe.FindStringSubmatch(raw)
	if m == nil {
		return core.SemVer{}, false
	}
	maj, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	pat, _ := strconv.Atoi(m[3])
	return core.SemVer{Major: maj, Minor: min, Patch: pat, Prerelease: m[4]}, true
}
