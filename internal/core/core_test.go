package core

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// --- fakes ---

type fakeLimiter struct{}

func (fakeLimiter) Acquire(ctx context.Context, host string) error { return nil }

type fakeBreaker struct{ state BreakerState }

func (b fakeBreaker) Execute(host string, fn func() (*HTTPResponse, error)) (*HTTPResponse, error) {
	return fn()
}
func (b fakeBreaker) State(host string) BreakerState {
	if b.state == "" {
		return BreakerClosed
	}
	return b.state
}

type fakeFetcher struct {
	calls atomic.Int32
	body  []byte
	err   error
}

func (f *fakeFetcher) Get(ctx context.Context, url string, headers map[string]string) (*HTTPResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &HTTPResponse{Status: 200, Body: f.body}, nil
}

type fakeCache struct {
	mu   sync.Mutex
	docs map[string]*Document
}

func newFakeCache() *fakeCache { return &fakeCache{docs: map[string]*Document{}} }

func (c *fakeCache) Get(ctx context.Context, key string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[key]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}
func (c *fakeCache) Put(ctx context.Context, key string, doc *Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *doc
	c.docs[key] = &cp
	return nil
}
func (c *fakeCache) Stats(ctx context.Context) (CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.docs)}, nil
}
func (c *fakeCache) Purge(ctx context.Context, predicate func(string, *Document) bool) (int, error) {
	return 0, nil
}

type fakeIdentifiers struct{}

func (fakeIdentifiers) Resolve(raw string) (*ResolvedIdentifier, error) {
	return &ResolvedIdentifier{Kind: KindFlutterClass, Library: "widgets", Name: raw}, nil
}
func (fakeIdentifiers) DeriveURL(r *ResolvedIdentifier) (string, error) {
	return "https://api.flutter.dev/flutter/" + r.Library + "/" + r.Name + "-class.html", nil
}
func (fakeIdentifiers) FromCanonical(id string) (*ResolvedIdentifier, error) {
	return &ResolvedIdentifier{Kind: KindFlutterClass, Library: "widgets", Name: id}, nil
}

type fakeVersions struct{}

func (fakeVersions) ParseConstraint(raw string) (*VersionSpec, error) {
	return &VersionSpec{Kind: VersionSpecNone}, nil
}
func (fakeVersions) Resolve(spec *VersionSpec, published []SemVer) (*SemVer, error) {
	return nil, nil
}

type fakeVersionList struct{}

func (fakeVersionList) ListVersions(ctx context.Context, pkg string) ([]SemVer, error) {
	return nil, nil
}

type fakeParser struct{ calls atomic.Int32 }

func (p *fakeParser) ParseHTML(ctx context.Context, sourceURL string, body []byte, r *ResolvedIdentifier) (*CanonicalDocument, error) {
	p.calls.Add(1)
	return &CanonicalDocument{
		Title: r.Name,
		Sections: []Section{
			{Heading: "Description", Body: "A widget.", Priority: PriorityCritical},
			{Heading: "Examples", Body: "```dart\nContainer();\n```", Priority: PriorityLow},
		},
	}, nil
}
func (p *fakeParser) ParsePubPackage(ctx context.Context, metaJSON, readmeHTML []byte, r *ResolvedIdentifier) (*CanonicalDocument, error) {
	return &CanonicalDocument{Title: r.Name}, nil
}

type fakeTokens struct{}

func (fakeTokens) Count(s string) int { return len(s) / 4 }

type fakeTruncator struct{}

func (fakeTruncator) Truncate(doc *CanonicalDocument, maxTokens int, counter TokenCounter) (*TruncationResult, error) {
	content := renderMarkdown(doc)
	return &TruncationResult{Content: content, TokenCount: counter.Count(content)}, nil
}

type fakeSource struct {
	name     string
	results  []SearchResult
	err      error
	delay    time.Duration
}

func (s fakeSource) Name() string     { return s.name }
func (s fakeSource) Priority() float64 { return 1.0 }
func (s fakeSource) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func newTestCore(fetcher *fakeFetcher, cache Cache, parser DocumentParser) *Core {
	if cache == nil {
		cache = newFakeCache()
	}
	return New(
		fakeLimiter{}, fakeBreaker{}, fetcher, cache,
		fakeIdentifiers{}, fakeVersions{}, fakeVersionList{},
		parser, fakeTokens{}, fakeTruncator{}, nil,
	)
}

// --- tests ---

func TestDocs_CacheMissFetchesAndStores(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("irrelevant")}
	parser := &fakeParser{}
	c := newTestCore(fetcher, nil, parser)

	doc, err := c.Docs(context.Background(), DocRequest{Identifier: "Container"})
	if err != nil {
		t.Fatalf("Docs() error = %v", err)
	}
	if doc.Source != SourceLive {
		t.Errorf("Source = %s, want live", doc.Source)
	}
	if fetcher.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls.Load())
	}
}

func TestDocs_CacheHitSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("irrelevant")}
	parser := &fakeParser{}
	c := newTestCore(fetcher, nil, parser)
	ctx := context.Background()

	if _, err := c.Docs(ctx, DocRequest{Identifier: "Container"}); err != nil {
		t.Fatalf("first Docs() error = %v", err)
	}
	doc, err := c.Docs(ctx, DocRequest{Identifier: "Container"})
	if err != nil {
		t.Fatalf("second Docs() error = %v", err)
	}
	if doc.Source != SourceCache {
		t.Errorf("Source = %s, want cache", doc.Source)
	}
	if fetcher.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1 (cache hit should not re-fetch)", fetcher.calls.Load())
	}
}

func TestDocs_ConcurrentCallsShareOneUpstreamFetch(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("irrelevant")}
	parser := &fakeParser{}
	c := newTestCore(fetcher, nil, parser)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Docs(ctx, DocRequest{Identifier: "Container"}); err != nil {
				t.Errorf("Docs() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if fetcher.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1 under single-flight dedup", fetcher.calls.Load())
	}
}

func TestDocs_TopicFilterReturnsOnlyMatchingSection(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("irrelevant")}
	parser := &fakeParser{}
	c := newTestCore(fetcher, nil, parser)

	doc, err := c.Docs(context.Background(), DocRequest{Identifier: "Container", Topic: TopicSummary})
	if err != nil {
		t.Fatalf("Docs() error = %v", err)
	}
	if got := doc.Content; len(got) == 0 {
		t.Fatal("expected non-empty filtered content")
	}
	if !strings.Contains(doc.Content, "## Description") {
		t.Errorf("content = %q, want the Description section", doc.Content)
	}
	if strings.Contains(doc.Content, "## Examples") {
		t.Errorf("content = %q, want the Examples section filtered out", doc.Content)
	}
}

func TestDocs_FetchErrorNeverCached(t *testing.T) {
	fetcher := &fakeFetcher{err: NewError(ErrNetwork, "connection refused")}
	parser := &fakeParser{}
	cache := newFakeCache()
	c := newTestCore(fetcher, cache, parser)
	ctx := context.Background()

	if _, err := c.Docs(ctx, DocRequest{Identifier: "Container"}); err == nil {
		t.Fatal("expected error from failing fetch")
	}
	if len(cache.docs) != 0 {
		t.Errorf("cache has %d entries, want 0: failed fetches must never be cached", len(cache.docs))
	}
}

func TestSearch_PartialFailureStillReturnsResults(t *testing.T) {
	c := New(
		fakeLimiter{}, fakeBreaker{}, &fakeFetcher{}, newFakeCache(),
		fakeIdentifiers{}, fakeVersions{}, fakeVersionList{},
		&fakeParser{}, fakeTokens{}, fakeTruncator{},
		[]SearchSource{
			fakeSource{name: "flutter_docs", results: []SearchResult{{ID: "a", Title: "Container", Relevance: 1.0}}},
			fakeSource{name: "dart_docs", err: NewError(ErrNetwork, "timeout")},
		},
	)

	resp, err := c.Search(context.Background(), "Container", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !resp.Partial {
		t.Error("expected Partial = true when one source fails")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	if len(resp.FailedSources) != 1 || resp.FailedSources[0] != "dart_docs" {
		t.Errorf("FailedSources = %v, want [dart_docs]", resp.FailedSources)
	}
}

func TestSearch_AllSourcesFailingReturnsError(t *testing.T) {
	c := New(
		fakeLimiter{}, fakeBreaker{}, &fakeFetcher{}, newFakeCache(),
		fakeIdentifiers{}, fakeVersions{}, fakeVersionList{},
		&fakeParser{}, fakeTokens{}, fakeTruncator{},
		[]SearchSource{
			fakeSource{name: "flutter_docs", err: NewError(ErrNetwork, "timeout")},
		},
	)

	if _, err := c.Search(context.Background(), "Container", 10); err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestStatus_ReflectsBreakerState(t *testing.T) {
	cache := newFakeCache()
	c := &Core{
		RateLimiter: fakeLimiter{}, Breaker: fakeBreaker{state: BreakerOpen},
		Fetcher: &fakeFetcher{}, Cache: cache,
		Identifiers: fakeIdentifiers{}, Versions: fakeVersions{}, VersionList: fakeVersionList{},
		Parser: &fakeParser{}, Tokens: fakeTokens{}, Truncate: fakeTruncator{},
		Now: time.Now,
	}

	resp, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %s, want unhealthy (breaker open)", resp.Status)
	}
}
