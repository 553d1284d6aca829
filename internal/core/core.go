// Package core defines the domain interfaces (ports) and orchestration
// logic of the fetch-process-cache pipeline. Infrastructure adapters
// under internal/providers implement the interfaces declared here;
// Core threads them together as an explicit handle rather than as
// process-wide singletons (Design Notes §9), so tests can construct
// independent instances.
package core

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Core wires every port into the docs/search/status operations of the
// tool facade (spec component L). One Core is constructed at startup
// and shared by all callers; its only mutable shared state is the
// single-flight group, which is itself safe for concurrent use.
type Core struct {
	RateLimiter RateLimiter
	Breaker     CircuitBreaker
	Fetcher     HTTPFetcher
	Cache       Cache
	Identifiers IdentifierResolver
	Versions    VersionResolver
	VersionList VersionLister
	Parser      DocumentParser
	Tokens      TokenCounter
	Truncate    Truncator
	Sources     []SearchSource

	Now Clock

	flights singleflight.Group

	startedAt time.Time
	startOnce sync.Once
}

// New constructs a Core from its fully-resolved dependencies. All
// fields are required except Now, which defaults to time.Now.
func New(
	limiter RateLimiter,
	breaker CircuitBreaker,
	fetcher HTTPFetcher,
	cache Cache,
	identifiers IdentifierResolver,
	versions VersionResolver,
	versionList VersionLister,
	parser DocumentParser,
	tokens TokenCounter,
	truncator Truncator,
	sources []SearchSource,
) *Core {
	c := &Core{
		RateLimiter: limiter,
		Breaker:     breaker,
		Fetcher:     fetcher,
		Cache:       cache,
		Identifiers: identifiers,
		Versions:    versions,
		VersionList: versionList,
		Parser:      parser,
		Tokens:      tokens,
		Truncate:    truncator,
		Sources:     sources,
		Now:         time.Now,
	}
	c.startOnce.Do(func() { c.startedAt = time.Now() })
	return c
}

// UptimeMs reports milliseconds since Core was constructed.
func (c *Core) UptimeMs() int64 {
	return time.Since(c.startedAt).Milliseconds()
}

// Docs implements the Fetch FSM described in spec §4.L:
//
//	Idle -> Resolving -> Limited -> Requesting -> Parsing -> Counting -> Writing -> Done
//
// with a transition to Failed(kind) on any error. Failed results are
// never cached. Concurrent callers for the same canonical_id share one
// upstream fetch via single-flight (spec component E).
func (c *Core) Docs(ctx context.Context, req DocRequest) (*Document, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	// Resolving: classify the identifier and, for pub packages,
	// resolve the version constraint against the published list.
	resolved, err := c.Identifiers.Resolve(req.Identifier)
	if err != nil {
		return nil, err
	}

	resolvedVersion, err := c.resolveVersion(ctx, resolved)
	if err != nil {
		return nil, err
	}

	key := resolved.CanonicalIDWithVersion(resolvedVersion)

	if doc, err := c.Cache.Get(ctx, key); err != nil {
		// CacheError degrades rather than fails the whole request
		// (spec §7): fall through to a live fetch.
	} else if doc != nil {
		return c.applyTopicAndTruncate(ctx, doc, req, SourceCache)
	}

	v, err, _ := c.flights.Do(key, func() (any, error) {
		// A caller that missed the cache just before an earlier flight
		// stored its result finds that result here instead of fetching.
		if cached, err := c.Cache.Get(ctx, key); err == nil && cached != nil {
			hit := *cached
			hit.Source = SourceCache
			return &hit, nil
		}
		return c.fetchAndStore(ctx, key, resolved, req)
	})
	if err != nil {
		return nil, err
	}
	doc := v.(*Document)
	return c.applyTopicAndTruncate(ctx, doc, req, doc.Source)
}

// resolveVersion resolves req's version constraint (if any) against
// the upstream's published versions list (spec §4.F). Only
// pub_package identifiers ever carry a VersionSpec.
func (c *Core) resolveVersion(ctx context.Context, r *ResolvedIdentifier) (*SemVer, error) {
	if r.Kind != KindPubPackage || r.VersionSpec.IsNone() {
		return nil, nil
	}
	published, err := c.VersionList.ListVersions(ctx, r.Name)
	if err != nil {
		return nil, err
	}
	return c.Versions.Resolve(r.VersionSpec, published)
}

// fetchAndStore performs the Limited -> Requesting -> Parsing ->
// Counting -> Writing transitions of the Fetch FSM. It is always
// invoked behind single-flight, so at most one upstream fetch happens
// per canonical_id.
func (c *Core) fetchAndStore(ctx context.Context, key string, resolved *ResolvedIdentifier, req DocRequest) (*Document, error) {
	upstreamURL, err := c.Identifiers.DeriveURL(resolved)
	if err != nil {
		return nil, err
	}
	host, err := hostOf(upstreamURL)
	if err != nil {
		return nil, err
	}

	// Limited: rate limiting is advisory, never a failure cause.
	_ = c.RateLimiter.Acquire(ctx, host)

	// Requesting: the circuit breaker gates the call; only
	// Network/UpstreamServerError outcomes count toward tripping it.
	headers := map[string]string{"X-Canonical-Id": key}
	resp, fetchErr := c.Breaker.Execute(host, func() (*HTTPResponse, error) {
		return c.Fetcher.Get(ctx, upstreamURL, headers)
	})
	if fetchErr != nil {
		return nil, fetchErr
	}

	canonical, parseErr := c.parse(ctx, upstreamURL, resp, resolved)
	if parseErr != nil {
		return nil, parseErr
	}

	content := renderMarkdown(canonical)
	tokenCount := c.Tokens.Count(content)

	doc := &Document{
		CanonicalID: key,
		Content:     content,
		TokenCount:  tokenCount,
		Source:      SourceLive,
		SourceURL:   upstreamURL,
		FetchedAt:   c.Now().UnixMilli(),
		TTLMs:       ttlFor(resolved.Kind),
	}

	if err := c.Cache.Put(ctx, key, doc); err != nil {
		// CacheError degrades: return the live result uncached.
		_ = err
	}

	return doc, nil
}

func (c *Core) parse(ctx context.Context, upstreamURL string, resp *HTTPResponse, resolved *ResolvedIdentifier) (*CanonicalDocument, error) {
	if resolved.Kind == KindPubPackage {
		return c.Parser.ParsePubPackage(ctx, resp.Body, nil, resolved)
	}
	return c.Parser.ParseHTML(ctx, upstreamURL, resp.Body, resolved)
}

// applyTopicAndTruncate re-parses doc.Content (the full canonical
// Markdown, as stored in the cache) into a section tree and applies
// topic filtering and truncation to that tree, so that truncation
// footers never reach the stored cache entry.
func (c *Core) applyTopicAndTruncate(ctx context.Context, doc *Document, req DocRequest, source DocSource) (*Document, error) {
	canonical := parseCanonicalFromMarkdown(doc.Content)
	if req.Topic != "" {
		canonical = filterTopic(canonical, req.Topic)
	}

	result, err := c.Truncate.Truncate(canonical, req.MaxTokens, c.Tokens)
	if err != nil {
		return nil, err
	}

	out := *doc
	out.Source = source
	out.Content = result.Content
	out.TokenCount = result.TokenCount
	out.Truncated = result.Truncated
	out.OriginalTokens = result.OriginalTokens
	out.SectionsKept = result.SectionsKept
	out.SectionsDropped = result.SectionsDropped
	return &out, nil
}

func ttlFor(k Kind) int64 {
	if k == KindPubPackage {
		return TTLPackageMs
	}
	return TTLAPIDocsMs
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", NewError(ErrInvalidInput, "malformed upstream url").WithCause(err)
	}
	return u.Host, nil
}

// SearchResponse is the output of Search (spec §6).
type SearchResponse struct {
	Query         string
	Results       []SearchResult
	Partial       bool
	FailedSources []string
	TotalFound    int
}

// StatusResponse is the output of Status (spec §6).
type StatusResponse struct {
	Status    string
	Cache     CacheStats
	Upstreams map[string]string
	UptimeMs  int64
}
