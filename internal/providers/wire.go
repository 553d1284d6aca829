//go:build wireinject

// Package providers aggregates every infrastructure adapter (spec
// components A-K) into a single Wire provider set. This file is a
// documentation-only injector template: the real binary in
// cmd/flutter-mcp-server constructs these adapters by hand, since
// several of them (retryhttp, breaker, ratelimit) need values read
// from *config.Config at call time rather than zero-arg constructors.
package providers

import (
	"github.com/google/wire"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/breaker"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/cachestore"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/identifier"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/parser"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/ratelimit"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/retryhttp"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/tokenizer"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/truncate"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/versionlist"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/versionresolver"
)

// ProviderSet binds every core port to its default adapter.
var ProviderSet = wire.NewSet(
	ratelimit.New,
	wire.Bind(new(core.RateLimiter), new(*ratelimit.Limiter)),

	breaker.New,
	wire.Bind(new(core.CircuitBreaker), new(*breaker.Breaker)),

	wire.Value(retryhttp.New()),
	wire.Bind(new(core.HTTPFetcher), new(*retryhttp.Client)),

	identifier.New,
	wire.Bind(new(core.IdentifierResolver), new(*identifier.Resolver)),

	versionresolver.New,
	wire.Bind(new(core.VersionResolver), new(*versionresolver.Resolver)),

	versionlist.New,
	wire.Bind(new(core.VersionLister), new(*versionlist.Lister)),

	parser.New,
	wire.Bind(new(core.DocumentParser), new(*parser.Parser)),

	truncate.New,
	wire.Bind(new(core.Truncator), new(*truncate.Truncator)),
)

// CacheProviderSet is kept separate because cachestore.Open returns
// (*Store, error) and needs a filesystem path argument resolved from
// configuration before Wire can invoke it.
var CacheProviderSet = wire.NewSet(
	cachestore.Open,
	wire.Bind(new(core.Cache), new(*cachestore.Store)),
)

// TokenizerProviderSet selects the exact tiktoken-backed counter. Swap
// for tokenizer.Approximate{} to use the word-count heuristic instead.
var TokenizerProviderSet = wire.NewSet(
	tokenizer.NewExact,
	wire.Bind(new(core.TokenCounter), new(*tokenizer.Exact)),
)
