//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/flutter-mcp/flutter-mcp-server/internal/config"
	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
	"github.com/flutter-mcp/flutter-mcp-server/internal/handler"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers"
)

// wireCore is the injector template this binary would use under Wire
// codegen. No wire_gen.go is committed: serve() in main.go performs
// the equivalent construction by hand (Design Notes §9), since the
// rate limiter, breaker, and retry client all need values read from
// *config.Config that plain Wire providers can't thread through
// without extra indirection for little benefit at this module's size.
func wireCore(cfg *config.Config, cacheDBPath string) (*core.Core, error) {
	panic(wire.Build(
		core.New,
		providers.ProviderSet,
		providers.CacheProviderSet,
		providers.TokenizerProviderSet,
		handler.New,
	))
}
