// Command flutter-mcp-server runs the Flutter/Dart/pub.dev
// documentation MCP server over stdio (spec §4.O). Dependencies are
// constructed by hand in serve below rather than via Wire codegen;
// wire.go documents the equivalent provider set.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flutter-mcp/flutter-mcp-server/internal/config"
	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
	"github.com/flutter-mcp/flutter-mcp-server/internal/handler"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/breaker"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/cachestore"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/identifier"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/parser"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/ratelimit"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/retryhttp"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/search"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/tokenizer"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/truncate"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/versionlist"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/versionresolver"
)

// version is injected at build time via -ldflags "-X main.version=v1.2.3".
var version = "devel"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rootCmd := &cobra.Command{
		Use:           "flutter-mcp-server",
		Short:         "MCP server exposing Flutter, Dart, and pub.dev documentation as tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	if err := cfg.BindFlags(rootCmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// serve constructs every provider named in spec components A-K,
// wires them into a core.Core, registers the MCP tool set, and serves
// it over stdio (spec §4.O default transport).
func serve(ctx context.Context, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Debug() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cacheDir := cfg.CacheDir()
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve default cache directory: %w", err)
		}
		cacheDir = filepath.Join(userCache, "flutter-docs")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	store, err := cachestore.Open(filepath.Join(cacheDir, "cache.db"))
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer store.Close()

	limiter := ratelimit.NewWithRates(ratelimit.DefaultCapacity, cfg.RequestsPerSecond())
	cb := breaker.NewWithThresholds(cfg.FailureThreshold(), cfg.RecoveryTimeout())
	fetcher := retryhttp.New(
		retryhttp.WithMaxRetries(cfg.MaxRetries()),
		retryhttp.WithBaseDelay(cfg.BaseRetryDelay()),
		retryhttp.WithMaxDelay(cfg.MaxRetryDelay()),
	)
	ids := identifier.New()
	versions := versionresolver.New()
	versionList := versionlist.New(fetcher)
	docParser := parser.New()
	tokens := tokenizer.NewExact(logger)
	truncator := truncate.New()
	sources := []core.SearchSource{
		search.NewFlutterSource(),
		search.NewDartSource(),
		search.NewPubSource(),
		search.NewConceptSource(),
	}

	c := core.New(limiter, cb, fetcher, store, ids, versions, versionList, docParser, tokens, truncator, sources)
	facade := handler.New(c)

	srv := mcpserver.NewMCPServer("flutter-mcp-server", version)
	handler.Register(srv, facade)

	logger.Info("starting flutter-mcp-server", "cache_dir", cacheDir, "version", version)
	return mcpserver.ServeStdio(srv)
}
