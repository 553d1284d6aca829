package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// Register attaches every tool named in spec §6 (the three primary
// operations plus the five legacy aliases, spec §4.P) to s.
func Register(s *server.MCPServer, f *Facade) {
	s.AddTool(mcp.NewTool("docs",
		mcp.WithDescription("Fetch Flutter/Dart/pub.dev documentation for a class, library member, or package"),
		mcp.WithString("identifier", mcp.Required(), mcp.Description(`Identifier to resolve, e.g. "Container", "material.AppBar", "dart:async.Future", "pub:dio", "pub:dio:^5.0.0"`)),
		mcp.WithString("topic", mcp.Description("Restrict the result to one section: summary, constructors, properties, methods, examples, getting-started, changelog, api, installation")),
		mcp.WithNumber("max_tokens", mcp.Description("Maximum tokens in the returned content (default 10000, minimum 500)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		return f.encodeResult(f.Docs(ctx, raw))
	})

	s.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search across Flutter, Dart, pub.dev, and conceptual documentation sources"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results returned (default 10, maximum 30)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		return f.encodeResult(f.Search(ctx, raw))
	})

	s.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report cache statistics and upstream circuit breaker state"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return f.encodeResult(f.Status(ctx))
	})

	s.AddTool(mcp.NewTool("get_flutter_docs",
		mcp.WithDescription("Legacy alias: fetch docs for a Flutter class by name and library"),
		mcp.WithString("class_name", mcp.Required()),
		mcp.WithString("library", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return f.encodeResult(f.GetFlutterDocs(ctx, stringArg(args, "class_name"), stringArg(args, "library")))
	})

	s.AddTool(mcp.NewTool("get_pub_package_info",
		mcp.WithDescription("Legacy alias: fetch docs for a pub.dev package, optionally pinned to a version"),
		mcp.WithString("package_name", mcp.Required()),
		mcp.WithString("version", mcp.Description("Optional version constraint")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return f.encodeResult(f.GetPubPackageInfo(ctx, stringArg(args, "package_name"), stringArg(args, "version")))
	})

	s.AddTool(mcp.NewTool("search_flutter_docs",
		mcp.WithDescription("Legacy alias: search across all documentation sources"),
		mcp.WithString("query", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return f.encodeResult(f.SearchFlutterDocs(ctx, stringArg(args, "query")))
	})

	s.AddTool(mcp.NewTool("process_flutter_mentions",
		mcp.WithDescription("Legacy alias: resolve every @flutter_mcp mention in a block of text"),
		mcp.WithString("text", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return f.encodeResult(f.ProcessFlutterMentions(ctx, stringArg(args, "text")))
	})

	s.AddTool(mcp.NewTool("health_check",
		mcp.WithDescription("Legacy alias: report server health (same payload as status)"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return f.encodeResult(f.HealthCheck(ctx))
	})
}

// encodeResult marshals a tool's successful result, or, on error, the
// wire-level Envelope (spec §7) rather than a flat error string, so
// error_type, suggestions, and context survive the MCP boundary.
func (f *Facade) encodeResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		env := core.NewEnvelope(core.AsError(err), f.core.Now().UnixMilli())
		b, encErr := json.Marshal(env)
		if encErr != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key].(string)
	if !ok {
		return ""
	}
	return v
}
