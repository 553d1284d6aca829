// Package handler implements the MCP tool facade (spec component L)
// and the legacy alias layer (spec §4.P) on top of internal/core. It
// contains no business logic of its own: it decodes tool arguments
// into core request structs, calls Core, and re-encodes results.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
	"github.com/flutter-mcp/flutter-mcp-server/internal/metrics"
)

// Facade wraps a *core.Core and exposes the three primary tool
// operations plus the legacy aliases, recording metrics at the
// boundary (spec §4.N: "this repo only registers and updates them").
type Facade struct {
	core *core.Core
}

// New returns a Facade over core.
func New(c *core.Core) *Facade { return &Facade{core: c} }

// DocsInput is the JSON shape of the docs() tool call (spec §6).
type DocsInput struct {
	Identifier string `json:"identifier"`
	Topic      string `json:"topic,omitempty"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
}

// DocsOutput is the JSON shape docs() returns on success (spec §6).
type DocsOutput struct {
	Identifier     string `json:"identifier"`
	Kind           string `json:"kind"`
	SourceURL      string `json:"source_url"`
	Source         string `json:"source"`
	Content        string `json:"content"`
	TokenCount     int    `json:"token_count"`
	Truncated      bool   `json:"truncated"`
	OriginalTokens int    `json:"original_tokens,omitempty"`
	TTLRemainingMs int64  `json:"ttl_remaining_ms"`
}

// Docs implements the docs tool operation. The raw JSON argument bag is
// decoded strictly: an unknown field is an InvalidInput error (spec §4.M).
func (f *Facade) Docs(ctx context.Context, raw json.RawMessage) (*DocsOutput, error) {
	var in DocsInput
	if err := decodeStrict(raw, &in); err != nil {
		return nil, err
	}
	return f.docs(ctx, in)
}

func (f *Facade) docs(ctx context.Context, in DocsInput) (*DocsOutput, error) {
	reqID := uuid.New().String()
	log := slog.Default().With("request_id", reqID, "tool", "docs")
	log.Debug("handling docs request", "identifier", in.Identifier)

	req := core.DocRequest{
		Identifier: in.Identifier,
		Topic:      core.Topic(in.Topic),
		MaxTokens:  in.MaxTokens,
	}

	doc, err := f.core.Docs(ctx, req)
	if err != nil {
		log.Warn("docs request failed", "error", err)
		recordFetchOutcome("unknown", "error")
		return nil, err
	}

	log.Info("docs request resolved", "canonical_id", doc.CanonicalID, "source", doc.Source)
	recordFetchOutcome(kindOfCanonicalID(doc.CanonicalID), "success")
	if doc.Source == core.SourceCache {
		metrics.CacheHitTotal.Inc()
	} else {
		metrics.CacheMissTotal.Inc()
	}
	if doc.Truncated {
		metrics.TruncationTotal.WithLabelValues("truncated").Inc()
	} else {
		metrics.TruncationTotal.WithLabelValues("unchanged").Inc()
	}

	return &DocsOutput{
		Identifier:     doc.CanonicalID,
		Kind:           kindOfCanonicalID(doc.CanonicalID),
		SourceURL:      doc.SourceURL,
		Source:         string(doc.Source),
		Content:        doc.Content,
		TokenCount:     doc.TokenCount,
		Truncated:      doc.Truncated,
		OriginalTokens: doc.OriginalTokens,
		TTLRemainingMs: doc.TTLRemaining(f.core.Now()),
	}, nil
}

// SearchInput is the JSON shape of the search() tool call (spec §6).
type SearchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchOutput is the JSON shape search() returns (spec §6).
type SearchOutput struct {
	Query         string              `json:"query"`
	Results       []core.SearchResult `json:"results"`
	Partial       bool                `json:"partial"`
	FailedSources []string            `json:"failed_sources,omitempty"`
	TotalFound    int                 `json:"total_found"`
}

// Search implements the search tool operation.
func (f *Facade) Search(ctx context.Context, raw json.RawMessage) (*SearchOutput, error) {
	var in SearchInput
	if err := decodeStrict(raw, &in); err != nil {
		return nil, err
	}
	resp, err := f.core.Search(ctx, in.Query, in.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{
		Query:         resp.Query,
		Results:       resp.Results,
		Partial:       resp.Partial,
		FailedSources: resp.FailedSources,
		TotalFound:    resp.TotalFound,
	}, nil
}

// StatusOutput is the JSON shape status() returns (spec §6).
type StatusOutput struct {
	Status    string            `json:"status"`
	Cache     CacheOutput       `json:"cache"`
	Upstreams map[string]string `json:"upstreams"`
	UptimeMs  int64             `json:"uptime_ms"`
}

// CacheOutput is the cache sub-object of status() (spec §6).
type CacheOutput struct {
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"size_bytes"`
	HitRate   float64 `json:"hit_rate"`
}

// Status implements the status tool operation.
func (f *Facade) Status(ctx context.Context) (*StatusOutput, error) {
	resp, err := f.core.Status(ctx)
	if err != nil {
		return nil, err
	}
	for upstream, state := range resp.Upstreams {
		metrics.CircuitState.WithLabelValues(upstream).Set(metrics.CircuitStateValue(state))
	}
	return &StatusOutput{
		Status: resp.Status,
		Cache: CacheOutput{
			Entries:   resp.Cache.Entries,
			SizeBytes: resp.Cache.TotalBytes,
			HitRate:   resp.Cache.HitRateWindow,
		},
		Upstreams: resp.Upstreams,
		UptimeMs:  resp.UptimeMs,
	}, nil
}

func recordFetchOutcome(kind, outcome string) {
	metrics.FetchTotal.WithLabelValues(kind, outcome).Inc()
}

func kindOfCanonicalID(id string) string {
	for i, c := range id {
		if c == ':' {
			return id[:i]
		}
	}
	return "unknown"
}

// decodeStrict unmarshals raw into v, rejecting unknown JSON fields as
// an InvalidInput error (spec §4.M).
func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("invalid tool input: %v", err))
	}
	return nil
}
