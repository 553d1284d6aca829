package core

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultSearchLimit and MaxSearchLimit bound the search tool's limit
// parameter (spec §6).
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 30
)

// perSourceTimeout bounds each fan-out leg (spec §4.K).
const perSourceTimeout = 3 * time.Second

// Search fans out to every configured SearchSource in parallel, merges
// and de-duplicates by canonical ID (max score wins), and returns the
// top-N results. A source failure or timeout is tolerated as long as
// at least one source succeeds (spec component K).
func (c *Core) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if query == "" {
		return nil, NewError(ErrInvalidInput, "query must not be empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	type outcome struct {
		source  string
		results []SearchResult
		err     error
	}
	outcomes := make([]outcome, len(c.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.Sources {
		i, src := i, src
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, perSourceTimeout)
			defer cancel()
			results, err := src.Search(sctx, query, limit)
			outcomes[i] = outcome{source: src.Name(), results: results, err: err}
			return nil // never fail the group: partial results are tolerated
		})
	}
	_ = g.Wait()

	merged := map[string]SearchResult{}
	var failed []string
	succeeded := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.source)
			continue
		}
		succeeded++
		for _, r := range o.results {
			if existing, ok := merged[r.ID]; !ok || r.Relevance > existing.Relevance {
				merged[r.ID] = r
			}
		}
	}

	if succeeded == 0 && len(c.Sources) > 0 {
		return nil, NewError(ErrNetwork, "all search sources failed").WithContext(map[string]any{"failed_sources": failed})
	}

	all := make([]SearchResult, 0, len(merged))
	for _, r := range merged {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Relevance != all[j].Relevance {
			return all[i].Relevance > all[j].Relevance
		}
		return all[i].ID < all[j].ID
	})

	totalFound := len(all)
	if len(all) > limit {
		all = all[:limit]
	}

	return &SearchResponse{
		Query:         query,
		Results:       all,
		Partial:       len(failed) > 0,
		FailedSources: failed,
		TotalFound:    totalFound,
	}, nil
}
