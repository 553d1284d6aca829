// Package search implements the four fan-out legs of the search
// orchestrator (spec component K): Flutter API index, Dart API index,
// pub.dev search, and a local curated concept map, sharing one lexical
// scoring function.
package search

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Score weights per spec §4.K.
const (
	ScoreExact    = 1.0
	ScorePrefix   = 0.7
	ScoreSubstr   = 0.4
	ScoreFuzzy    = 0.3
	FuzzyMaxEdits = 2
)

// Source priority weights per spec §4.K.
const (
	PriorityFlutter = 1.0
	PriorityPub     = 0.9
	PriorityDart    = 0.8
	PriorityConcept = 0.7
)

// lexicalScore computes the per-source score for candidate against
// query, before the source's priority weight is applied. Returns 0 if
// no rule matches.
func lexicalScore(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}

	if q == c {
		return ScoreExact
	}
	if strings.HasPrefix(c, q) {
		return ScorePrefix
	}
	if strings.Contains(c, q) {
		return ScoreSubstr
	}
	if levenshtein.ComputeDistance(q, c) <= FuzzyMaxEdits {
		return ScoreFuzzy
	}
	return 0
}
