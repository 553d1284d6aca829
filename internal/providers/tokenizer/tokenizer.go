// Package tokenizer counts tokens in a rendered document, either by a
// word-based approximation or via a model-specific tokenizer (spec
// component I).
package tokenizer

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// TokensPerWord is the default-mode approximation factor (spec §4.I).
const TokensPerWord = 1.3

// DefaultEncoding names the tiktoken encoding used in exact mode.
const DefaultEncoding = "cl100k_base"

// Approximate implements core.TokenCounter using the word-count
// approximation: O(n) in string length, splitting on Unicode
// whitespace.
type Approximate struct{}

var _ core.TokenCounter = Approximate{}

// Count returns len(fields(s)) * 1.3, rounded up.
func (Approximate) Count(s string) int {
	words := len(strings.Fields(s))
	return int(float64(words)*TokensPerWord + 0.999999)
}

// Exact implements core.TokenCounter via pkoukk/tiktoken-go, falling
// back to Approximate if the encoding cannot be loaded (spec §4.I).
type Exact struct {
	log      *slog.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
	loadErr  error
	fallback Approximate
}

var _ core.TokenCounter = (*Exact)(nil)

// NewExact returns an Exact counter using DefaultEncoding; a nil log
// means slog.Default().
func NewExact(log *slog.Logger) *Exact {
	if log == nil {
		log = slog.Default()
	}
	return &Exact{log: log}
}

func (e *Exact) load() {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	e.encoding, e.loadErr = enc, err
	if err != nil {
		e.log.Warn("tiktoken encoding unavailable, falling back to word-count approximation", "encoding", DefaultEncoding, "error", err)
	}
}

// Count tokenizes s exactly, or falls back to the 1.3-tokens/word
// approximation if the encoding failed to load.
func (e *Exact) Count(s string) int {
	e.once.Do(e.load)
	if e.loadErr != nil || e.encoding == nil {
		return e.fallback.Count(s)
	}
	return len(e.encoding.Encode(s, nil, nil))
}
