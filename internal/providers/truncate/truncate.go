// Package truncate fits a canonical document into a token budget while
// preserving structure, per the priority-tiered algorithm in spec
// component J. It has no sensible third-party library to lean on: this
// is a structural tree-walk specific to the canonical section format
// defined in internal/core, so it is built on the standard library
// (see DESIGN.md).
package truncate

import (
	"fmt"
	"strings"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// Truncator implements core.Truncator.
type Truncator struct{}

// New returns a Truncator.
func New() *Truncator { return &Truncator{} }

var _ core.Truncator = (*Truncator)(nil)

// Truncate implements spec §4.J's drop/reduce/trim cascade: Minimal,
// then Low are dropped wholesale; Medium is kept proportionally (first
// N sections that fit); High is trimmed to a one-line summary; Critical
// is never touched.
func (t *Truncator) Truncate(doc *core.CanonicalDocument, maxTokens int, counter core.TokenCounter) (*core.TruncationResult, error) {
	if doc == nil {
		return nil, core.NewError(core.ErrInvalidInput, "nil document")
	}

	full := render(doc.Title, doc.Sections)
	originalTokens := counter.Count(full)
	if originalTokens <= maxTokens {
		return &core.TruncationResult{
			Content: full, Truncated: false,
			OriginalTokens: originalTokens, TokenCount: originalTokens,
			SectionsKept: headings(doc.Sections),
		}, nil
	}

	kept := append([]core.Section(nil), doc.Sections...)
	var dropped []string

	kept, dropped = dropTier(kept, core.PriorityMinimal, dropped)
	if counter.Count(render(doc.Title, kept)) <= maxTokens {
		return finish(doc.Title, kept, dropped, originalTokens, counter, true)
	}

	kept, dropped = dropTier(kept, core.PriorityLow, dropped)
	if counter.Count(render(doc.Title, kept)) <= maxTokens {
		return finish(doc.Title, kept, dropped, originalTokens, counter, true)
	}

	kept = reduceMediumProportionally(kept, doc.Title, maxTokens, counter)
	if counter.Count(render(doc.Title, kept)) <= maxTokens {
		return finish(doc.Title, kept, dropped, originalTokens, counter, true)
	}

	kept = trimHighToOneLine(kept)
	return finish(doc.Title, kept, dropped, originalTokens, counter, true)
}

func dropTier(sections []core.Section, tier core.Priority, dropped []string) ([]core.Section, []string) {
	kept := sections[:0:0]
	for _, s := range sections {
		if s.Priority == tier {
			dropped = append(dropped, s.Heading)
			continue
		}
		kept = append(kept, s)
	}
	return kept, dropped
}

// reduceMediumProportionally keeps the first N Medium sections whose
// combined tokens fit within the remaining budget after Critical/High
// content, per spec §4.J step 3.
func reduceMediumProportionally(sections []core.Section, title string, maxTokens int, counter core.TokenCounter) []core.Section {
	var protected, medium []core.Section
	for _, s := range sections {
		if s.Priority == core.PriorityMedium {
			medium = append(medium, s)
		} else {
			protected = append(protected, s)
		}
	}

	base := counter.Count(render(title, protected))
	budget := maxTokens - base

	var out []core.Section
	out = append(out, protected...)
	used := 0
	for _, s := range medium {
		cost := counter.Count(s.Body)
		if used+cost > budget {
			break
		}
		used += cost
		out = append(out, s)
	}
	return reorder(sections, out)
}

// reorder restores original section ordering after a subset selection,
// since priority tiers are interleaved through the document.
func reorder(original []core.Section, subset []core.Section) []core.Section {
	keep := make(map[string]bool, len(subset))
	for _, s := range subset {
		keep[s.Heading] = true
	}
	out := make([]core.Section, 0, len(subset))
	for _, s := range original {
		if keep[s.Heading] {
			out = append(out, s)
			keep[s.Heading] = false // dedupe identical headings
		}
	}
	return out
}

// trimHighToOneLine reduces every High-priority section's Body to its
// first sentence/line, cutting code blocks on line boundaries and
// closing any dangling braces/brackets before the fence closes (spec
// §4.J step 4).
func trimHighToOneLine(sections []core.Section) []core.Section {
	out := make([]core.Section, len(sections))
	for i, s := range sections {
		if s.Priority != core.PriorityHigh {
			out[i] = s
			continue
		}
		out[i] = s
		out[i].Body = firstLine(s.Body)
	}
	return out
}

func firstLine(body string) string {
	if inFence, closed := fenceState(body); inFence && !closed {
		return closeDanglingFence(body)
	}
	if strings.HasPrefix(strings.TrimSpace(body), "```") {
		return closeDanglingFence(body)
	}
	if idx := strings.IndexAny(body, ".\n"); idx >= 0 {
		return strings.TrimSpace(body[:idx+1])
	}
	return strings.TrimSpace(body)
}

// fenceState reports whether body ends inside an open ``` fence.
func fenceState(body string) (inFence, closed bool) {
	count := strings.Count(body, "```")
	return count%2 == 1, count%2 == 0
}

// closeDanglingFence truncates a code block to its first line, closing
// any unbalanced braces/brackets and appending a "// …" marker before
// the fence closer (spec §4.J step 4).
func closeDanglingFence(body string) string {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 {
		return body
	}
	var b strings.Builder
	braces, brackets := 0, 0
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
		braces += strings.Count(l, "{") - strings.Count(l, "}")
		brackets += strings.Count(l, "[") - strings.Count(l, "]")
		if !strings.HasPrefix(strings.TrimSpace(l), "```") {
			break
		}
	}
	if braces > 0 || brackets > 0 {
		b.WriteString("// …\n")
		for ; brackets > 0; brackets-- {
			b.WriteString("]\n")
		}
		for ; braces > 0; braces-- {
			b.WriteString("}\n")
		}
	}
	b.WriteString("```")
	return b.String()
}

func finish(title string, sections []core.Section, dropped []string, originalTokens int, counter core.TokenCounter, truncated bool) (*core.TruncationResult, error) {
	content := render(title, sections)
	if truncated {
		content = appendFooter(content, dropped)
	}
	return &core.TruncationResult{
		Content:         content,
		Truncated:       truncated,
		OriginalTokens:  originalTokens,
		TokenCount:      counter.Count(content),
		SectionsKept:    headings(sections),
		SectionsDropped: dropped,
	}, nil
}

func appendFooter(content string, dropped []string) string {
	if len(dropped) == 0 {
		return content + "\n\n_Truncated to fit the requested token budget._\n"
	}
	return content + fmt.Sprintf("\n\n_Truncated to fit the requested token budget; omitted sections: %s._\n", strings.Join(dropped, ", "))
}

func headings(sections []core.Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Heading
	}
	return out
}

func render(title string, sections []core.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Heading, s.Body)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
