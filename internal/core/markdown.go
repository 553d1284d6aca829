package core

import (
	"strconv"
	"strings"
)

// renderMarkdown and parseCanonicalFromMarkdown are inverses of each
// other (spec §8: "parsing then serializing the canonical document is
// stable"). Section priority, which plain Markdown has no syntax for,
// is carried in an HTML comment before each heading (code-block
// language hints stay on the ``` fence line), so the
// stored cache BLOB stays ordinary Markdown while still letting the
// Truncator recover per-section priority on a cache-hit path without
// re-fetching or re-scraping the upstream HTML.
const (
	priorityMarkerPrefix = "<!-- priority:"
	markerSuffix         = " -->"
)

// renderMarkdown serializes a CanonicalDocument into the canonical
// section-labelled Markdown described in spec §4.H.
func renderMarkdown(doc *CanonicalDocument) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(doc.Title)
	b.WriteString("\n\n")
	for _, s := range doc.Sections {
		b.WriteString(priorityMarkerPrefix)
		b.WriteString(s.Priority.String())
		b.WriteString(markerSuffix)
		b.WriteString("\n## ")
		b.WriteString(s.Heading)
		b.WriteString("\n\n")
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// parseCanonicalFromMarkdown recovers the CanonicalDocument tree from
// Markdown previously produced by renderMarkdown.
func parseCanonicalFromMarkdown(content string) *CanonicalDocument {
	lines := strings.Split(content, "\n")
	doc := &CanonicalDocument{}

	var cur *Section
	pendingPriority := PriorityCritical
	inFence := false
	fenceStart := 0
	fenceLang := ""

	flush := func(bodyLines []string) string {
		return strings.TrimRight(strings.Join(bodyLines, "\n"), "\n")
	}
	var bodyLines []string

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "# ") && doc.Title == "" && cur == nil:
			doc.Title = strings.TrimPrefix(line, "# ")
		case strings.HasPrefix(line, priorityMarkerPrefix):
			pendingPriority = parsePriority(strings.TrimSuffix(strings.TrimPrefix(line, priorityMarkerPrefix), markerSuffix))
		case strings.HasPrefix(line, "## "):
			if cur != nil {
				cur.Body = flush(bodyLines)
				doc.Sections = append(doc.Sections, *cur)
			}
			cur = &Section{Heading: strings.TrimPrefix(line, "## "), Priority: pendingPriority}
			bodyLines = nil
		default:
			if cur != nil {
				if strings.HasPrefix(strings.TrimSpace(line), "```") {
					if !inFence {
						inFence = true
						fenceStart = len(bodyLines)
						fenceLang = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
					} else {
						inFence = false
						cur.CodeBlocks = append(cur.CodeBlocks, CodeBlock{
							Lang:      fenceLang,
							StartLine: fenceStart,
							EndLine:   len(bodyLines),
						})
					}
				}
				bodyLines = append(bodyLines, line)
			}
		}
	}
	if cur != nil {
		cur.Body = flush(bodyLines)
		doc.Sections = append(doc.Sections, *cur)
	}
	return doc
}

func parsePriority(s string) Priority {
	switch s {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	case "minimal":
		return PriorityMinimal
	default:
		return PriorityMedium
	}
}

// sectionHeadingToTopic maps canonical section headings to the closed
// topic set so filterTopic can match spec's topic filter (§4.H).
var sectionHeadingToTopic = map[string]Topic{
	"Description":     TopicSummary,
	"Constructors":    TopicConstructors,
	"Installation":    TopicInstallation,
	"Properties":      TopicProperties,
	"Getting Started": TopicGettingStarted,
	"Methods":         TopicMethods,
	"API":             TopicAPI,
	"Examples":        TopicExamples,
	"Changelog":       TopicChangelog,
}

// filterTopic returns a CanonicalDocument containing only the section
// matching topic, plus the title. An empty match still returns the
// title and a one-line note (spec §4.H).
func filterTopic(doc *CanonicalDocument, topic Topic) *CanonicalDocument {
	out := &CanonicalDocument{Title: doc.Title}
	for _, s := range doc.Sections {
		if sectionHeadingToTopic[s.Heading] == topic {
			out.Sections = append(out.Sections, s)
		}
	}
	if len(out.Sections) == 0 {
		out.Sections = []Section{{
			Heading:  "Note",
			Body:     "No content available for topic " + strconv.Quote(string(topic)) + ".",
			Priority: PriorityCritical,
		}}
	}
	return out
}
