// Package parser turns raw upstream HTML and pub.dev JSON into the
// canonical section tree consumed by the rest of the pipeline (spec
// component H).
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// stripSelectors removes chrome that never belongs in a doc body
// (spec §4.H pipeline step 1).
var stripSelectors = []string{
	"script", "style", "nav", "header", "footer",
	".sidebar", ".breadcrumbs", ".footer",
}

// Parser implements core.DocumentParser via goquery for HTML and
// encoding/json for pub.dev package metadata.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

var _ core.DocumentParser = (*Parser)(nil)

// ParseHTML extracts a canonical section tree from a dartdoc-style API
// reference page (api.flutter.dev / api.dart.dev).
func (p *Parser) ParseHTML(ctx context.Context, sourceURL string, body []byte, r *core.ResolvedIdentifier) (*core.CanonicalDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, core.NewError(core.ErrUpstreamServerError, "parsing html response").WithCause(err)
	}

	for _, sel := range stripSelectors {
		doc.Find(sel).Remove()
	}
	absolutizeLinks(doc, sourceURL)

	title := r.Name
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if t := strings.TrimSpace(h1.Text()); t != "" {
			title = t
		}
	}

	sections := []core.Section{
		extractSection(doc, "Description", []string{"section.description", ".desc", "#dartdoc-main-content > section.multi-line"}, core.PriorityCritical),
	}

	if r.Kind == core.KindFlutterClass || r.Kind == core.KindDartClass {
		sections = append(sections,
			extractSection(doc, "Constructors", []string{"section.constructor-summary", "#constructors"}, core.PriorityHigh),
			extractSection(doc, "Properties", []string{"section.properties-summary", "#instance-properties"}, core.PriorityMedium),
			extractSection(doc, "Methods", []string{"section.methods-summary", "#instance-methods"}, core.PriorityMedium),
		)
	}

	sections = append(sections, extractSection(doc, "Examples", []string{"section.samples", ".sample-code"}, core.PriorityLow))

	return &core.CanonicalDocument{Title: title, Sections: nonEmpty(sections)}, nil
}

// pkgMeta mirrors the subset of pub.dev's /api/packages/{name} response
// this parser needs.
type pkgMeta struct {
	Name   string `json:"name"`
	Latest struct {
		Version string `json:"version"`
		Pubspec struct {
			Description string `json:"description"`
		} `json:"pubspec"`
	} `json:"latest"`
	Versions []struct {
		Version string `json:"version"`
	} `json:"versions"`
}

// ParsePubPackage merges pub.dev JSON metadata with a scraped README.
// A nil/empty readmeHTML degrades to a metadata-only document (spec
// §4.H's explicit degradation rule), never an error.
func (p *Parser) ParsePubPackage(ctx context.Context, metaJSON []byte, readmeHTML []byte, r *core.ResolvedIdentifier) (*core.CanonicalDocument, error) {
	var meta pkgMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, core.NewError(core.ErrUpstreamServerError, "parsing pub.dev package metadata").WithCause(err)
	}

	title := fmt.Sprintf("%s %s", meta.Name, meta.Latest.Version)
	sections := []core.Section{
		{Heading: "Description", Body: meta.Latest.Pubspec.Description, Priority: core.PriorityCritical},
		{Heading: "Installation", Body: installSnippet(meta.Name, meta.Latest.Version), Priority: core.PriorityHigh,
			CodeBlocks: []core.CodeBlock{{Lang: "yaml", StartLine: 1, EndLine: 3}}},
	}

	if len(readmeHTML) > 0 {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(readmeHTML)))
		if err == nil {
			for _, sel := range stripSelectors {
				doc.Find(sel).Remove()
			}
			if body := collapseWhitespace(renderInline(doc.Selection.Get(0))); body != "" {
				sections = append(sections, core.Section{Heading: "Getting Started", Body: body, Priority: core.PriorityMedium})
			}
		}
	}

	sections = append(sections, core.Section{
		Heading:  "Changelog",
		Body:     changelogBody(meta.Versions),
		Priority: core.PriorityLow,
	})

	return &core.CanonicalDocument{Title: title, Sections: nonEmpty(sections)}, nil
}

func installSnippet(name, version string) string {
	return fmt.Sprintf("```yaml\ndependencies:\n  %s: ^%s\n```", name, version)
}

// changelogBody bounds the changelog to the last 3 versions (spec §4.H).
func changelogBody(versions []struct {
	Version string `json:"version"`
}) string {
	n := len(versions)
	if n == 0 {
		return "No version history available."
	}
	if n > 3 {
		versions = versions[n-3:]
	}
	var b strings.Builder
	for i := len(versions) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "- %s\n", versions[i].Version)
	}
	return strings.TrimSpace(b.String())
}

func extractSection(doc *goquery.Document, heading string, selectors []string, priority core.Priority) core.Section {
	for _, sel := range selectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			return core.Section{
				Heading:    heading,
				Body:       collapseWhitespace(renderInline(node.Get(0))),
				Priority:   priority,
				CodeBlocks: extractCodeBlocks(node),
			}
		}
	}
	return core.Section{Heading: heading, Body: "", Priority: priority}
}

func extractCodeBlocks(sel *goquery.Selection) []core.CodeBlock {
	var blocks []core.CodeBlock
	sel.Find("pre code, pre").Each(func(i int, s *goquery.Selection) {
		lang := ""
		if class, ok := s.Attr("class"); ok {
			if m := langClassRe.FindStringSubmatch(class); m != nil {
				lang = m[1]
			}
		}
		blocks = append(blocks, core.CodeBlock{Lang: lang})
	})
	return blocks
}

var langClassRe = regexp.MustCompile(`language-(\w+)`)

// renderInline walks n's subtree, converting <a href> anchors into
// inline Markdown links and block-level elements into line breaks, so
// the rendered section body carries real, navigable link text instead
// of discarding it to bare text (spec §4.H: "convert anchor links to
// inline `[text](href)`"). absolutizeLinks runs over the whole
// document before this, so hrefs seen here are already absolute.
func renderInline(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type != html.ElementNode {
		return renderChildren(n)
	}

	inner := renderChildren(n)
	switch n.Data {
	case "a":
		href := htmlAttr(n, "href")
		text := strings.TrimSpace(inner)
		if href == "" || text == "" {
			return text
		}
		return fmt.Sprintf("[%s](%s)", text, href)
	case "br":
		return "\n"
	case "p", "li", "div", "section", "tr":
		return inner + "\n"
	default:
		return inner
	}
}

func renderChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(renderInline(c))
	}
	return b.String()
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var wsRe = regexp.MustCompile(`[ \t]+`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

func collapseWhitespace(s string) string {
	s = wsRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func absolutizeLinks(doc *goquery.Document, base string) {
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http") || href == "" {
			return
		}
		s.SetAttr("href", resolveRelative(base, href))
	})
}

func resolveRelative(base, href string) string {
	if strings.HasPrefix(href, "/") {
		if idx := strings.Index(base[8:], "/"); idx >= 0 {
			return base[:8+idx] + href
		}
	}
	idx := strings.LastIndex(base, "/")
	if idx < 0 {
		return href
	}
	return base[:idx+1] + href
}

func nonEmpty(sections []core.Section) []core.Section {
	out := make([]core.Section, 0, len(sections))
	for _, s := range sections {
		if s.Body != "" {
			out = append(out, s)
		}
	}
	return out
}
