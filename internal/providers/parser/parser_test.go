package parser

import (
	"strings"
	"testing"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

const sampleClassHTML = `
<html><body>
<script>var x = 1;</script>
<nav>site nav</nav>
<h1>Container class</h1>
<section class="description">A convenience widget.</section>
<section class="constructor-summary">Container({Key? key})</section>
<section class="properties-summary">child → Widget</section>
<footer>copyright</footer>
</body></html>`

func TestParseHTML_StripsChromeAndExtractsSections(t *testing.T) {
	p := New()
	r := &core.ResolvedIdentifier{Kind: core.KindFlutterClass, Library: "widgets", Name: "Container"}
	doc, err := p.ParseHTML(nil, "https://api.flutter.dev/flutter/widgets/Container-class.html", []byte(sampleClassHTML), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Container class" {
		t.Errorf("expected title from h1, got %q", doc.Title)
	}
	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
		if strings.Contains(s.Body, "site nav") || strings.Contains(s.Body, "copyright") {
			t.Errorf("chrome leaked into section %q: %q", s.Heading, s.Body)
		}
	}
	if !contains(headings, "Description") || !contains(headings, "Constructors") {
		t.Errorf("expected Description and Constructors sections, got %v", headings)
	}
}

const sampleClassHTMLWithLinks = `
<html><body>
<h1>Container class</h1>
<section class="description">See also <a href="/flutter/widgets/Padding-class.html">Padding</a> and <a href="https://dart.dev/guides">the guide</a>.</section>
</body></html>`

func TestParseHTML_RendersAnchorsAsInlineMarkdownLinks(t *testing.T) {
	p := New()
	r := &core.ResolvedIdentifier{Kind: core.KindFlutterClass, Library: "widgets", Name: "Container"}
	doc, err := p.ParseHTML(nil, "https://api.flutter.dev/flutter/widgets/Container-class.html", []byte(sampleClassHTMLWithLinks), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var desc string
	for _, s := range doc.Sections {
		if s.Heading == "Description" {
			desc = s.Body
		}
	}
	if !strings.Contains(desc, "[Padding](https://api.flutter.dev/flutter/widgets/Padding-class.html)") {
		t.Errorf("expected relative anchor rendered as absolute inline markdown link, got %q", desc)
	}
	if !strings.Contains(desc, "[the guide](https://dart.dev/guides)") {
		t.Errorf("expected already-absolute anchor rendered as inline markdown link, got %q", desc)
	}
}

func TestParsePubPackage_DegradesWithoutReadme(t *testing.T) {
	p := New()
	meta := []byte(`{"name":"provider","latest":{"version":"6.1.2","pubspec":{"description":"A state management library"}},"versions":[{"version":"6.1.0"},{"version":"6.1.1"},{"version":"6.1.2"}]}`)

	doc, err := p.ParsePubPackage(nil, meta, nil, &core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: "provider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "provider 6.1.2" {
		t.Errorf("unexpected title: %q", doc.Title)
	}
	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	if contains(headings, "Getting Started") {
		t.Error("should not include Getting Started without a README")
	}
	if !contains(headings, "Installation") || !contains(headings, "Changelog") {
		t.Errorf("expected Installation and Changelog, got %v", headings)
	}
}

func TestParsePubPackage_MergesReadme(t *testing.T) {
	p := New()
	meta := []byte(`{"name":"dio","latest":{"version":"5.0.0","pubspec":{"description":"HTTP client"}},"versions":[{"version":"5.0.0"}]}`)
	readme := []byte(`<html><body><h1>dio</h1><p>Getting started text.</p></body></html>`)

	doc, err := p.ParsePubPackage(nil, meta, readme, &core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: "dio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found bool
	for _, s := range doc.Sections {
		if s.Heading == "Getting Started" && strings.Contains(s.Body, "Getting started text.") {
			found = true
		}
	}
	if !found {
		t.Error("expected README content merged into Getting Started section")
	}
}

func TestParsePubPackage_ChangelogBoundedToLastThree(t *testing.T) {
	p := New()
	meta := []byte(`{"name":"x","latest":{"version":"4.0.0"},"versions":[{"version":"1.0.0"},{"version":"2.0.0"},{"version":"3.0.0"},{"version":"4.0.0"}]}`)
	doc, _ := p.ParsePubPackage(nil, meta, nil, &core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: "x"})
	for _, s := range doc.Sections {
		if s.Heading == "Changelog" {
			if strings.Contains(s.Body, "1.0.0") {
				t.Errorf("changelog should be bounded to last 3 versions, got %q", s.Body)
			}
			if !strings.Contains(s.Body, "4.0.0") || !strings.Contains(s.Body, "2.0.0") {
				t.Errorf("expected last 3 versions present, got %q", s.Body)
			}
		}
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
