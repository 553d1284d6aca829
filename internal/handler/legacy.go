package handler

import (
	"context"
	"fmt"
	"regexp"
)

// LegacyDocsArgs / LegacyPackageArgs / LegacySearchArgs / LegacyMentionsArgs
// are the argument shapes of the five legacy tool aliases mapped onto
// docs/search/status verbatim per spec §4.P / spec.md §6.

// GetFlutterDocs implements get_flutter_docs(class_name, library) ->
// docs("{library}.{class_name}").
func (f *Facade) GetFlutterDocs(ctx context.Context, className, library string) (*DocsOutput, error) {
	return f.docs(ctx, DocsInput{Identifier: library + "." + className})
}

// GetPubPackageInfo implements get_pub_package_info(package_name, version?)
// -> docs("pub:{name}[:{version}]").
func (f *Facade) GetPubPackageInfo(ctx context.Context, packageName, version string) (*DocsOutput, error) {
	id := "pub:" + packageName
	if version != "" {
		id += ":" + version
	}
	return f.docs(ctx, DocsInput{Identifier: id})
}

// SearchFlutterDocs implements search_flutter_docs(query) -> search(query).
func (f *Facade) SearchFlutterDocs(ctx context.Context, query string) (*SearchOutput, error) {
	resp, err := f.core.Search(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{
		Query: resp.Query, Results: resp.Results,
		Partial: resp.Partial, FailedSources: resp.FailedSources,
		TotalFound: resp.TotalFound,
	}, nil
}

// HealthCheck implements health_check() -> status().
func (f *Facade) HealthCheck(ctx context.Context) (*StatusOutput, error) {
	return f.Status(ctx)
}

// mentionRe matches "@flutter_mcp {id}" or "@flutter_mcp {id}:{version}"
// tokens embedded in free-form text (spec §4.P).
var mentionRe = regexp.MustCompile(`@flutter_mcp\s+([^\s:]+)(?::([^\s]+))?`)

// ProcessFlutterMentions implements process_flutter_mentions(text):
// extracts every @flutter_mcp mention, resolves each via docs(), and
// returns a map keyed by canonical_id. Per Open Question 2 (Design
// Notes §9), duplicate mentions collapse to one entry per canonical_id;
// if two distinct mention strings resolve to the same canonical_id, the
// later one in the text wins.
func (f *Facade) ProcessFlutterMentions(ctx context.Context, text string) (map[string]*DocsOutput, error) {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	out := make(map[string]*DocsOutput, len(matches))

	for _, m := range matches {
		id := m[1]
		if m[2] != "" {
			id = id + ":" + m[2]
		}

		doc, err := f.docs(ctx, DocsInput{Identifier: id})
		if err != nil {
			out[fmt.Sprintf("error:%s", id)] = nil
			continue
		}
		out[doc.Identifier] = doc
	}
	return out, nil
}
