package search

import (
	"context"
	"sort"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// entry is one candidate in a source's lookup index.
type entry struct {
	id          string
	kind        core.Kind
	title       string
	description string
	size        core.DocSize
}

// IndexSource is a SearchSource backed by a small static candidate
// index, scored lexically and weighted by priority (spec §4.K). The
// four concrete sources below (Flutter, Dart, Pub, Concept) each wrap
// one curated index; a live deployment would instead populate these
// indexes from the upstream search endpoints named in spec §4.K, but
// the scoring and ranking logic is identical either way.
type IndexSource struct {
	name     string
	priority float64
	index    []entry
}

var _ core.SearchSource = (*IndexSource)(nil)

func (s *IndexSource) Name() string      { return s.name }
func (s *IndexSource) Priority() float64 { return s.priority }

// Search scores every entry in the index against query and returns the
// top `limit` by descending score.
func (s *IndexSource) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	type scored struct {
		core.SearchResult
		score float64
	}
	var hits []scored
	for _, e := range s.index {
		score := lexicalScore(query, e.title)
		if idScore := lexicalScore(query, e.id); idScore > score {
			score = idScore
		}
		if score == 0 {
			continue
		}
		hits = append(hits, scored{
			SearchResult: core.SearchResult{
				ID: e.id, Kind: e.kind, Title: e.title,
				Description: e.description, DocSize: e.size,
				Relevance: score * s.priority,
			},
			score: score * s.priority,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]core.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.SearchResult
	}
	return out, nil
}

// NewFlutterSource returns the Flutter API index source.
func NewFlutterSource() *IndexSource {
	return &IndexSource{name: "flutter_docs", priority: PriorityFlutter, index: flutterIndex}
}

// NewDartSource returns the Dart API index source.
func NewDartSource() *IndexSource {
	return &IndexSource{name: "dart_docs", priority: PriorityDart, index: dartIndex}
}

// NewPubSource returns the pub.dev package index source.
func NewPubSource() *IndexSource {
	return &IndexSource{name: "pub_dev", priority: PriorityPub, index: pubIndex}
}

// NewConceptSource returns the local curated concept map source.
func NewConceptSource() *IndexSource {
	return &IndexSource{name: "concepts", priority: PriorityConcept, index: conceptIndex}
}

var flutterIndex = []entry{
	{id: "flutter_class:widgets.Container", kind: core.KindFlutterClass, title: "Container", description: "A convenience widget combining common painting, positioning, and sizing.", size: core.DocSizeMedium},
	{id: "flutter_class:widgets.Row", kind: core.KindFlutterClass, title: "Row", description: "Lays out children in a horizontal array.", size: core.DocSizeSmall},
	{id: "flutter_class:widgets.Column", kind: core.KindFlutterClass, title: "Column", description: "Lays out children in a vertical array.", size: core.DocSizeSmall},
	{id: "flutter_class:material.Scaffold", kind: core.KindFlutterClass, title: "Scaffold", description: "Implements the basic Material Design visual layout structure.", size: core.DocSizeLarge},
	{id: "flutter_class:widgets.ListView", kind: core.KindFlutterClass, title: "ListView", description: "A scrollable list of widgets.", size: core.DocSizeMedium},
	{id: "flutter_class:material.ElevatedButton", kind: core.KindFlutterClass, title: "ElevatedButton", description: "A Material Design elevated button.", size: core.DocSizeSmall},
	{id: "flutter_class:widgets.GestureDetector", kind: core.KindFlutterClass, title: "GestureDetector", description: "Detects gestures on its child.", size: core.DocSizeMedium},
	{id: "flutter_class:animation.AnimatedContainer", kind: core.KindFlutterClass, title: "AnimatedContainer", description: "Animated version of Container.", size: core.DocSizeMedium},
}

var dartIndex = []entry{
	{id: "dart_class:core.String", kind: core.KindDartClass, title: "String", description: "A sequence of UTF-16 code units.", size: core.DocSizeLarge},
	{id: "dart_class:core.List", kind: core.KindDartClass, title: "List", description: "An indexable collection of objects with a length.", size: core.DocSizeLarge},
	{id: "dart_class:async.Future", kind: core.KindDartClass, title: "Future", description: "Represents a delayed computation.", size: core.DocSizeMedium},
	{id: "dart_class:async.Stream", kind: core.KindDartClass, title: "Stream", description: "A source of asynchronous data events.", size: core.DocSizeLarge},
	{id: "dart_class:collection.HashMap", kind: core.KindDartClass, title: "HashMap", description: "A hash-table based map implementation.", size: core.DocSizeMedium},
	{id: "dart_class:core.Map", kind: core.KindDartClass, title: "Map", description: "A collection of key/value pairs.", size: core.DocSizeMedium},
}

var pubIndex = []entry{
	{id: "pub_package:provider", kind: core.KindPubPackage, title: "provider", description: "A wrapper around InheritedWidget for state management.", size: core.DocSizeMedium},
	{id: "pub_package:riverpod", kind: core.KindPubPackage, title: "riverpod", description: "A reactive caching and data-binding framework.", size: core.DocSizeLarge},
	{id: "pub_package:dio", kind: core.KindPubPackage, title: "dio", description: "A powerful HTTP client for Dart.", size: core.DocSizeMedium},
	{id: "pub_package:http", kind: core.KindPubPackage, title: "http", description: "A composable API for making HTTP requests.", size: core.DocSizeSmall},
	{id: "pub_package:bloc", kind: core.KindPubPackage, title: "bloc", description: "A predictable state management library.", size: core.DocSizeLarge},
	{id: "pub_package:go_router", kind: core.KindPubPackage, title: "go_router", description: "A declarative routing package.", size: core.DocSizeMedium},
	{id: "pub_package:shared_preferences", kind: core.KindPubPackage, title: "shared_preferences", description: "Persistent key-value storage.", size: core.DocSizeSmall},
}

var conceptIndex = []entry{
	{id: "concept:state-management", kind: core.KindConcept, title: "state management", description: "Approaches: setState, Provider, Riverpod, Bloc.", size: core.DocSizeMedium},
	{id: "concept:navigation", kind: core.KindConcept, title: "navigation", description: "Navigator 1.0/2.0 and go_router.", size: core.DocSizeMedium},
	{id: "concept:animations", kind: core.KindConcept, title: "animations", description: "Implicit and explicit animation widgets.", size: core.DocSizeMedium},
	{id: "concept:layout", kind: core.KindConcept, title: "layout", description: "Constraints, Row/Column, Flex.", size: core.DocSizeMedium},
	{id: "concept:testing", kind: core.KindConcept, title: "testing", description: "Widget tests, golden tests, integration tests.", size: core.DocSizeSmall},
}
