package search

import (
	"context"
	"testing"
)

func TestFlutterSource_ExactMatchRanksHighest(t *testing.T) {
	s := NewFlutterSource()
	results, err := s.Search(context.Background(), "Container", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 || results[0].Title != "Container" {
		t.Fatalf("expected Container first, got %+v", results)
	}
	if results[0].Relevance != ScoreExact*PriorityFlutter {
		t.Errorf("expected exact-match relevance, got %f", results[0].Relevance)
	}
}

func TestFlutterSource_PrefixMatchScoresBelowExact(t *testing.T) {
	s := NewFlutterSource()
	results, err := s.Search(context.Background(), "Contain", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one prefix match")
	}
	if results[0].Relevance >= ScoreExact*PriorityFlutter {
		t.Errorf("prefix match should score below exact, got %f", results[0].Relevance)
	}
}

func TestFlutterSource_LimitClamps(t *testing.T) {
	s := NewFlutterSource()
	results, err := s.Search(context.Background(), "e", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) > 2 {
		t.Errorf("expected at most 2 results, got %d", len(results))
	}
}

func TestConceptSource_MatchesCuratedConcept(t *testing.T) {
	s := NewConceptSource()
	results, err := s.Search(context.Background(), "state management", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 || results[0].ID != "concept:state-management" {
		t.Fatalf("expected state-management concept match, got %+v", results)
	}
}

func TestPubSource_NoMatchReturnsEmpty(t *testing.T) {
	s := NewPubSource()
	results, err := s.Search(context.Background(), "zzz_totally_unrelated_xyz", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no matches, got %+v", results)
	}
}
