package identifier

import (
	"reflect"
	"testing"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

func TestResolve_PubPrefixWithVersion(t *testing.T) {
	r := New()
	got, err := r.Resolve("pub:provider:^6.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindPubPackage || got.Name != "provider" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.VersionSpec == nil || got.VersionSpec.Kind != core.VersionSpecCaret {
		t.Errorf("expected caret version spec, got %+v", got.VersionSpec)
	}
}

func TestResolve_PubPrefixNoVersion(t *testing.T) {
	r := New()
	got, err := r.Resolve("pub:dio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindPubPackage || got.Name != "dio" || got.VersionSpec != nil {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolve_DartPrefix(t *testing.T) {
	r := New()
	got, err := r.Resolve("dart:core.String")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindDartClass || got.Library != "core" || got.Name != "String" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolve_ColonWithKnownDartLibrary(t *testing.T) {
	r := New()
	got, err := r.Resolve("async:Future")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindDartClass || got.Library != "async" || got.Name != "Future" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolve_DottedFlutterLibrary(t *testing.T) {
	r := New()
	got, err := r.Resolve("material.FloatingActionButton")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindFlutterClass || got.Library != "material" || got.Name != "FloatingActionButton" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolve_CuratedWidgetBareName(t *testing.T) {
	r := New()
	got, err := r.Resolve("Container")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindFlutterClass || got.Library != "widgets" || got.Name != "Container" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolve_FallsThroughToPubPackage(t *testing.T) {
	r := New()
	got, err := r.Resolve("some_random_package")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != core.KindPubPackage || got.Name != "some_random_package" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestDeriveURL_FlutterClass(t *testing.T) {
	r := New()
	url, err := r.DeriveURL(&core.ResolvedIdentifier{Kind: core.KindFlutterClass, Library: "widgets", Name: "Container"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://api.flutter.dev/flutter/widgets/Container-class.html"
	if url != want {
		t.Errorf("got %q, want %q", url, want)
	}
}

func TestDeriveURL_DartClass(t *testing.T) {
	r := New()
	url, err := r.DeriveURL(&core.ResolvedIdentifier{Kind: core.KindDartClass, Library: "core", Name: "String"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://api.dart.dev/stable/dart-core/String-class.html"
	if url != want {
		t.Errorf("got %q, want %q", url, want)
	}
}

// TestRoundTrip_FromCanonicalInvertsCanonicalID checks the quantified
// property "for any ResolvedIdentifier r, from_canonical(to_canonical(r))
// == r" across every identifier kind and shape the resolver produces.
func TestRoundTrip_FromCanonicalInvertsCanonicalID(t *testing.T) {
	r := New()
	raws := []string{
		"pub:provider:^6.0.0",
		"pub:dio",
		"dart:core.String",
		"async:Future",
		"material.FloatingActionButton",
		"Container",
		"some_random_package",
	}

	for _, raw := range raws {
		want, err := r.Resolve(raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", raw, err)
		}
		got, err := r.FromCanonical(want.CanonicalID())
		if err != nil {
			t.Fatalf("FromCanonical(%q) error: %v", want.CanonicalID(), err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("round trip mismatch for %q: resolved %+v, from_canonical(to_canonical(.)) %+v", raw, want, got)
		}
	}
}

func TestFromCanonical_RejectsMalformedID(t *testing.T) {
	r := New()
	if _, err := r.FromCanonical("no-colon-here"); err == nil {
		t.Fatal("expected error for id missing a kind separator")
	}
	if _, err := r.FromCanonical("bogus_kind:Container"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDeriveURL_PubPackage(t *testing.T) {
	r := New()
	url, err := r.DeriveURL(&core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: "provider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://pub.dev/api/packages/provider"
	if url != want {
		t.Errorf("got %q, want %q", url, want)
	}
}
