// Package identifier classifies a raw query string into a
// ResolvedIdentifier and derives its upstream URL (spec component G).
package identifier

import (
	"fmt"
	"strings"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
	"github.com/flutter-mcp/flutter-mcp-server/internal/providers/versionresolver"
)

// flutterLibraries is the set of package:flutter library names that
// qualify a dotted identifier as a flutter_class (spec §4.G rule 4).
var flutterLibraries = map[string]struct{}{
	"widgets": {}, "material": {}, "cupertino": {}, "painting": {},
	"rendering": {}, "animation": {}, "services": {}, "foundation": {},
}

// dartLibraryPrefixes is the curated set of package:dart library names
// recognised after a colon (spec §4.G rule 3), written dashed as they
// appear in api.dart.dev URLs; DeriveURL also uses it to dash library
// names. Rule 2 (dart: prefix) does not consult it.
var dartLibraryPrefixes = map[string]string{
	"core":       "dart-core",
	"async":      "dart-async",
	"collection": "dart-collection",
	"convert":    "dart-convert",
	"math":       "dart-math",
	"io":         "dart-io",
	"typed_data": "dart-typed_data",
	"isolate":    "dart-isolate",
	"ffi":        "dart-ffi",
}

// flutterWidgets is a curated list of common Flutter widget class names
// used for rule 5 fall-through (bare name with no library qualifier).
var flutterWidgets = map[string]struct{}{
	"Container": {}, "Row": {}, "Column": {}, "Stack": {}, "Text": {},
	"Scaffold": {}, "AppBar": {}, "ListView": {}, "GridView": {},
	"Center": {}, "Padding": {}, "SizedBox": {}, "Expanded": {},
	"Flexible": {}, "Align": {}, "Positioned": {}, "Card": {},
	"Icon": {}, "Image": {}, "Button": {}, "ElevatedButton": {},
	"TextButton": {}, "OutlinedButton": {}, "IconButton": {},
	"FloatingActionButton": {}, "TextField": {}, "TextFormField": {},
	"Form": {}, "GestureDetector": {}, "InkWell": {}, "Hero": {},
	"AnimatedContainer": {}, "AnimatedOpacity": {}, "FadeTransition": {},
	"Drawer": {}, "BottomNavigationBar": {}, "TabBar": {}, "TabBarView": {},
	"Dialog": {}, "AlertDialog": {}, "SnackBar": {}, "Tooltip": {},
	"Divider": {}, "ListTile": {}, "Checkbox": {}, "Radio": {},
	"Switch": {}, "Slider": {}, "CircularProgressIndicator": {},
	"LinearProgressIndicator": {}, "SingleChildScrollView": {},
	"Wrap": {}, "Spacer": {}, "SafeArea": {}, "MaterialApp": {},
	"CupertinoApp": {}, "Navigator": {}, "Theme": {}, "MediaQuery": {},
}

// Resolver implements core.IdentifierResolver per spec §4.G's six
// ordered classification rules.
type Resolver struct {
	versions *versionresolver.Resolver
}

// New returns a Resolver.
func New() *Resolver {
	return &Resolver{versions: versionresolver.New()}
}

var _ core.IdentifierResolver = (*Resolver)(nil)

// Resolve classifies raw, evaluating spec §4.G's rules in order.
func (r *Resolver) Resolve(raw string) (*core.ResolvedIdentifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, core.NewError(core.ErrInvalidInput, "identifier must not be empty")
	}

	// Rule 1: pub: prefix, optional :version_spec suffix.
	if rest, ok := strings.CutPrefix(raw, "pub:"); ok {
		name := rest
		var spec *core.VersionSpec
		if idx := strings.Index(rest, ":"); idx >= 0 {
			name = rest[:idx]
			parsed, err := r.versions.ParseConstraint(rest[idx+1:])
			if err != nil {
				return nil, err
			}
			spec = parsed
		}
		if name == "" {
			return nil, core.NewError(core.ErrInvalidInput, "pub: identifier missing a package name")
		}
		return &core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: name, VersionSpec: spec}, nil
	}

	// Rule 2: dart: prefix, library.name split on last dot.
	if rest, ok := strings.CutPrefix(raw, "dart:"); ok {
		lib, name, err := splitLibraryName(rest)
		if err != nil {
			return nil, err
		}
		return &core.ResolvedIdentifier{Kind: core.KindDartClass, Library: lib, Name: name}, nil
	}

	// Rule 3: contains ':' with a known dart library prefix.
	if idx := strings.Index(raw, ":"); idx >= 0 {
		prefix := raw[:idx]
		if _, ok := dartLibraryPrefixes[prefix]; ok {
			lib, name, err := splitLibraryName(raw[idx+1:])
			if err != nil {
				return nil, err
			}
			if lib == "" {
				lib = prefix
			}
			return &core.ResolvedIdentifier{Kind: core.KindDartClass, Library: lib, Name: name}, nil
		}
	}

	// Rule 4: dotted identifier whose left side is a known Flutter library.
	if idx := strings.LastIndex(raw, "."); idx >= 0 {
		lib := raw[:idx]
		name := raw[idx+1:]
		if _, ok := flutterLibraries[lib]; ok && name != "" {
			return &core.ResolvedIdentifier{Kind: core.KindFlutterClass, Library: lib, Name: name}, nil
		}
	}

	// Rule 5: curated Flutter widget name, bare.
	if _, ok := flutterWidgets[raw]; ok {
		return &core.ResolvedIdentifier{Kind: core.KindFlutterClass, Library: "widgets", Name: raw}, nil
	}

	// Rule 6: fall through to pub_package.
	return &core.ResolvedIdentifier{Kind: core.KindPubPackage, Name: raw}, nil
}

func splitLibraryName(s string) (library, name string, err error) {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return "", s, nil
	}
	return s[:idx], s[idx+1:], nil
}

// knownKinds validates the kind tag recovered from a canonical ID
// against the closed set core.Kind defines.
var knownKinds = map[string]core.Kind{
	string(core.KindFlutterClass): core.KindFlutterClass,
	string(core.KindDartClass):    core.KindDartClass,
	string(core.KindPubPackage):   core.KindPubPackage,
	string(core.KindConcept):      core.KindConcept,
}

// FromCanonical parses a canonical_id string of the form
// "kind:[library.]name[@version_spec]" back into a ResolvedIdentifier,
// the inverse of ResolvedIdentifier.CanonicalID (spec §8: "for any
// ResolvedIdentifier r, from_canonical(to_canonical(r)) == r").
func (r *Resolver) FromCanonical(id string) (*core.ResolvedIdentifier, error) {
	kindStr, rest, ok := strings.Cut(id, ":")
	if !ok {
		return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("malformed canonical id: %q", id))
	}
	kind, ok := knownKinds[kindStr]
	if !ok {
		return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("unknown identifier kind: %q", kindStr))
	}

	namePart, versionPart, hasVersion := strings.Cut(rest, "@")

	var library, name string
	if idx := strings.LastIndex(namePart, "."); idx >= 0 {
		library, name = namePart[:idx], namePart[idx+1:]
	} else {
		name = namePart
	}
	if name == "" {
		return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("canonical id missing a name: %q", id))
	}

	ri := &core.ResolvedIdentifier{Kind: kind, Library: library, Name: name}
	if hasVersion && kind == core.KindPubPackage {
		spec, err := r.versions.ParseConstraint(versionPart)
		if err != nil {
			return nil, err
		}
		ri.VersionSpec = spec
	}
	return ri, nil
}

// DeriveURL maps a ResolvedIdentifier to its upstream fetch target per
// spec §4.G's URL derivation rules.
func (r *Resolver) DeriveURL(ri *core.ResolvedIdentifier) (string, error) {
	switch ri.Kind {
	case core.KindFlutterClass:
		return fmt.Sprintf("https://api.flutter.dev/flutter/%s/%s-class.html", ri.Library, ri.Name), nil
	case core.KindDartClass:
		lib := ri.Library
		if dashed, ok := dartLibraryPrefixes[lib]; ok {
			lib = dashed
		} else {
			lib = "dart-" + lib
		}
		return fmt.Sprintf("https://api.dart.dev/stable/%s/%s-class.html", lib, ri.Name), nil
	case core.KindPubPackage:
		return fmt.Sprintf("https://pub.dev/api/packages/%s", ri.Name), nil
	default:
		return "", core.NewError(core.ErrInvalidInput, fmt.Sprintf("cannot derive a url for kind %q", ri.Kind))
	}
}
