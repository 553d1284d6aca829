// Package versionresolver parses version-constraint grammars and
// resolves them against a published-versions list (spec component F).
package versionresolver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

var (
	exactRe     = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([\w.]+))?$`)
	caretRe     = regexp.MustCompile(`^\^(\d+)\.(\d+)\.(\d+)(?:-([\w.]+))?$`)
	rangeTermRe = regexp.MustCompile(`^(>=|<=|>|<)\s*(\d+)\.(\d+)\.(\d+)(?:-([\w.]+))?$`)
)

var keywords = map[string]struct{}{
	core.KeywordLatest: {}, core.KeywordStable: {},
	core.KeywordDev: {}, core.KeywordBeta: {}, core.KeywordAlpha: {},
}

// Resolver implements core.VersionResolver using the grammar in spec
// §4.F (exact, caret, range, keyword) and core.SemVer's own comparator.
type Resolver struct{}

// New returns a Resolver.
func New() *Resolver { return &Resolver{} }

var _ core.VersionResolver = (*Resolver)(nil)

// ParseConstraint classifies raw against the spec §4.F grammar.
func (r *Resolver) ParseConstraint(raw string) (*core.VersionSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &core.VersionSpec{Kind: core.VersionSpecNone, Raw: raw}, nil
	}

	if _, ok := keywords[raw]; ok {
		return &core.VersionSpec{Kind: core.VersionSpecKeyword, Keyword: raw, Raw: raw}, nil
	}

	if m := exactRe.FindStringSubmatch(raw); m != nil {
		v := semverFromGroups(m[1], m[2], m[3], m[4])
		return &core.VersionSpec{Kind: core.VersionSpecExact, Version: &v, Raw: raw}, nil
	}

	if m := caretRe.FindStringSubmatch(raw); m != nil {
		v := semverFromGroups(m[1], m[2], m[3], m[4])
		lower, upper := caretBounds(v)
		return &core.VersionSpec{
			Kind: core.VersionSpecCaret, Version: &v,
			Lower: &lower, LowerInclusive: true,
			Upper: &upper, UpperInclusive: false,
			Raw: raw,
		}, nil
	}

	if spec, ok := parseRange(raw); ok {
		spec.Raw = raw
		return spec, nil
	}

	return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("unrecognized version constraint: %q", raw))
}

func semverFromGroups(majs, mins, pats, pre string) core.SemVer {
	maj, _ := strconv.Atoi(majs)
	min, _ := strconv.Atoi(mins)
	pat, _ := strconv.Atoi(pats)
	return core.SemVer{Major: maj, Minor: min, Patch: pat, Prerelease: pre}
}

// caretBounds implements spec §4.F's three caret cases.
func caretBounds(v core.SemVer) (lower, upper core.SemVer) {
	lower = v
	switch {
	case v.Major > 0:
		upper = core.SemVer{Major: v.Major + 1}
	case v.Minor > 0:
		upper = core.SemVer{Major: 0, Minor: v.Minor + 1}
	default:
		upper = core.SemVer{Major: 0, Minor: 0, Patch: v.Patch + 1}
	}
	return lower, upper
}

// parseRange handles one or two space-separated comparator terms, e.g.
// ">=2.0.0 <3.0.0" or just ">1.0.0".
func parseRange(raw string) (*core.VersionSpec, bool) {
	parts := strings.Fields(raw)
	if len(parts) == 0 || len(parts) > 2 {
		return nil, false
	}

	spec := &core.VersionSpec{Kind: core.VersionSpecRange}
	for _, part := range parts {
		m := rangeTermRe.FindStringSubmatch(part)
		if m == nil {
			return nil, false
		}
		op := m[1]
		v := semverFromGroups(m[2], m[3], m[4], m[5])

		switch op {
		case ">=", ">":
			vv := v
			spec.Lower = &vv
			spec.LowerInclusive = op == ">="
		case "<=", "<":
			vv := v
			spec.Upper = &vv
			spec.UpperInclusive = op == "<="
		}
	}
	if spec.Lower == nil && spec.Upper == nil {
		return nil, false
	}
	return spec, true
}

// MaxClosest bounds how many near-miss versions are surfaced in a
// VersionNotSatisfiable error (spec §4.F.4).
const MaxClosest = 10

// Resolve filters published against spec and returns the maximum under
// semver ordering, or a VersionNotSatisfiable error carrying up to
// MaxClosest candidates (spec §4.F).
func (r *Resolver) Resolve(spec *core.VersionSpec, published []core.SemVer) (*core.SemVer, error) {
	if spec == nil || spec.IsNone() {
		return nil, nil
	}

	sorted := append([]core.SemVer(nil), published...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) > 0 })

	var best *core.SemVer
	for i := range sorted {
		v := sorted[i]
		if satisfies(spec, v) {
			best = &v
			break
		}
	}
	if best != nil {
		return best, nil
	}

	closest := sorted
	if len(closest) > MaxClosest {
		closest = closest[:MaxClosest]
	}
	strs := make([]string, len(closest))
	for i, v := range closest {
		strs[i] = v.String()
	}
	return nil, core.NewError(core.ErrVersionNotSatisfiable, fmt.Sprintf("no published version satisfies %q", spec.Raw)).
		WithSuggestions(strs...)
}

func satisfies(spec *core.VersionSpec, v core.SemVer) bool {
	switch spec.Kind {
	case core.VersionSpecExact:
		return spec.Version != nil && v.Compare(*spec.Version) == 0
	case core.VersionSpecCaret, core.VersionSpecRange:
		if v.Prerelease != "" && !prereleaseMatchesAnchor(spec, v) {
			return false
		}
		if spec.Lower != nil {
			cmp := v.Compare(*spec.Lower)
			if spec.LowerInclusive && cmp < 0 {
				return false
			}
			if !spec.LowerInclusive && cmp <= 0 {
				return false
			}
		}
		if spec.Upper != nil {
			cmp := v.Compare(*spec.Upper)
			if spec.UpperInclusive && cmp > 0 {
				return false
			}
			if !spec.UpperInclusive && cmp >= 0 {
				return false
			}
		}
		return true
	case core.VersionSpecKeyword:
		switch spec.Keyword {
		case core.KeywordLatest:
			return true
		case core.KeywordStable:
			return v.Prerelease == ""
		case core.KeywordDev, core.KeywordBeta, core.KeywordAlpha:
			return strings.HasPrefix(v.Prerelease, spec.Keyword)
		}
	}
	return false
}

// prereleaseMatchesAnchor implements the conventional semver-range
// prerelease exclusion rule: a prerelease version only satisfies a
// caret or range constraint if its (major, minor, patch) tuple
// exactly matches one of the constraint's own version anchors, and
// that anchor itself carries a prerelease tag. Without the tag check,
// a caret constraint's numeric upper bound (built with no prerelease
// component, so it always outranks any prerelease of the same version
// per SemVer.Compare) would let 7.0.0-beta satisfy ^6.0.0.
func prereleaseMatchesAnchor(spec *core.VersionSpec, v core.SemVer) bool {
	anchors := []*core.SemVer{spec.Version, spec.Lower, spec.Upper}
	for _, a := range anchors {
		if a != nil && a.Prerelease != "" && a.Major == v.Major && a.Minor == v.Minor && a.Patch == v.Patch {
			return true
		}
	}
	return false
}
