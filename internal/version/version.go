// Package version parses release tags and computes version progression
// for standard and hotfix releases.
//
// Tag grammar:
//
//	standard: v<major>.<minor>.<patch>           e.g. v1.4.0
//	hotfix:   <standard>-hotfix.<ordinal>        e.g. v1.4.0-hotfix.2
//
// Ordering is by numeric component comparison, never by string order:
// v1.10.0 sorts after v1.2.0, and a hotfix sorts after the standard
// release it is based on, with ordinals compared numerically.
package version

import (
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/mod/semver"

	"github.com/rmlabs/wsm/internal/wmerr"
)

var (
	standardRe = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)$`)
	hotfixRe   = regexp.MustCompile(`^(v\d+\.\d+\.\d+)-hotfix\.(\d+)$`)
)

// Version is a release version: a standard triple, or a hotfix off a
// standard base when Hotfix is non-zero.
type Version struct {
	Major, Minor, Patch int

	// Hotfix is the hotfix ordinal; 0 means a standard version.
	Hotfix int
}

// Zero is the version reported for a repository with no release tags.
var Zero = Version{}

// Parse parses a release tag. Tags outside the grammar return a
// configuration error.
func Parse(tag string) (Version, error) {
	if m := standardRe.FindStringSubmatch(tag); m != nil {
		return Version{
			Major: mustInt(m[1]),
			Minor: mustInt(m[2]),
			Patch: mustInt(m[3]),
		}, nil
	}

	if m := hotfixRe.FindStringSubmatch(tag); m != nil {
		base, err := Parse(m[1])
		if err != nil {
			return Version{}, err
		}
		base.Hotfix = mustInt(m[2])
		return base, nil
	}

	return Version{}, wmerr.E(wmerr.KindConfig, "invalid version tag %q", tag)
}

// IsTag reports whether tag is inside the release tag grammar.
func IsTag(tag string) bool {
	return standardRe.MatchString(tag) || hotfixRe.MatchString(tag)
}

func mustInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("version: regexp admitted non-integer %q", s))
	}
	return n
}

// String renders the version as its tag.
func (v Version) String() string {
	base := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Hotfix > 0 {
		return fmt.Sprintf("%s-hotfix.%d", base, v.Hotfix)
	}
	return base
}

// IsHotfix reports whether v is a hotfix version.
func (v Version) IsHotfix() bool {
	return v.Hotfix > 0
}

// Base returns the standard version a hotfix is based on. For a
// standard version it returns the version itself.
func (v Version) Base() Version {
	v.Hotfix = 0
	return v
}

// Compare orders versions by numeric components. It returns -1, 0, or
// +1. The base triples compare first; on equal base, a hotfix sorts
// after the standard release and ordinals compare numerically.
func Compare(a, b Version) int {
	if c := semver.Compare(a.Base().String(), b.Base().String()); c != 0 {
		return c
	}
	switch {
	case a.Hotfix < b.Hotfix:
		return -1
	case a.Hotfix > b.Hotfix:
		return 1
	default:
		return 0
	}
}

// BumpKind selects which component a standard bump increments.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// ParseBumpKind validates a bump keyword.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(s) {
	case BumpMajor, BumpMinor, BumpPatch:
		return BumpKind(s), nil
	}
	return "", wmerr.E(wmerr.KindConfig, "unknown bump keyword %q (want major, minor, or patch)", s)
}

// Bump increments one component of a standard version and resets the
// strictly-lower components to zero. A hotfix base must first be
// reduced with Base; passing one is a configuration error.
func Bump(v Version, kind BumpKind) (Version, error) {
	if v.IsHotfix() {
		return Version{}, wmerr.E(wmerr.KindConfig, "cannot bump non-standard base %s", v)
	}

	switch kind {
	case BumpMajor:
		return Version{Major: v.Major + 1}, nil
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	}

	return Version{}, wmerr.E(wmerr.KindConfig, "unknown bump keyword %q", kind)
}
