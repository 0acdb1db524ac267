package update

import (
	"strconv"
	"strings"
)

// semver is a parsed semantic version.
type semver struct {
	major, minor, patch int64
	prerelease          []string
}

// CompareSemVer compares two version strings with SemVer 2.0 precedence.
// It returns -1, 0, or 1 as a is less than, equal to, or greater than b.
//
// Precedence rules:
//   - major, minor, patch compare numerically
//   - a version with a prerelease sorts before the same version without one
//   - prerelease identifiers compare pairwise; numeric identifiers compare
//     numerically and sort before alphanumeric ones
//   - build metadata ("+...") is ignored
//
// Strings that do not parse as SemVer compare as "0.0.0".
func CompareSemVer(a, b string) int {
	va := parseSemVer(a)
	vb := parseSemVer(b)

	if va.major != vb.major {
		return cmpInt(va.major, vb.major)
	}
	if va.minor != vb.minor {
		return cmpInt(va.minor, vb.minor)
	}
	if va.patch != vb.patch {
		return cmpInt(va.patch, vb.patch)
	}
	return cmpPrerelease(va.prerelease, vb.prerelease)
}

// parseSemVer parses "MAJOR.MINOR.PATCH[-prerelease][+build]".
// Malformed input yields the zero version.
func parseSemVer(s string) semver {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")

	// Build metadata never affects precedence.
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	var pre []string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		if rest := s[i+1:]; rest != "" {
			pre = strings.Split(rest, ".")
		}
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return semver{}
	}
	var nums [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return semver{}
		}
		nums[i] = n
	}
	return semver{major: nums[0], minor: nums[1], patch: nums[2], prerelease: pre}
}

// cmpPrerelease compares prerelease identifier lists.
//
// An empty list (a release) has higher precedence than any prerelease.
func cmpPrerelease(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmpIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	// All shared identifiers equal; the longer list wins.
	return cmpInt(int64(len(a)), int64(len(b)))
}

// cmpIdentifier compares a single pair of prerelease identifiers.
func cmpIdentifier(a, b string) int {
	na, aNum := parseNumericIdentifier(a)
	nb, bNum := parseNumericIdentifier(b)

	switch {
	case aNum && bNum:
		return cmpInt(na, nb)
	case aNum:
		// Numeric identifiers sort before alphanumeric.
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// parseNumericIdentifier reports whether s is all ASCII digits, and its value.
func parseNumericIdentifier(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsValidSemVer reports whether s parses as a SemVer version string.
func IsValidSemVer(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, ok := parseNumericIdentifier(p); !ok {
			return false
		}
	}
	return true
}
