package rbac

import (
	"slices"
	"strings"
)

const (
	Wildcard  = "*"
	Delimiter = "."
)

// Matches reports whether a granted pattern covers the requested permission.
// "*" covers everything; "bills.*" covers "bills.create" but not "bills".
func Matches(permission, pattern string) bool {
	if permission == pattern || pattern == Wildcard {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, Delimiter+Wildcard); ok {
		return strings.HasPrefix(permission, prefix+Delimiter)
	}
	return false
}

func granted(patterns []string, permission string) bool {
	for _, p := range patterns {
		if Matches(permission, p) {
			return true
		}
	}
	return false
}

// normalize sorts, dedups and drops patterns already covered by a wildcard.
func normalize(patterns []string) []string {
	if slices.Contains(patterns, Wildcard) {
		return []string{Wildcard}
	}
	out := slices.Clone(patterns)
	slices.Sort(out)
	out = slices.Compact(out)
	all := slices.Clone(out)
	return slices.DeleteFunc(out, func(p string) bool {
		for _, other := range all {
			if other != p && strings.HasSuffix(other, Delimiter+Wildcard) && Matches(p, other) {
				return true
			}
		}
		return false
	})
}
