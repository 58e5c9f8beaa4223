package safety

import "path/filepath"

// Filter controls which device names are admitted to classification and the
// power model, using an allowlist and a denylist. Glob patterns (as
// understood by filepath.Match) are supported in both lists, so operators can
// exclude e.g. USB enclosures ("sd[e-z]") or passthrough disks by pattern.
//
// Rules:
//   - If both lists are empty (or nil), every device is allowed.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, a device must match at least one
//     allowlist pattern to be permitted (after the denylist check).
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether name is permitted by this filter.
func (f *Filter) IsAllowed(name string) bool {
	// Denylist wins first.
	for _, pattern := range f.denylist {
		if matchGlob(pattern, name) {
			return false
		}
	}

	// If the allowlist is empty (or nil), everything not denied is allowed.
	if len(f.allowlist) == 0 {
		return true
	}

	// Device must match at least one allowlist pattern.
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, name) {
			return true
		}
	}

	return false
}

// matchGlob matches name against pattern, treating an invalid pattern as a
// non-match rather than an error.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
