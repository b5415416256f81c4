package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SkipSet holds run indices that are excluded from execution
type SkipSet map[int]bool

// ParseSkipSet parses a comma-separated list of run indices like "2,4".
// An empty string yields an empty set.
func ParseSkipSet(s string) (SkipSet, error) {
	set := make(SkipSet)
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid skip run index %q: %w", part, err)
		}
		set[idx] = true
	}
	return set, nil
}

// Contains reports whether the given run index is skipped
func (s SkipSet) Contains(i int) bool {
	return s[i]
}

// String returns the indices in ascending comma-separated form
func (s SkipSet) String() string {
	indices := make([]int, 0, len(s))
	for i := range s {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
