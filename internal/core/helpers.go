package core

import (
	"cmp"
	"slices"
)

// sortedKeys returns the keys of m in ascending order, so iteration over
// configuration maps is deterministic.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
