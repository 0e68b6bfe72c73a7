package patch

import (
	"sort"

	"github.com/vango-dev/vpatch/pkg/vdom"
)

// DiffAttributes computes the attribute edits turning prev into next.
// Keys of next are visited in sorted order: a changed value yields
// SetAttribute, a new key AddAttribute. Keys only present in prev then yield
// RemoveAttribute, also sorted. The reserved key prop is never diffed.
// nil maps behave as empty maps.
func DiffAttributes(prev, next vdom.Props) []Patch {
	var patches []Patch

	for _, name := range sortedKeys(next) {
		value := next[name]
		old, existed := prev[name]
		switch {
		case !existed:
			patches = append(patches, AddAttribute{Name: name, Value: value})
		case !vdom.ValuesEqual(old, value):
			patches = append(patches, SetAttribute{Name: name, Old: old, New: value})
		}
	}

	for _, name := range sortedKeys(prev) {
		if _, kept := next[name]; !kept {
			patches = append(patches, RemoveAttribute{Name: name, Old: prev[name]})
		}
	}

	return patches
}

func sortedKeys(p vdom.Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == vdom.KeyProp {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
