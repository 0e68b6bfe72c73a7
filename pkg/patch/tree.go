package patch

import (
	"fmt"
	"strings"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Tree is the set of edits for one snapshot slot: Patches apply to the slot's
// own host node, Children to retained children by index, ascending.
type Tree struct {
	Patches  []Patch
	Children []ChildTree
}

// ChildTree pairs a child index with the edits for that child.
type ChildTree struct {
	Index int
	Tree  *Tree
}

// IsEmpty reports whether applying t would change nothing.
func (t *Tree) IsEmpty() bool {
	return t == nil || (len(t.Patches) == 0 && len(t.Children) == 0)
}

// Len returns the number of patches in t, including all sub-trees.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(errors.Path, Patch) { n++ })
	return n
}

// Count returns the number of patches per type, including all sub-trees.
func (t *Tree) Count() map[Op]int {
	counts := make(map[Op]int)
	t.Walk(func(_ errors.Path, p Patch) { counts[p.Op()]++ })
	return counts
}

// Walk calls fn for every patch in t in application order, with the child
// path of the node it targets. The path slice is reused between calls.
func (t *Tree) Walk(fn func(path errors.Path, p Patch)) {
	t.walk(nil, fn)
}

func (t *Tree) walk(path errors.Path, fn func(errors.Path, Patch)) {
	if t == nil {
		return
	}
	for _, p := range t.Patches {
		fn(path, p)
	}
	for _, c := range t.Children {
		c.Tree.walk(append(path, c.Index), fn)
	}
}

// String renders t as an indented listing, one patch per line.
func (t *Tree) String() string {
	if t.IsEmpty() {
		return "(no changes)\n"
	}
	var b strings.Builder
	t.format(&b, 0)
	return b.String()
}

func (t *Tree) format(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range t.Patches {
		b.WriteString(indent)
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	for _, c := range t.Children {
		fmt.Fprintf(b, "%s[%d]\n", indent, c.Index)
		c.Tree.format(b, depth+1)
	}
}
