package patch

import (
	"sort"

	"github.com/vango-dev/vpatch/pkg/vdom"
)

// reconcileChildren diffs two child lists of one parent. It returns the
// structural edits for the parent and sub-trees for retained children.
func reconcileChildren(prev, next []*vdom.VNode, path []int) ([]Patch, []ChildTree, error) {
	if err := checkChildren(prev, path); err != nil {
		return nil, nil, err
	}
	if err := checkChildren(next, path); err != nil {
		return nil, nil, err
	}
	keyed, err := keyMode(next, path)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case len(prev) == 0 && len(next) == 0:
		return nil, nil, nil
	case len(prev) == 0:
		return []Patch{AddChildren{Nodes: next}}, nil, nil
	case len(next) == 0:
		if allText(prev) {
			return []Patch{RemoveText{}}, nil, nil
		}
		return []Patch{RemoveChildren{}}, nil, nil
	case keyed:
		return reconcileKeyed(prev, next, path)
	default:
		return reconcileUnkeyed(prev, next, path)
	}
}

// keyMode reports whether next is a keyed list. The first child decides:
// when it carries a key every later child must carry a distinct one, and
// when it does not no later child may.
func keyMode(next []*vdom.VNode, path []int) (bool, error) {
	if len(next) == 0 {
		return false, nil
	}
	keyed := vdom.KeyOf(next[0]) != ""
	seen := make(map[string]struct{}, len(next))
	for i, child := range next {
		key := vdom.KeyOf(child)
		switch {
		case keyed && key == "":
			return false, malformedKeyList(path, i, "", "missing key")
		case !keyed && key != "":
			return false, malformedKeyList(path, i, key, "unexpected key")
		case keyed:
			if _, dup := seen[key]; dup {
				return false, malformedKeyList(path, i, key, "duplicate key")
			}
			seen[key] = struct{}{}
		}
	}
	return keyed, nil
}

func checkChildren(children []*vdom.VNode, path []int) error {
	for i, c := range children {
		if c == nil {
			return unsupported(childPath(path, i), "nil entry in child list")
		}
		if c.Kind == vdom.KindFragment {
			return unsupported(childPath(path, i), "fragment inside a child list")
		}
	}
	return nil
}

func allText(children []*vdom.VNode) bool {
	for _, c := range children {
		if c.Kind != vdom.KindText {
			return false
		}
	}
	return true
}

// positioned is a Set or Move edit with the index it fills.
type positioned struct {
	target int
	patch  Patch
}

func reconcileKeyed(prev, next []*vdom.VNode, path []int) ([]Patch, []ChildTree, error) {
	oldIndex := make(map[string]int, len(prev))
	for j, c := range prev {
		if key := vdom.KeyOf(c); key != "" {
			if _, dup := oldIndex[key]; !dup {
				oldIndex[key] = j
			}
		}
	}

	var (
		offsets  Offsets
		edits    []positioned
		children []ChildTree
	)
	addSub := func(i int, sub *Tree) {
		if !sub.IsEmpty() {
			children = append(children, ChildTree{Index: i, Tree: sub})
		}
	}

	for i, child := range next {
		key := vdom.KeyOf(child)

		if i < len(prev) && vdom.KeyOf(prev[i]) == key {
			sub, err := diffNode(prev[i], child, childPath(path, i), true)
			if err != nil {
				return nil, nil, err
			}
			// Earlier extractions may have shifted the retained child, so
			// it is re-seated at its own index.
			if off := offsets.Get(i); off > 0 {
				edits = append(edits, positioned{i, MoveChild{From: i, To: i, Offset: off}})
				offsets.Extract(i)
			}
			addSub(i, sub)
			continue
		}

		if j, ok := oldIndex[key]; ok && !offsets.Extracted(j) {
			edits = append(edits, positioned{i, MoveChild{From: j, To: i, Offset: offsets.Get(j)}})
			offsets.Extract(j)
			sub, err := diffNode(prev[j], child, childPath(path, i), true)
			if err != nil {
				return nil, nil, err
			}
			addSub(i, sub)
			continue
		}

		edits = append(edits, positioned{i, SetChild{Index: i, Node: child}})
	}

	sort.SliceStable(edits, func(a, b int) bool { return edits[a].target < edits[b].target })

	patches := make([]Patch, 0, len(edits)+1)
	for _, e := range edits {
		patches = append(patches, e.patch)
	}
	if len(prev) > len(next) {
		patches = append(patches, RemoveChildrenRange{From: len(next), Count: len(prev) - len(next)})
	}
	return patches, children, nil
}

func reconcileUnkeyed(prev, next []*vdom.VNode, path []int) ([]Patch, []ChildTree, error) {
	var children []ChildTree
	for i, child := range next {
		var old *vdom.VNode
		if i < len(prev) {
			old = prev[i]
		}
		sub, err := diffNode(old, child, childPath(path, i), true)
		if err != nil {
			return nil, nil, err
		}
		if !sub.IsEmpty() {
			children = append(children, ChildTree{Index: i, Tree: sub})
		}
	}

	var patches []Patch
	if len(prev) > len(next) {
		patches = append(patches, RemoveChildrenRange{From: len(next), Count: len(prev) - len(next)})
	}
	return patches, children, nil
}
