package patch

import "github.com/vango-dev/vpatch/pkg/vdom"

// Diff compares two snapshots of one slot and returns the patch tree that
// turns a host tree rendered from prev into one rendered from next.
// A nil snapshot is an absent node.
//
// Diff fails with ErrMalformedKeyList when a child list mixes keyed and
// unkeyed children or repeats a key, and with ErrUnsupportedTransition when
// the pair has no defined patch (fragments anywhere but a fresh insert,
// elements without a tag, nil entries in a child list).
func Diff(prev, next *vdom.VNode) (*Tree, error) {
	return diffNode(prev, next, nil, false)
}

// diffNode compares one slot. asChild is true when the slot is a retained
// child of an element being diffed; text changes are then made in place.
func diffNode(prev, next *vdom.VNode, path []int, asChild bool) (*Tree, error) {
	if prev == next {
		return &Tree{}, nil
	}
	if err := checkNode(prev, path, true); err != nil {
		return nil, err
	}
	if err := checkNode(next, path, prev != nil); err != nil {
		return nil, err
	}

	switch {
	case prev == nil:
		return single(SetElement{Node: next}), nil
	case next == nil:
		return single(RemoveElement{}), nil
	}

	switch prev.Kind {
	case vdom.KindText:
		if next.Kind != vdom.KindText {
			return single(ReplaceElement{Node: next}), nil
		}
		if vdom.ValuesEqual(prev.Value, next.Value) {
			return &Tree{}, nil
		}
		if asChild {
			return single(SetText{Old: prev.TextContent(), New: next.TextContent()}), nil
		}
		return single(ReplaceText{Old: prev.TextContent(), New: next.TextContent()}), nil

	default: // element
		if next.Kind != vdom.KindElement || next.Tag != prev.Tag {
			return single(ReplaceElement{Node: next}), nil
		}
		return diffElement(prev, next, path)
	}
}

func diffElement(prev, next *vdom.VNode, path []int) (*Tree, error) {
	tree := &Tree{Patches: DiffAttributes(prev.Props, next.Props)}

	patches, children, err := reconcileChildren(prev.Children, next.Children, path)
	if err != nil {
		return nil, err
	}
	tree.Patches = append(tree.Patches, patches...)
	tree.Children = children
	return tree, nil
}

// checkNode rejects shapes no patch is defined for. Fragments may only be
// inserted fresh, so they are refused when replacing reports true.
func checkNode(v *vdom.VNode, path []int, replacing bool) error {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case vdom.KindText:
		return nil
	case vdom.KindElement:
		if v.Tag == "" {
			return unsupported(path, "element without a tag")
		}
		return nil
	case vdom.KindFragment:
		if replacing {
			return unsupported(path, "fragment can only be inserted into an empty slot")
		}
		return nil
	}
	return unsupported(path, "unknown node kind %d", v.Kind)
}

func single(p Patch) *Tree {
	return &Tree{Patches: []Patch{p}}
}

func childPath(path []int, i int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = i
	return out
}
