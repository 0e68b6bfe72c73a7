// Package host defines the mutable host tree that patch trees are applied to.
//
// The engine never creates or inspects host nodes itself: it goes through a
// Tree for structural and attribute operations and a Materializer to turn
// virtual nodes into fresh host nodes. Package htmlhost provides an
// implementation backed by golang.org/x/net/html.
package host

import "github.com/vango-dev/vpatch/pkg/vdom"

// Node is an opaque handle to a host node. Implementations must use
// comparable handles (typically pointers); nil means "no node".
type Node any

// Batch is a group of sibling host nodes produced by materializing a
// fragment. A Batch is never attached as such: inserting a Batch inserts
// each of its nodes in order.
type Batch struct {
	Nodes []Node
}

// Tree is the host-tree capability set consumed by the patch engine.
type Tree interface {
	// Child returns the child of parent at index, or nil if out of range.
	Child(parent Node, index int) Node

	// ChildCount returns the number of children of parent.
	ChildCount(parent Node) int

	// Parent returns the node n is attached to, or nil.
	Parent(n Node) Node

	// InsertBefore inserts child into parent before ref. A nil ref appends.
	// A child attached elsewhere is detached first.
	InsertBefore(parent, child, ref Node) error

	// Remove detaches n from its parent.
	Remove(n Node) error

	// Replace puts replacement where old is and detaches old. A replacement
	// attached elsewhere is detached first.
	Replace(old, replacement Node) error

	// SetAttribute sets a plain attribute.
	SetAttribute(n Node, name string, value any) error

	// RemoveAttribute removes a plain attribute.
	RemoveAttribute(n Node, name string) error

	// AddListener registers an event handler.
	AddListener(n Node, event string, handler any) error

	// RemoveListener unregisters the handler registered for event.
	RemoveListener(n Node, event string) error

	// Text returns the text payload of a text node.
	Text(n Node) string

	// SetText sets the text payload of a text node.
	SetText(n Node, text string) error

	// IsText reports whether n is a text node.
	IsText(n Node) bool

	// Owner returns the component owner attached to n when it was
	// materialized, or nil.
	Owner(n Node) any
}

// Materializer creates new, detached host nodes from virtual nodes.
// Materializing a fragment returns a Batch.
type Materializer interface {
	Materialize(v *vdom.VNode) (Node, error)
}

// Host bundles a Tree and the Materializer that produces its nodes.
type Host interface {
	Tree
	Materializer
}

// Flatten returns the top-level nodes carried by n: the nodes of a Batch,
// or n itself. It returns nil for a nil node.
func Flatten(n Node) []Node {
	switch v := n.(type) {
	case nil:
		return nil
	case Batch:
		return v.Nodes
	case *Batch:
		if v == nil {
			return nil
		}
		return v.Nodes
	default:
		return []Node{n}
	}
}

// IsBatch reports whether n is a sibling batch rather than a single node.
func IsBatch(n Node) bool {
	switch v := n.(type) {
	case Batch:
		return true
	case *Batch:
		return v != nil
	}
	return false
}

// Children returns the current children of parent in order.
func Children(t Tree, parent Node) []Node {
	count := t.ChildCount(parent)
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, t.Child(parent, i))
	}
	return out
}

// IndexOf returns the position of child under parent, or -1.
func IndexOf(t Tree, parent, child Node) int {
	count := t.ChildCount(parent)
	for i := 0; i < count; i++ {
		if t.Child(parent, i) == child {
			return i
		}
	}
	return -1
}

// Walk visits n and its descendants in pre-order.
func Walk(t Tree, n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	count := t.ChildCount(n)
	for i := 0; i < count; i++ {
		Walk(t, t.Child(n, i), visit)
	}
}
