package patch

import "github.com/vango-dev/vpatch/pkg/host"

// AttrChange is the before/after value of one attribute.
type AttrChange struct {
	Old any
	New any
}

// TextChange is the before/after payload of a text node.
type TextChange struct {
	Old string
	New string
}

// Changes is the change record reported to DidUpdate for one host node.
type Changes struct {
	// Inserted holds children placed under the node.
	Inserted []host.Node

	// Moved holds existing children relocated under the node.
	Moved []host.Node

	// Removed holds children taken out of the node, including evicted
	// children that were never reclaimed.
	Removed []host.Node

	// Attributes holds attribute deltas by name.
	Attributes map[string]AttrChange

	// Text is set when the node's own text payload changed.
	Text *TextChange
}

// Empty reports whether c records nothing.
func (c *Changes) Empty() bool {
	return c == nil || (len(c.Inserted) == 0 && len(c.Moved) == 0 && len(c.Removed) == 0 &&
		len(c.Attributes) == 0 && c.Text == nil)
}

func (c *Changes) attr(name string, old, value any) {
	if c.Attributes == nil {
		c.Attributes = make(map[string]AttrChange)
	}
	if prev, ok := c.Attributes[name]; ok {
		old = prev.Old
	}
	c.Attributes[name] = AttrChange{Old: old, New: value}
}

// Context is the per-scope state of one Apply call: the displaced-node
// registry of the scope's child list and the change records of the nodes
// the scope touched.
type Context struct {
	parent *Context

	// originals is the target's child list before the first structural
	// edit of the scope; origIndex inverts it.
	originals []host.Node
	origIndex map[host.Node]int
	captured  bool

	// displaced maps an original child index to the node evicted from the
	// live list by a SetChild or MoveChild and not yet reclaimed.
	displaced map[int]host.Node

	records map[host.Node]*Changes
	order   []host.Node
}

func newContext(parent *Context) *Context {
	return &Context{
		parent:    parent,
		displaced: make(map[int]host.Node),
		records:   make(map[host.Node]*Changes),
	}
}

// Parent returns the context of the enclosing scope, or nil at the root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Displaced returns the node evicted from original index i, if any.
func (c *Context) Displaced(i int) (host.Node, bool) {
	n, ok := c.displaced[i]
	return n, ok
}

// Record returns the change record accumulated for n, or nil.
func (c *Context) Record(n host.Node) *Changes {
	return c.records[n]
}

func (c *Context) record(n host.Node) *Changes {
	if rec, ok := c.records[n]; ok {
		return rec
	}
	rec := &Changes{}
	c.records[n] = rec
	c.order = append(c.order, n)
	return rec
}

// capture snapshots the target's children once per scope.
func (c *Context) capture(t host.Tree, target host.Node) {
	if c.captured {
		return
	}
	c.captured = true
	c.originals = host.Children(t, target)
	c.origIndex = make(map[host.Node]int, len(c.originals))
	for i, n := range c.originals {
		c.origIndex[n] = i
	}
}

func (c *Context) original(i int) host.Node {
	if i < 0 || i >= len(c.originals) {
		return nil
	}
	return c.originals[i]
}

// displace registers n as evicted. It reports false when n was not one of
// the scope's original children.
func (c *Context) displace(n host.Node) bool {
	i, ok := c.origIndex[n]
	if !ok {
		return false
	}
	c.displaced[i] = n
	return true
}

// reclaim takes the node evicted from original index i back out of the
// registry.
func (c *Context) reclaim(i int) (host.Node, bool) {
	n, ok := c.displaced[i]
	if ok {
		delete(c.displaced, i)
	}
	return n, ok
}

// forget drops n from the registry if it is there.
func (c *Context) forget(n host.Node) {
	if i, ok := c.origIndex[n]; ok {
		if d, ok := c.displaced[i]; ok && d == n {
			delete(c.displaced, i)
		}
	}
}

// settle moves every unreclaimed displaced node into target's removed list,
// in original order.
func (c *Context) settle(target host.Node) []host.Node {
	if len(c.displaced) == 0 {
		return nil
	}
	var gone []host.Node
	for i := range c.originals {
		if n, ok := c.displaced[i]; ok {
			gone = append(gone, n)
			delete(c.displaced, i)
		}
	}
	rec := c.record(target)
	rec.Removed = append(rec.Removed, gone...)
	return gone
}
