package patch

import "github.com/vango-dev/vpatch/pkg/host"

// Hooks is the ambient set of lifecycle callbacks for an Apply call.
// Any field may be nil.
type Hooks struct {
	// WillConnect runs before a node is placed into the tree.
	WillConnect func(n host.Node)

	// DidConnect runs after a node (and its inserted siblings) is placed.
	DidConnect func(n host.Node)

	// WillDisconnect runs before a node is taken out of the tree. A child
	// evicted by SetChild or MoveChild is notified before it is detached.
	// Its descendants are notified once the batch settles, and only when no
	// later edit reclaimed it. By then the evicted child is detached, but
	// each descendant is still attached under it.
	WillDisconnect func(n host.Node)

	// DidUpdate runs once per changed host node, descendants first.
	DidUpdate func(n host.Node, c *Changes)
}

// Owner hook interfaces. An owner attached to a host node that implements
// one of them receives the hook for that node instead of the Hooks bag.
// The owner is bound when the node is materialized. A retained node keeps
// its owner even if a later snapshot names another one.
type (
	WillConnecter interface {
		WillConnect(n host.Node)
	}
	DidConnecter interface {
		DidConnect(n host.Node)
	}
	WillDisconnecter interface {
		WillDisconnect(n host.Node)
	}
	DidUpdater interface {
		DidUpdate(n host.Node, c *Changes)
	}
)

// HookKind names a lifecycle hook.
type HookKind string

const (
	HookWillConnect    HookKind = "willConnect"
	HookDidConnect     HookKind = "didConnect"
	HookWillDisconnect HookKind = "willDisconnect"
	HookDidUpdate      HookKind = "didUpdate"
)

func (a *applier) willConnect(n host.Node) {
	a.observe(HookWillConnect)
	if o, ok := a.h.Owner(n).(WillConnecter); ok {
		o.WillConnect(n)
		return
	}
	if a.hooks.WillConnect != nil {
		a.hooks.WillConnect(n)
	}
}

func (a *applier) didConnect(n host.Node) {
	a.observe(HookDidConnect)
	if o, ok := a.h.Owner(n).(DidConnecter); ok {
		o.DidConnect(n)
		return
	}
	if a.hooks.DidConnect != nil {
		a.hooks.DidConnect(n)
	}
}

func (a *applier) willDisconnect(n host.Node) {
	a.observe(HookWillDisconnect)
	if o, ok := a.h.Owner(n).(WillDisconnecter); ok {
		o.WillDisconnect(n)
		return
	}
	if a.hooks.WillDisconnect != nil {
		a.hooks.WillDisconnect(n)
	}
}

// willDisconnectTree notifies n and then its descendants, pre-order.
func (a *applier) willDisconnectTree(n host.Node) {
	host.Walk(a.h, n, a.willDisconnect)
}

func (a *applier) willDisconnectDescendants(n host.Node) {
	count := a.h.ChildCount(n)
	for i := 0; i < count; i++ {
		a.willDisconnectTree(a.h.Child(n, i))
	}
}

func (a *applier) didUpdate(n host.Node, c *Changes) {
	a.observe(HookDidUpdate)
	if o, ok := a.h.Owner(n).(DidUpdater); ok {
		o.DidUpdate(n, c)
		return
	}
	if a.hooks.DidUpdate != nil {
		a.hooks.DidUpdate(n, c)
	}
}

func (a *applier) observe(kind HookKind) {
	if a.observer != nil {
		a.observer(kind)
	}
}

// dispatchUpdates reports the records of ctx bottom-up: the records of
// inserted and moved nodes are flushed before the record holding them.
func (a *applier) dispatchUpdates(ctx *Context) {
	for _, n := range ctx.order {
		a.flush(ctx, n)
	}
	ctx.order = ctx.order[:0]
}

func (a *applier) flush(ctx *Context, n host.Node) {
	rec, ok := ctx.records[n]
	if !ok {
		return
	}
	delete(ctx.records, n)
	for _, c := range rec.Inserted {
		a.flush(ctx, c)
	}
	for _, c := range rec.Moved {
		a.flush(ctx, c)
	}
	if rec.Empty() {
		return
	}
	if _, done := a.dispatched[n]; done {
		return
	}
	a.dispatched[n] = struct{}{}
	a.didUpdate(n, rec)
}
