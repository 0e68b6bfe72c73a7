package patch

import (
	"log/slog"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/host"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// ApplyOption configures a Tree.Apply call.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	target    host.Node
	targetSet bool
	hooks     Hooks
	logger    *slog.Logger
	observer  func(HookKind)
}

// WithTarget sets the host node the root edits apply to. The default is the
// first child of the root; a nil target makes SetElement append to the root.
func WithTarget(n host.Node) ApplyOption {
	return func(c *applyConfig) {
		c.target = n
		c.targetSet = true
	}
}

// WithHooks sets the ambient lifecycle hooks.
func WithHooks(h Hooks) ApplyOption {
	return func(c *applyConfig) {
		c.hooks = h
	}
}

// WithLogger sets the logger used for debug output. Default: slog.Default().
func WithLogger(l *slog.Logger) ApplyOption {
	return func(c *applyConfig) {
		c.logger = l
	}
}

// WithHookObserver registers a function called once for every hook
// dispatched, whether it reaches an owner, the Hooks bag or nobody.
func WithHookObserver(fn func(HookKind)) ApplyOption {
	return func(c *applyConfig) {
		c.observer = fn
	}
}

// applier holds the state shared by every scope of one Apply call.
type applier struct {
	h          host.Host
	root       host.Node
	hooks      Hooks
	logger     *slog.Logger
	observer   func(HookKind)
	dispatched map[host.Node]struct{}
}

// scope is one virtual-element slot being patched.
type scope struct {
	target    host.Node
	container host.Node // node holding target
	index     int       // target's position in container, -1 to append
	path      []int
	ctx       *Context
}

// containerRecord returns the record for the node holding the target. It
// lives in the enclosing scope's context when there is one.
func (s *scope) containerRecord() *Changes {
	if s.ctx.parent != nil {
		return s.ctx.parent.record(s.container)
	}
	return s.ctx.record(s.container)
}

// Apply runs t against the host tree under root.
//
// Self edits run first in list order, then each child sub-tree against the
// live child at its index. Evicted children that no edit reclaimed are
// reported as removed, and DidUpdate is dispatched bottom-up once all edits
// are in. A failure leaves the host tree partially patched; recover by
// diffing against the current state again.
func (t *Tree) Apply(h host.Host, root host.Node, opts ...ApplyOption) error {
	cfg := applyConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	a := &applier{
		h:          h,
		root:       root,
		hooks:      cfg.hooks,
		logger:     cfg.logger,
		observer:   cfg.observer,
		dispatched: make(map[host.Node]struct{}),
	}

	s := &scope{container: root, index: -1, ctx: newContext(nil)}
	if cfg.targetSet {
		s.target = cfg.target
		if s.target != nil {
			if p := h.Parent(s.target); p != nil {
				s.container = p
			}
			s.index = host.IndexOf(h, s.container, s.target)
		}
	} else if s.target = h.Child(root, 0); s.target != nil {
		s.index = 0
	}

	return a.run(t, s)
}

func (a *applier) run(t *Tree, s *scope) error {
	if t == nil {
		return nil
	}
	for _, p := range t.Patches {
		if err := p.apply(a, s); err != nil {
			a.logger.Debug("patch failed", "op", p.Op(), "path", pathString(s.path), "error", err)
			return err
		}
		a.logger.Debug("patch applied", "op", p.Op(), "path", pathString(s.path))
	}

	if s.target != nil {
		for _, c := range t.Children {
			child := &scope{
				target:    a.h.Child(s.target, c.Index),
				container: s.target,
				index:     c.Index,
				path:      childPath(s.path, c.Index),
				ctx:       newContext(s.ctx),
			}
			if err := a.run(c.Tree, child); err != nil {
				return err
			}
		}
		// Evicted children nobody reclaimed are gone for good. They were
		// notified when evicted; their subtrees are notified now, after the
		// evicted root already left the tree.
		if gone := s.ctx.settle(s.target); len(gone) > 0 {
			for _, n := range gone {
				a.willDisconnectDescendants(n)
			}
			a.logger.Debug("evicted children removed", "path", pathString(s.path), "count", len(gone))
		}
	}

	a.dispatchUpdates(s.ctx)
	return nil
}

func (a *applier) materialize(s *scope, op Op, v *vdom.VNode) ([]host.Node, error) {
	n, err := a.h.Materialize(v)
	if err != nil {
		return nil, hostError(s.path, op, err)
	}
	return host.Flatten(n), nil
}

// insert places nodes before ref in parent, firing WillConnect for each
// before it goes in and DidConnect for all of them afterwards.
func (a *applier) insert(s *scope, op Op, parent host.Node, nodes []host.Node, ref host.Node) error {
	for _, n := range nodes {
		a.willConnect(n)
		if err := a.h.InsertBefore(parent, n, ref); err != nil {
			return hostError(s.path, op, err)
		}
	}
	for _, n := range nodes {
		a.didConnect(n)
	}
	return nil
}

// remove notifies n and its descendants, then detaches n.
func (a *applier) remove(s *scope, op Op, n host.Node) error {
	a.willDisconnectTree(n)
	if err := a.h.Remove(n); err != nil {
		return hostError(s.path, op, err)
	}
	s.ctx.forget(n)
	return nil
}

func (p AddAttribute) apply(a *applier, s *scope) error {
	return a.setAttribute(s, p.Op(), p.Name, nil, p.Value)
}

func (p SetAttribute) apply(a *applier, s *scope) error {
	return a.setAttribute(s, p.Op(), p.Name, p.Old, p.New)
}

func (p RemoveAttribute) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	var err error
	if vdom.IsEventHandler(p.Name, p.Old) {
		err = a.h.RemoveListener(s.target, vdom.EventName(p.Name))
	} else {
		err = a.h.RemoveAttribute(s.target, p.Name)
	}
	if err != nil {
		return hostError(s.path, p.Op(), err)
	}
	s.ctx.record(s.target).attr(p.Name, p.Old, nil)
	return nil
}

// setAttribute routes handler-valued props to listeners. A prop switching
// between a handler and a plain value is removed from the old side first.
func (a *applier) setAttribute(s *scope, op Op, name string, old, value any) error {
	if s.target == nil {
		return missingTarget(s.path, op)
	}
	oldHandler := vdom.IsEventHandler(name, old)
	newHandler := vdom.IsEventHandler(name, value)

	var err error
	switch {
	case newHandler:
		if old != nil && !oldHandler {
			if err = a.h.RemoveAttribute(s.target, name); err != nil {
				break
			}
		}
		err = a.h.AddListener(s.target, vdom.EventName(name), value)
	default:
		if oldHandler {
			if err = a.h.RemoveListener(s.target, vdom.EventName(name)); err != nil {
				break
			}
		}
		err = a.h.SetAttribute(s.target, name, value)
	}
	if err != nil {
		return hostError(s.path, op, err)
	}
	s.ctx.record(s.target).attr(name, old, value)
	return nil
}

func (p SetText) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	if err := a.h.SetText(s.target, p.New); err != nil {
		return hostError(s.path, p.Op(), err)
	}
	s.ctx.record(s.target).Text = &TextChange{Old: p.Old, New: p.New}
	return nil
}

func (p ReplaceText) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	nodes, err := a.materialize(s, p.Op(), vdom.Text(p.New))
	if err != nil {
		return err
	}
	if err := a.h.Replace(s.target, nodes[0]); err != nil {
		return hostError(s.path, p.Op(), err)
	}
	old := s.target
	s.target = nodes[0]

	rec := s.containerRecord()
	rec.Removed = append(rec.Removed, old)
	rec.Inserted = append(rec.Inserted, s.target)
	s.ctx.record(s.target).Text = &TextChange{Old: p.Old, New: p.New}
	return nil
}

func (p RemoveText) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)
	rec := s.ctx.record(s.target)
	for _, c := range host.Children(a.h, s.target) {
		if !a.h.IsText(c) {
			continue
		}
		if err := a.remove(s, p.Op(), c); err != nil {
			return err
		}
		rec.Removed = append(rec.Removed, c)
	}
	return nil
}

func (p AddChildren) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)
	var nodes []host.Node
	for _, v := range p.Nodes {
		ns, err := a.materialize(s, p.Op(), v)
		if err != nil {
			return err
		}
		nodes = append(nodes, ns...)
	}
	if err := a.insert(s, p.Op(), s.target, nodes, nil); err != nil {
		return err
	}
	rec := s.ctx.record(s.target)
	rec.Inserted = append(rec.Inserted, nodes...)
	return nil
}

func (p RemoveChildren) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)
	rec := s.ctx.record(s.target)
	for _, c := range host.Children(a.h, s.target) {
		if err := a.remove(s, p.Op(), c); err != nil {
			return err
		}
		rec.Removed = append(rec.Removed, c)
	}
	return nil
}

func (p RemoveChildrenRange) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)
	rec := s.ctx.record(s.target)
	// From stays fixed: the list shrinks under it.
	for k := 0; k < p.Count; k++ {
		c := a.h.Child(s.target, p.From)
		if c == nil {
			break
		}
		if err := a.remove(s, p.Op(), c); err != nil {
			return err
		}
		rec.Removed = append(rec.Removed, c)
	}
	return nil
}

func (p SetChild) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)
	nodes, err := a.materialize(s, p.Op(), p.Node)
	if err != nil {
		return err
	}
	if err := a.place(s, p.Op(), nodes, p.Index); err != nil {
		return err
	}
	rec := s.ctx.record(s.target)
	rec.Inserted = append(rec.Inserted, nodes...)
	return nil
}

func (p MoveChild) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	s.ctx.capture(a.h, s.target)

	node, ok := s.ctx.reclaim(p.From)
	if !ok {
		node = a.h.Child(s.target, p.From-p.Offset)
		if orig := s.ctx.original(p.From); orig != nil && node != orig {
			node = orig
		}
	}
	if node == nil {
		return missingTarget(childPath(s.path, p.From), p.Op())
	}
	if a.h.Child(s.target, p.To) == node {
		return nil
	}
	if err := a.place(s, p.Op(), []host.Node{node}, p.To); err != nil {
		return err
	}
	rec := s.ctx.record(s.target)
	rec.Moved = append(rec.Moved, node)
	return nil
}

// place puts nodes at index of the target's child list. The current occupant
// is evicted: it gets WillDisconnect and is registered as displaced so a
// later edit of the same batch can reclaim it. Without an occupant the nodes
// are appended.
func (a *applier) place(s *scope, op Op, nodes []host.Node, index int) error {
	if len(nodes) == 0 {
		return nil
	}
	occupant := a.h.Child(s.target, index)
	if occupant == nil {
		return a.insert(s, op, s.target, nodes, nil)
	}

	a.willDisconnect(occupant)
	if !s.ctx.displace(occupant) {
		rec := s.ctx.record(s.target)
		rec.Removed = append(rec.Removed, occupant)
	}
	for _, n := range nodes {
		a.willConnect(n)
	}
	if err := a.h.Replace(occupant, nodes[0]); err != nil {
		return hostError(s.path, op, err)
	}
	for _, n := range nodes[1:] {
		if err := a.h.InsertBefore(s.target, n, a.h.Child(s.target, index+1)); err != nil {
			return hostError(s.path, op, err)
		}
		index++
	}
	for _, n := range nodes {
		a.didConnect(n)
	}
	return nil
}

func (p SetElement) apply(a *applier, s *scope) error {
	nodes, err := a.materialize(s, p.Op(), p.Node)
	if err != nil {
		return err
	}
	if s.target != nil {
		if err := a.insert(s, p.Op(), s.target, nodes, nil); err != nil {
			return err
		}
		rec := s.ctx.record(s.target)
		rec.Inserted = append(rec.Inserted, nodes...)
		return nil
	}

	if s.container == nil {
		return missingTarget(s.path, p.Op())
	}
	var ref host.Node
	if s.index >= 0 {
		ref = a.h.Child(s.container, s.index)
	}
	if err := a.insert(s, p.Op(), s.container, nodes, ref); err != nil {
		return err
	}
	if len(nodes) == 1 {
		s.target = nodes[0]
	}
	rec := s.containerRecord()
	rec.Inserted = append(rec.Inserted, nodes...)
	return nil
}

func (p ReplaceElement) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	nodes, err := a.materialize(s, p.Op(), p.Node)
	if err != nil {
		return err
	}
	old := s.target
	parent := a.h.Parent(old)
	if parent == nil {
		return hostError(s.path, p.Op(), errDetached)
	}

	a.willDisconnectTree(old)
	for _, n := range nodes {
		a.willConnect(n)
	}
	if len(nodes) == 1 {
		err = a.h.Replace(old, nodes[0])
	} else {
		for _, n := range nodes {
			if err = a.h.InsertBefore(parent, n, old); err != nil {
				break
			}
		}
		if err == nil {
			err = a.h.Remove(old)
		}
	}
	if err != nil {
		return hostError(s.path, p.Op(), err)
	}
	for _, n := range nodes {
		a.didConnect(n)
	}

	if len(nodes) > 0 {
		s.target = nodes[0]
	} else {
		s.target = nil
	}
	rec := s.containerRecord()
	rec.Removed = append(rec.Removed, old)
	rec.Inserted = append(rec.Inserted, nodes...)
	return nil
}

func (p RemoveElement) apply(a *applier, s *scope) error {
	if s.target == nil {
		return missingTarget(s.path, p.Op())
	}
	old := s.target
	if err := a.remove(s, p.Op(), old); err != nil {
		return err
	}
	s.target = nil
	rec := s.containerRecord()
	rec.Removed = append(rec.Removed, old)
	return nil
}

func pathString(p []int) string {
	return errors.Path(p).String()
}
