// Package htmlhost implements host.Host on top of golang.org/x/net/html nodes.
//
// It is the reference host used by the CLI, the session server and the
// round-trip tests: a patch tree applied to an htmlhost document must render
// the same markup as a document materialized directly from the next snapshot.
package htmlhost

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/host"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Document is a host tree of *html.Node values. Listeners and owners are not
// representable in markup, so they live in side tables keyed by node.
// Detaching a node keeps its entries, since a displaced node may be put back
// before an apply finishes. Call Prune once the tree is settled.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	listeners map[*html.Node]map[string]any
	owners    map[*html.Node]any
}

var _ host.Host = (*Document)(nil)

// New creates an empty document. Its root is a detached document node whose
// children are the top-level nodes of the rendered tree.
func New() *Document {
	return &Document{
		root:      &html.Node{Type: html.DocumentNode},
		listeners: make(map[*html.Node]map[string]any),
		owners:    make(map[*html.Node]any),
	}
}

// Parse builds a document from an HTML fragment. Parsed nodes carry no
// listeners and no owners.
func Parse(r io.Reader) (*Document, error) {
	doc := New()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, errors.New("E202").WithDetail("parse HTML fragment").Wrap(err)
	}
	for _, n := range nodes {
		doc.root.AppendChild(n)
	}
	return doc, nil
}

// Root returns the document root.
func (d *Document) Root() host.Node {
	return d.root
}

// Mount materializes v and appends it under the document root.
func (d *Document) Mount(v *vdom.VNode) error {
	n, err := d.Materialize(v)
	if err != nil {
		return err
	}
	for _, c := range host.Flatten(n) {
		if err := d.InsertBefore(d.root, c, nil); err != nil {
			return err
		}
	}
	return nil
}

// Listener returns the handler registered on n for event.
func (d *Document) Listener(n host.Node, event string) (any, bool) {
	hn, ok := n.(*html.Node)
	if !ok {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.listeners[hn][event]
	return h, ok
}

// Listeners returns the event names registered on n, sorted.
func (d *Document) Listeners(n host.Node) []string {
	hn, ok := n.(*html.Node)
	if !ok {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.listeners[hn]))
	for name := range d.listeners[hn] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attribute returns the value of a plain attribute on n.
func (d *Document) Attribute(n host.Node, name string) (string, bool) {
	hn, ok := n.(*html.Node)
	if !ok {
		return "", false
	}
	for _, a := range hn.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Tag returns the element name of n, or "" for non-elements.
func (d *Document) Tag(n host.Node) string {
	hn, ok := n.(*html.Node)
	if !ok || hn.Type != html.ElementNode {
		return ""
	}
	return hn.Data
}

// HTML renders the children of the document root.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes the children of the document root to w.
func (d *Document) Render(w io.Writer) error {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String returns the rendered markup, or the render error text.
func (d *Document) String() string {
	s, err := d.HTML()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return s
}

// Child implements host.Tree.
func (d *Document) Child(parent host.Node, index int) host.Node {
	p, ok := parent.(*html.Node)
	if !ok || p == nil || index < 0 {
		return nil
	}
	i := 0
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if i == index {
			return c
		}
		i++
	}
	return nil
}

// ChildCount implements host.Tree.
func (d *Document) ChildCount(parent host.Node) int {
	p, ok := parent.(*html.Node)
	if !ok || p == nil {
		return 0
	}
	count := 0
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Parent implements host.Tree.
func (d *Document) Parent(n host.Node) host.Node {
	hn, ok := n.(*html.Node)
	if !ok || hn == nil || hn.Parent == nil {
		return nil
	}
	return hn.Parent
}

// InsertBefore implements host.Tree.
func (d *Document) InsertBefore(parent, child, ref host.Node) error {
	p, err := asNode(parent, "parent")
	if err != nil {
		return err
	}
	c, err := asNode(child, "child")
	if err != nil {
		return err
	}
	var r *html.Node
	if ref != nil {
		if r, err = asNode(ref, "reference"); err != nil {
			return err
		}
		if r.Parent != p {
			return errors.New("E202").WithDetail("reference node is not a child of parent")
		}
		if r == c {
			return nil
		}
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	p.InsertBefore(c, r)
	return nil
}

// Remove implements host.Tree.
func (d *Document) Remove(n host.Node) error {
	hn, err := asNode(n, "node")
	if err != nil {
		return err
	}
	if hn.Parent != nil {
		hn.Parent.RemoveChild(hn)
	}
	return nil
}

// Replace implements host.Tree.
func (d *Document) Replace(old, replacement host.Node) error {
	o, err := asNode(old, "old")
	if err != nil {
		return err
	}
	r, err := asNode(replacement, "replacement")
	if err != nil {
		return err
	}
	if o == r {
		return nil
	}
	if o.Parent == nil {
		return errors.New("E202").WithDetail("replaced node is detached")
	}
	if r.Parent != nil {
		r.Parent.RemoveChild(r)
	}
	parent := o.Parent
	parent.InsertBefore(r, o)
	parent.RemoveChild(o)
	return nil
}

// SetAttribute implements host.Tree. true renders as an empty attribute,
// false and nil remove the attribute.
func (d *Document) SetAttribute(n host.Node, name string, value any) error {
	hn, err := asElement(n)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case nil:
		removeAttr(hn, name)
		return nil
	case bool:
		if !v {
			removeAttr(hn, name)
			return nil
		}
		setAttr(hn, name, "")
		return nil
	}
	setAttr(hn, name, vdom.ValueString(value))
	return nil
}

// RemoveAttribute implements host.Tree.
func (d *Document) RemoveAttribute(n host.Node, name string) error {
	hn, err := asElement(n)
	if err != nil {
		return err
	}
	removeAttr(hn, name)
	return nil
}

// AddListener implements host.Tree.
func (d *Document) AddListener(n host.Node, event string, handler any) error {
	hn, err := asElement(n)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.listeners[hn]
	if m == nil {
		m = make(map[string]any)
		d.listeners[hn] = m
	}
	m[event] = handler
	return nil
}

// RemoveListener implements host.Tree.
func (d *Document) RemoveListener(n host.Node, event string) error {
	hn, err := asElement(n)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if m := d.listeners[hn]; m != nil {
		delete(m, event)
		if len(m) == 0 {
			delete(d.listeners, hn)
		}
	}
	return nil
}

// Text implements host.Tree.
func (d *Document) Text(n host.Node) string {
	hn, ok := n.(*html.Node)
	if !ok || hn == nil || hn.Type != html.TextNode {
		return ""
	}
	return hn.Data
}

// SetText implements host.Tree.
func (d *Document) SetText(n host.Node, text string) error {
	hn, err := asNode(n, "node")
	if err != nil {
		return err
	}
	if hn.Type != html.TextNode {
		return errors.New("E202").WithDetailf("set text on %s node", describe(hn))
	}
	hn.Data = text
	return nil
}

// IsText implements host.Tree.
func (d *Document) IsText(n host.Node) bool {
	hn, ok := n.(*html.Node)
	return ok && hn != nil && hn.Type == html.TextNode
}

// Owner implements host.Tree.
func (d *Document) Owner(n host.Node) any {
	hn, ok := n.(*html.Node)
	if !ok {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.owners[hn]
}

// Prune drops listener and owner entries for nodes no longer attached under
// the document root and reports how many nodes it forgot.
func (d *Document) Prune() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	gone := make(map[*html.Node]struct{})
	for n := range d.listeners {
		if !d.attached(n) {
			gone[n] = struct{}{}
		}
	}
	for n := range d.owners {
		if !d.attached(n) {
			gone[n] = struct{}{}
		}
	}
	for n := range gone {
		delete(d.listeners, n)
		delete(d.owners, n)
	}
	return len(gone)
}

// Tracked returns the number of nodes holding listener or owner entries.
func (d *Document) Tracked() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := len(d.listeners)
	for hn := range d.owners {
		if _, ok := d.listeners[hn]; !ok {
			n++
		}
	}
	return n
}

func (d *Document) attached(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// Materialize implements host.Materializer.
func (d *Document) Materialize(v *vdom.VNode) (host.Node, error) {
	if v == nil {
		return nil, errors.New("E202").WithDetail("materialize absent node")
	}
	switch v.Kind {
	case vdom.KindText:
		return &html.Node{Type: html.TextNode, Data: v.TextContent()}, nil
	case vdom.KindFragment:
		batch := host.Batch{Nodes: make([]host.Node, 0, len(v.Children))}
		for _, c := range v.Children {
			n, err := d.Materialize(c)
			if err != nil {
				return nil, err
			}
			batch.Nodes = append(batch.Nodes, host.Flatten(n)...)
		}
		return batch, nil
	case vdom.KindElement:
		return d.materializeElement(v)
	}
	return nil, errors.New("E202").WithDetailf("materialize %s node", v.Kind)
}

func (d *Document) materializeElement(v *vdom.VNode) (host.Node, error) {
	if v.Tag == "" {
		return nil, errors.New("E202").WithDetail("materialize element without a tag")
	}
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     v.Tag,
		DataAtom: atom.Lookup([]byte(v.Tag)),
	}

	keys := make([]string, 0, len(v.Props))
	for k := range v.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := v.Props[k]
		switch {
		case k == vdom.KeyProp:
		case vdom.IsEventHandler(k, value):
			if err := d.AddListener(el, vdom.EventName(k), value); err != nil {
				return nil, err
			}
		default:
			if err := d.SetAttribute(el, k, value); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range v.Children {
		n, err := d.Materialize(c)
		if err != nil {
			return nil, err
		}
		for _, hn := range host.Flatten(n) {
			el.AppendChild(hn.(*html.Node))
		}
	}

	if v.Owner != nil {
		d.mu.Lock()
		d.owners[el] = v.Owner
		d.mu.Unlock()
	}
	return el, nil
}

func asNode(n host.Node, role string) (*html.Node, error) {
	hn, ok := n.(*html.Node)
	if !ok || hn == nil {
		return nil, errors.New("E202").WithDetailf("%s is %T, not *html.Node", role, n)
	}
	return hn, nil
}

func asElement(n host.Node) (*html.Node, error) {
	hn, err := asNode(n, "node")
	if err != nil {
		return nil, err
	}
	if hn.Type != html.ElementNode {
		return nil, errors.New("E202").WithDetailf("attribute operation on %s node", describe(hn))
	}
	return hn, nil
}

// setAttr keeps attributes sorted by name so patched and freshly
// materialized elements render identically.
func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	i := sort.Search(len(n.Attr), func(i int) bool { return n.Attr[i].Key >= name })
	n.Attr = append(n.Attr, html.Attribute{})
	copy(n.Attr[i+1:], n.Attr[i:])
	n.Attr[i] = html.Attribute{Key: name, Val: value}
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func describe(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "text"
	case html.ElementNode:
		return "<" + strings.ToLower(n.Data) + ">"
	case html.DocumentNode:
		return "document"
	case html.CommentNode:
		return "comment"
	}
	return "unknown"
}
