package vdom

import "strings"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Scalar text leaf
	KindFragment              // Sibling batch without wrapper
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes and event handlers
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Value    any      // Text payload: string, bool, integer or float
	Owner    any      // Component owning the materialized host node, if any
}

// Props holds attributes and event handlers.
type Props map[string]any

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key, value := range v.Props {
		if IsEventHandler(key, value) {
			return true
		}
	}
	return false
}

// TextContent returns the text payload of a text node as a string.
func (v *VNode) TextContent() string {
	if v == nil || v.Kind != KindText {
		return ""
	}
	return ValueString(v.Value)
}

// WithOwner attaches a component owner and returns v.
// Owners implementing lifecycle hook methods receive the notifications
// for the host node materialized from v. The owner is read at
// materialization only, so changing it on a node that is diffed against
// an existing one has no effect.
func (v *VNode) WithOwner(owner any) *VNode {
	v.Owner = owner
	return v
}

// Describe returns a short human-readable label such as <li key="a">.
func (v *VNode) Describe() string {
	if v == nil {
		return "<absent>"
	}
	switch v.Kind {
	case KindElement:
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(v.Tag)
		if k := KeyOf(v); k != "" {
			b.WriteString(` key="`)
			b.WriteString(k)
			b.WriteByte('"')
		}
		b.WriteByte('>')
		return b.String()
	case KindText:
		return "#text(" + ValueString(v.Value) + ")"
	case KindFragment:
		return "#fragment"
	default:
		return "#unknown"
	}
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call
}
