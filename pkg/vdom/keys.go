package vdom

// KeyProp is the reserved prop name holding a node's reconciliation key.
// It is never rendered or diffed as an attribute.
const KeyProp = "key"

// KeyOf returns the reconciliation key of node, or "" when it has none.
// The Key field wins over a "key" prop.
func KeyOf(node *VNode) string {
	if node == nil || node.Kind != KindElement {
		return ""
	}
	if node.Key != "" {
		return node.Key
	}
	if node.Props == nil {
		return ""
	}
	if key, ok := node.Props[KeyProp]; ok && key != nil {
		return ValueString(key)
	}
	return ""
}

// HasKeys returns true if any child has a key.
func HasKeys(children []*VNode) bool {
	for _, child := range children {
		if KeyOf(child) != "" {
			return true
		}
	}
	return false
}
