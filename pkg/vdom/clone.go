package vdom

import "github.com/huandu/go-clone"

// Clone returns a deep copy of the snapshot rooted at node.
//
// Prop values are deep-copied so the copy stays valid when the caller later
// mutates maps or slices it passed as attributes. Owners are shared, not
// copied: they identify live components.
func Clone(node *VNode) *VNode {
	if node == nil {
		return nil
	}
	out := &VNode{
		Kind:  node.Kind,
		Tag:   node.Tag,
		Key:   node.Key,
		Value: node.Value,
		Owner: node.Owner,
	}
	if node.Props != nil {
		out.Props = make(Props, len(node.Props))
		for k, v := range node.Props {
			out.Props[k] = cloneValue(v)
		}
	}
	if node.Children != nil {
		out.Children = make([]*VNode, len(node.Children))
		for i, child := range node.Children {
			out.Children[i] = Clone(child)
		}
	}
	return out
}

func cloneValue(v any) any {
	if v == nil || IsScalar(v) {
		return v
	}
	return clone.Clone(v)
}
