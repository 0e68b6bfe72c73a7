// Package vdom provides the virtual node model diffed by package patch.
//
// A snapshot is an immutable tree of *VNode values built once per render.
// Nodes are elements (tag, props, children), text leaves carrying a scalar
// payload, or fragments that materialize as a batch of sibling host nodes.
// A nil *VNode stands for the absence of a node.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Ul(Class("todo"),
//	    Li(Key("a"), Text("first")),
//	    Li(Key("b"), Text("second")),
//	    OnClick(handler),
//	)
//
// # Keys
//
// Siblings may carry a key (the Key field, or a "key" prop) used to match
// children across renders independently of position. A child list is either
// fully keyed or fully unkeyed, and keys are unique among siblings.
//
// # Snapshots on the wire
//
// VNode implements json.Marshaler and json.Unmarshaler for the snapshot
// document format read by the CLI and the HTTP server:
//
//	{"tag": "ul", "attrs": {"class": "todo"}, "children": [
//	    {"tag": "li", "key": "a", "children": [{"text": "first"}]}
//	]}
package vdom
