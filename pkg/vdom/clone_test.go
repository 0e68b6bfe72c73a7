package vdom

import "testing"

func TestClone(t *testing.T) {
	owner := &struct{}{}
	style := map[string]any{"color": "red"}
	orig := Div(AttrOf("style-map", style), Li(Key("a"), Text("x"))).WithOwner(owner)

	cp := Clone(orig)

	if cp == orig || cp.Children[0] == orig.Children[0] {
		t.Fatal("Clone should allocate new nodes")
	}
	if cp.Owner != owner {
		t.Error("Clone should share the owner")
	}
	if KeyOf(cp.Children[0]) != "a" || cp.Children[0].Children[0].TextContent() != "x" {
		t.Error("Clone lost structure")
	}

	style["color"] = "blue"
	if got := cp.Props["style-map"].(map[string]any)["color"]; got != "red" {
		t.Errorf("cloned prop followed the original: %v", got)
	}
	if !ValuesEqual(cp.Props["style-map"], map[string]any{"color": "red"}) {
		t.Error("cloned prop changed")
	}
}

func TestCloneNil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
