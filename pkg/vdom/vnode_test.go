package vdom

import "testing"

func TestVKindString(t *testing.T) {
	tests := []struct {
		kind VKind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindFragment, "Fragment"},
		{VKind(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("VKind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVNodeIsInteractive(t *testing.T) {
	tests := []struct {
		name string
		node *VNode
		want bool
	}{
		{
			name: "nil node",
			node: nil,
			want: false,
		},
		{
			name: "text node",
			node: Text("hello"),
			want: false,
		},
		{
			name: "element without handlers",
			node: &VNode{Kind: KindElement, Tag: "div", Props: Props{"class": "test"}},
			want: false,
		},
		{
			name: "element with onclick",
			node: &VNode{Kind: KindElement, Tag: "button", Props: Props{"onclick": func() {}}},
			want: true,
		},
		{
			name: "string value on on-prefixed key",
			node: &VNode{Kind: KindElement, Tag: "div", Props: Props{"one": "two"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsInteractive(); got != tt.want {
				t.Errorf("IsInteractive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextContent(t *testing.T) {
	tests := []struct {
		node *VNode
		want string
	}{
		{Text("hi"), "hi"},
		{TextOf(42), "42"},
		{TextOf(true), "true"},
		{TextOf(1.5), "1.5"},
		{Div(), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := tt.node.TextContent(); got != tt.want {
			t.Errorf("TextContent(%s) = %q, want %q", tt.node.Describe(), got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		node *VNode
		want string
	}{
		{nil, "<absent>"},
		{Li(Key("a")), `<li key="a">`},
		{Div(), "<div>"},
		{Text("x"), "#text(x)"},
		{Fragment(), "#fragment"},
	}
	for _, tt := range tests {
		if got := tt.node.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestWithOwner(t *testing.T) {
	owner := &struct{ name string }{"counter"}
	node := Div().WithOwner(owner)
	if node.Owner != owner {
		t.Error("WithOwner should attach the owner")
	}
}

func TestCreateElement(t *testing.T) {
	t.Run("basic element", func(t *testing.T) {
		node := Div()
		if node.Kind != KindElement || node.Tag != "div" {
			t.Errorf("got %v %q, want Element div", node.Kind, node.Tag)
		}
	})

	t.Run("attributes and events", func(t *testing.T) {
		node := Button(Class("a", "b"), ID("go"), OnClick(func() {}), Disabled())
		if node.Props["class"] != "a b" {
			t.Errorf("class = %v, want a b", node.Props["class"])
		}
		if node.Props["id"] != "go" {
			t.Errorf("id = %v", node.Props["id"])
		}
		if !IsEventHandler("onclick", node.Props["onclick"]) {
			t.Error("onclick should be an event handler")
		}
		if node.Props["disabled"] != true {
			t.Errorf("disabled = %v", node.Props["disabled"])
		}
	})

	t.Run("children and nils", func(t *testing.T) {
		node := Ul(nil, Li("one"), []*VNode{Li("two"), nil}, "tail", []Attr{Data("x", "1")})
		if len(node.Children) != 3 {
			t.Fatalf("Children len = %d, want 3", len(node.Children))
		}
		if node.Children[2].Kind != KindText || node.Children[2].TextContent() != "tail" {
			t.Errorf("string argument should become a text child")
		}
		if node.Props["data-x"] != "1" {
			t.Errorf("data-x = %v", node.Props["data-x"])
		}
	})

	t.Run("key attribute", func(t *testing.T) {
		node := Li(Key(7))
		if node.Key != "7" {
			t.Errorf("Key = %q, want 7", node.Key)
		}
		if KeyOf(node) != "7" {
			t.Errorf("KeyOf = %q, want 7", KeyOf(node))
		}
	})

	t.Run("arbitrary tag", func(t *testing.T) {
		if El("x-widget").Tag != "x-widget" {
			t.Error("El should keep the tag")
		}
	})
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("br") || !IsVoidElement("input") {
		t.Error("br and input are void")
	}
	if IsVoidElement("div") {
		t.Error("div is not void")
	}
}

func TestFragment(t *testing.T) {
	f := Fragment(Text("a"), nil, []*VNode{Span(), nil}, "b")
	if f.Kind != KindFragment {
		t.Fatalf("Kind = %v", f.Kind)
	}
	if len(f.Children) != 3 {
		t.Errorf("Children len = %d, want 3", len(f.Children))
	}
}

func TestIfAndRange(t *testing.T) {
	if If(false, Div()) != nil {
		t.Error("If(false) should be nil")
	}
	items := Range([]string{"a", "b"}, func(s string, i int) *VNode {
		return Li(Key(s), Textf("%d:%s", i, s))
	})
	if len(items) != 2 || KeyOf(items[1]) != "b" || items[1].Children[0].TextContent() != "1:b" {
		t.Errorf("Range produced %v", items)
	}
}
