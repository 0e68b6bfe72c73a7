package protocol

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/vpatch/pkg/host/htmlhost"
	"github.com/vango-dev/vpatch/pkg/patch"
	. "github.com/vango-dev/vpatch/pkg/vdom"
)

func list(keys ...string) *VNode {
	items := make([]*VNode, 0, len(keys))
	for _, k := range keys {
		items = append(items, Li(Key(k), k))
	}
	return Ul(items)
}

var treeCases = []struct {
	name       string
	prev, next *VNode
}{
	{"empty", Div("x"), Div("x")},
	{"insert root", nil, Div(ID("app"), "hi")},
	{"remove root", Div("bye"), nil},
	{"root text", Text("a"), Text("b")},
	{"attributes", Div(Class("a"), ID("x")), Div(Class("b"), TitleAttr("t"), AttrOf("tabindex", 3))},
	{"child text", P("old"), P("new")},
	{"tag change", Div(Span("x")), Div(Section("x"))},
	{"fill", Ul(), Ul(Li("a"), Li("b"))},
	{"clear", Ul(Li("a")), Ul()},
	{"clear text", P("a", "b"), P()},
	{"truncate", Ul(Li("a"), Li("b"), Li("c")), Ul(Li("a"))},
	{"keyed reorder", list("a", "b", "c", "d"), list("d", "b", "x", "a")},
	{"keyed removal", list("a", "b", "c"), list("c")},
	{"nested", Div(list("a", "b"), P("t")), Div(list("b", "a"), P("u"))},
}

func TestPatchTreeRoundTrip(t *testing.T) {
	for _, tt := range treeCases {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := patch.Diff(tt.prev, tt.next)
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}
			data, err := EncodePatchTree(tree)
			if err != nil {
				t.Fatalf("EncodePatchTree() error = %v", err)
			}
			got, err := DecodePatchTree(data, Limits{})
			if err != nil {
				t.Fatalf("DecodePatchTree() error = %v", err)
			}
			if diff := cmp.Diff(tree, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDecodedTreeApplies checks that a decoded tree drives a remote document
// to the same state as the sender's.
func TestDecodedTreeApplies(t *testing.T) {
	for _, tt := range treeCases {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := patch.Diff(tt.prev, tt.next)
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}
			data, err := EncodePatchTree(tree)
			if err != nil {
				t.Fatalf("EncodePatchTree() error = %v", err)
			}
			decoded, err := DecodePatchTree(data, Limits{})
			if err != nil {
				t.Fatalf("DecodePatchTree() error = %v", err)
			}

			doc := htmlhost.New()
			if tt.prev != nil {
				if err := doc.Mount(tt.prev); err != nil {
					t.Fatalf("Mount() error = %v", err)
				}
			}
			if err := decoded.Apply(doc, doc.Root()); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			want := htmlhost.New()
			if tt.next != nil {
				if err := want.Mount(tt.next); err != nil {
					t.Fatalf("Mount() error = %v", err)
				}
			}
			if doc.String() != want.String() {
				t.Errorf("remote document = %s, want %s", doc.String(), want.String())
			}
		})
	}
}

func TestEncodePatchHandlers(t *testing.T) {
	tree := &patch.Tree{Patches: []patch.Patch{
		patch.AddAttribute{Name: "onclick", Value: func() {}},
	}}
	data, err := EncodePatchTree(tree)
	if err != nil {
		t.Fatalf("EncodePatchTree() error = %v", err)
	}
	got, err := DecodePatchTree(data, Limits{})
	if err != nil {
		t.Fatalf("DecodePatchTree() error = %v", err)
	}
	add, ok := got.Patches[0].(patch.AddAttribute)
	if !ok {
		t.Fatalf("decoded %T, want AddAttribute", got.Patches[0])
	}
	if _, ok := add.Value.(RemoteHandler); !ok {
		t.Errorf("decoded value %T, want RemoteHandler", add.Value)
	}
}

func TestDecodePatchUnknownOp(t *testing.T) {
	data := []byte{0x01, 0xEE, 0x00}
	if _, err := DecodePatchTree(data, Limits{}); !stderrors.Is(err, ErrUnknownOp) {
		t.Fatalf("DecodePatchTree() error = %v, want ErrUnknownOp", err)
	}
}

func TestDecodePatchTreeDepthLimit(t *testing.T) {
	tree := &patch.Tree{}
	for i := 0; i < 8; i++ {
		tree = &patch.Tree{Children: []patch.ChildTree{{Index: 0, Tree: tree}}}
	}
	data, err := EncodePatchTree(tree)
	if err != nil {
		t.Fatalf("EncodePatchTree() error = %v", err)
	}
	if _, err := DecodePatchTree(data, Limits{MaxDepth: 4}); !stderrors.Is(err, ErrLimitExceeded) {
		t.Fatalf("DecodePatchTree() error = %v, want ErrLimitExceeded", err)
	}
	if _, err := DecodePatchTree(data, Limits{}); err != nil {
		t.Fatalf("DecodePatchTree() error = %v", err)
	}
}

func TestEveryOpcodeDecodes(t *testing.T) {
	node := Li(Key("k"), "v")
	patches := []patch.Patch{
		patch.AddAttribute{Name: "id", Value: "x"},
		patch.SetAttribute{Name: "class", Old: "a", New: "b"},
		patch.RemoveAttribute{Name: "title", Old: "t"},
		patch.SetText{Old: "a", New: "b"},
		patch.ReplaceText{Old: "a", New: "b"},
		patch.RemoveText{},
		patch.AddChildren{Nodes: []*VNode{node}},
		patch.RemoveChildren{},
		patch.RemoveChildrenRange{From: 2, Count: 3},
		patch.SetChild{Index: 1, Node: node},
		patch.MoveChild{From: 4, To: 1, Offset: 2},
		patch.SetElement{Node: node},
		patch.ReplaceElement{Node: node},
		patch.RemoveElement{},
	}
	seen := make(map[patch.Op]bool)
	for _, p := range patches {
		e := NewEncoder()
		if err := EncodePatch(e, p); err != nil {
			t.Fatalf("EncodePatch(%s) error = %v", p, err)
		}
		got, err := DecodePatch(NewDecoder(e.Bytes()))
		if err != nil {
			t.Fatalf("DecodePatch(%s) error = %v", p, err)
		}
		if diff := cmp.Diff(p, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", p.Op(), diff)
		}
		seen[p.Op()] = true
	}
	for _, op := range patch.Ops() {
		if !seen[op] {
			t.Errorf("no coverage for %s", op)
		}
	}
}
