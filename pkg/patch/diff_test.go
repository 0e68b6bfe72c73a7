package patch

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vpatch/internal/errors"
	. "github.com/vango-dev/vpatch/pkg/vdom"
)

func keyedList(keys ...string) *VNode {
	items := make([]*VNode, 0, len(keys))
	for _, k := range keys {
		items = append(items, Li(Key(k), k))
	}
	return Ul(items)
}

func mustDiff(t *testing.T, prev, next *VNode) *Tree {
	t.Helper()
	tree, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	return tree
}

func opsOf(patches []Patch) []Op {
	ops := make([]Op, 0, len(patches))
	for _, p := range patches {
		ops = append(ops, p.Op())
	}
	return ops
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	build := func() *VNode {
		return Div(Class("card"), ID("x"),
			H1("title"),
			Ul(Li(Key("a"), "A"), Li(Key("b"), "B")),
			P(TextOf(3), " items"),
		)
	}
	tests := []struct {
		name       string
		prev, next *VNode
	}{
		{"absent", nil, nil},
		{"text", Text("x"), Text("x")},
		{"number text", TextOf(1.5), TextOf(1.5)},
		{"element", build(), build()},
		{"same pointer", keyedList("a"), nil},
	}
	tests[4].next = tests[4].prev

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustDiff(t, tt.prev, tt.next)
			if !tree.IsEmpty() {
				t.Errorf("Diff() = %s, want empty", tree)
			}
		})
	}
}

func TestDiffAbsentTransitions(t *testing.T) {
	for _, x := range []*VNode{Text("t"), Div("d"), Fragment(Span("a"), Span("b"))} {
		tree := mustDiff(t, nil, x)
		if diff := cmp.Diff([]Patch{SetElement{Node: x}}, tree.Patches); diff != "" {
			t.Errorf("Diff(nil, %s) mismatch (-want +got):\n%s", x.Describe(), diff)
		}
		if len(tree.Children) != 0 {
			t.Errorf("Diff(nil, %s) has child trees", x.Describe())
		}
	}
	for _, x := range []*VNode{Text("t"), Div("d")} {
		tree := mustDiff(t, x, nil)
		if got := opsOf(tree.Patches); len(got) != 1 || got[0] != OpRemoveElement {
			t.Errorf("Diff(%s, nil) = %v, want [RemoveElement]", x.Describe(), got)
		}
	}
}

func TestDiffTextTransitions(t *testing.T) {
	root := mustDiff(t, Text("a"), Text("b"))
	if diff := cmp.Diff([]Patch{ReplaceText{Old: "a", New: "b"}}, root.Patches); diff != "" {
		t.Errorf("root text change (-want +got):\n%s", diff)
	}

	child := mustDiff(t, P("a"), P("b"))
	want := &Tree{Children: []ChildTree{{Index: 0, Tree: &Tree{Patches: []Patch{SetText{Old: "a", New: "b"}}}}}}
	if diff := cmp.Diff(want, child); diff != "" {
		t.Errorf("child text change (-want +got):\n%s", diff)
	}

	toElement := mustDiff(t, Text("a"), Span("a"))
	if got := opsOf(toElement.Patches); len(got) != 1 || got[0] != OpReplaceElement {
		t.Errorf("text -> element = %v, want [ReplaceElement]", got)
	}
	toText := mustDiff(t, P(Span("a")), P("a"))
	if got := opsOf(toText.Children[0].Tree.Patches); len(got) != 1 || got[0] != OpReplaceElement {
		t.Errorf("element -> text = %v, want [ReplaceElement]", got)
	}
}

// Element names are compared: a tag change replaces the element instead of
// patching attributes and children across different element types.
func TestDiffTagMismatchReplaces(t *testing.T) {
	next := Span(Class("a"), "x")
	tree := mustDiff(t, Div(Class("a"), "x"), next)
	if diff := cmp.Diff([]Patch{ReplaceElement{Node: next}}, tree.Patches); diff != "" {
		t.Errorf("tag mismatch (-want +got):\n%s", diff)
	}
	if len(tree.Children) != 0 {
		t.Errorf("tag mismatch produced child trees: %s", tree)
	}
}

func TestDiffChildListEdges(t *testing.T) {
	items := []*VNode{Li("a"), Li("b")}
	add := mustDiff(t, Ul(), Ul(items))
	if diff := cmp.Diff([]Patch{AddChildren{Nodes: items}}, add.Patches); diff != "" {
		t.Errorf("empty -> children (-want +got):\n%s", diff)
	}

	removeText := mustDiff(t, P("a", "b"), P())
	if got := opsOf(removeText.Patches); len(got) != 1 || got[0] != OpRemoveText {
		t.Errorf("text children -> empty = %v, want [RemoveText]", got)
	}

	removeAll := mustDiff(t, P("a", Span("b")), P())
	if got := opsOf(removeAll.Patches); len(got) != 1 || got[0] != OpRemoveChildren {
		t.Errorf("mixed children -> empty = %v, want [RemoveChildren]", got)
	}
}

func TestDiffUnkeyed(t *testing.T) {
	prev := Div(P("a"), P("b"), P("c"))
	next := Div(P("a"), P("x"))
	tree := mustDiff(t, prev, next)

	want := &Tree{
		Patches: []Patch{RemoveChildrenRange{From: 2, Count: 1}},
		Children: []ChildTree{
			{Index: 1, Tree: &Tree{Children: []ChildTree{
				{Index: 0, Tree: &Tree{Patches: []Patch{SetText{Old: "b", New: "x"}}}},
			}}},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}

	grow := mustDiff(t, Div(P("a")), Div(P("a"), P("b")))
	if len(grow.Children) != 1 || grow.Children[0].Index != 1 {
		t.Fatalf("grow children = %+v", grow.Children)
	}
	if got := opsOf(grow.Children[0].Tree.Patches); len(got) != 1 || got[0] != OpSetElement {
		t.Errorf("grow = %v, want [SetElement] at 1", got)
	}
}

func TestDiffKeyed(t *testing.T) {
	tests := []struct {
		name    string
		prev    []string
		next    []string
		patches []Patch
	}{
		{
			name: "stable",
			prev: []string{"1", "2"},
			next: []string{"1", "2"},
		},
		{
			name: "swap",
			prev: []string{"1", "2"},
			next: []string{"2", "1"},
			patches: []Patch{
				MoveChild{From: 1, To: 0, Offset: 0},
				MoveChild{From: 0, To: 1, Offset: 0},
			},
		},
		{
			name:    "remove middle",
			prev:    []string{"1", "2", "3"},
			next:    []string{"1", "3"},
			patches: []Patch{MoveChild{From: 2, To: 1}, RemoveChildrenRange{From: 2, Count: 1}},
		},
		{
			name:    "remove tail",
			prev:    []string{"1", "2", "3"},
			next:    []string{"1", "2"},
			patches: []Patch{RemoveChildrenRange{From: 2, Count: 1}},
		},
		{
			name: "insert middle",
			prev: []string{"a", "c"},
			next: []string{"a", "b", "c"},
			patches: []Patch{
				SetChild{Index: 1, Node: Li(Key("b"), "b")},
				MoveChild{From: 1, To: 2},
			},
		},
		{
			name: "remove front shifts later moves",
			prev: []string{"a", "b", "c", "d"},
			next: []string{"b", "d", "c"},
			patches: []Patch{
				MoveChild{From: 1, To: 0, Offset: 0},
				MoveChild{From: 3, To: 1, Offset: 1},
				MoveChild{From: 2, To: 2, Offset: 1},
				RemoveChildrenRange{From: 3, Count: 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustDiff(t, keyedList(tt.prev...), keyedList(tt.next...))
			if diff := cmp.Diff(tt.patches, tree.Patches); diff != "" {
				t.Errorf("patches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffKeyedSubtrees(t *testing.T) {
	prev := Ul(Li(Key("a"), Class("x"), "A"), Li(Key("b"), "B"))
	next := Ul(Li(Key("b"), "B2"), Li(Key("a"), Class("y"), "A"))
	tree := mustDiff(t, prev, next)

	if len(tree.Children) != 2 {
		t.Fatalf("children = %d, want 2:\n%s", len(tree.Children), tree)
	}
	if tree.Children[0].Index != 0 || tree.Children[1].Index != 1 {
		t.Errorf("child indices = %d, %d", tree.Children[0].Index, tree.Children[1].Index)
	}
	// Sub-trees are keyed by the new index.
	if got := tree.Children[1].Tree.Patches; len(got) != 1 || got[0].Op() != OpSetAttribute {
		t.Errorf("sub-tree at 1 = %v, want class change", got)
	}
}

func TestDiffMalformedKeyList(t *testing.T) {
	tests := []struct {
		name   string
		next   *VNode
		index  int
		reason string
	}{
		{"later child missing key", Ul(Li(Key("a")), Li()), 1, "missing key"},
		{"later child keyed", Ul(Li(), Li(Key("b"))), 1, "unexpected key"},
		{"duplicate", Ul(Li(Key("a")), Li(Key("b")), Li(Key("a"))), 2, "duplicate key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Diff(Div(Ul()), Div(tt.next))
			if !stderrors.Is(err, ErrMalformedKeyList) {
				t.Fatalf("Diff() error = %v, want ErrMalformedKeyList", err)
			}
			var kerr *KeyListError
			if !stderrors.As(err, &kerr) {
				t.Fatalf("error %v does not wrap *KeyListError", err)
			}
			if kerr.Index != tt.index || kerr.Reason != tt.reason {
				t.Errorf("KeyListError = %+v, want index %d reason %q", kerr, tt.index, tt.reason)
			}
			var verr *errors.Error
			if stderrors.As(err, &verr) && verr.Path.String() != "/0" {
				t.Errorf("error path = %s, want /0", verr.Path)
			}
		})
	}
}

func TestDiffUnsupportedTransition(t *testing.T) {
	tests := []struct {
		name       string
		prev, next *VNode
	}{
		{"fragment replaced", Fragment(Span()), Div()},
		{"fragment replacing", Div(), Fragment(Span())},
		{"element without tag", Div(), &VNode{Kind: KindElement}},
		{"unknown kind", &VNode{Kind: VKind(42)}, Div()},
		{"nil child", Div(), &VNode{Kind: KindElement, Tag: "div", Children: []*VNode{nil}}},
		{"fragment child", Div(Span()), Div(Fragment(Span()))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Diff(tt.prev, tt.next)
			if !stderrors.Is(err, ErrUnsupportedTransition) {
				t.Errorf("Diff() error = %v, want ErrUnsupportedTransition", err)
			}
		})
	}
}

func TestTreeString(t *testing.T) {
	tree := mustDiff(t,
		Div(Class("a"), P("x")),
		Div(Class("b"), P("y")),
	)
	want := strings.Join([]string{
		`SetAttribute class "a" -> "b"`,
		`[0]`,
		`  [0]`,
		`    SetText "x" -> "y"`,
		``,
	}, "\n")
	if got := tree.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
	if got := (&Tree{}).String(); got != "(no changes)\n" {
		t.Errorf("empty String() = %q", got)
	}
	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tree.Len())
	}
	if c := tree.Count(); c[OpSetAttribute] != 1 || c[OpSetText] != 1 {
		t.Errorf("Count() = %v", c)
	}
}
