package patch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vpatch/pkg/vdom"
)

func TestDiffAttributes(t *testing.T) {
	tests := []struct {
		name string
		prev vdom.Props
		next vdom.Props
		want []Patch
	}{
		{
			name: "both nil",
		},
		{
			name: "unchanged",
			prev: vdom.Props{"id": "x", "n": 1},
			next: vdom.Props{"id": "x", "n": 1},
		},
		{
			name: "add to nil",
			next: vdom.Props{"b": "2", "a": "1"},
			want: []Patch{AddAttribute{Name: "a", Value: "1"}, AddAttribute{Name: "b", Value: "2"}},
		},
		{
			name: "remove all",
			prev: vdom.Props{"b": "2", "a": "1"},
			want: []Patch{RemoveAttribute{Name: "a", Old: "1"}, RemoveAttribute{Name: "b", Old: "2"}},
		},
		{
			name: "sets and adds before removes",
			prev: vdom.Props{"a": 1, "b": 2},
			next: vdom.Props{"b": 2, "c": 3},
			want: []Patch{AddAttribute{Name: "c", Value: 3}, RemoveAttribute{Name: "a", Old: 1}},
		},
		{
			name: "changed value",
			prev: vdom.Props{"class": "a", "z": true},
			next: vdom.Props{"class": "b", "z": true},
			want: []Patch{SetAttribute{Name: "class", Old: "a", New: "b"}},
		},
		{
			name: "type change is a change",
			prev: vdom.Props{"n": 1},
			next: vdom.Props{"n": "1"},
			want: []Patch{SetAttribute{Name: "n", Old: 1, New: "1"}},
		},
		{
			name: "key is never diffed",
			prev: vdom.Props{"key": "a"},
			next: vdom.Props{"key": "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffAttributes(tt.prev, tt.next)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DiffAttributes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// The pair {a:1,b:2} -> {b:2,c:3} yields exactly a removal of a and an
// addition of c, whatever the order.
func TestDiffAttributesRemoveAndAdd(t *testing.T) {
	got := DiffAttributes(vdom.Props{"a": 1, "b": 2}, vdom.Props{"b": 2, "c": 3})
	if len(got) != 2 {
		t.Fatalf("got %d patches, want 2: %v", len(got), got)
	}
	var removed, added bool
	for _, p := range got {
		switch p := p.(type) {
		case RemoveAttribute:
			removed = p.Name == "a"
		case AddAttribute:
			added = p.Name == "c" && p.Value == 3
		default:
			t.Errorf("unexpected patch %s", p)
		}
	}
	if !removed || !added {
		t.Errorf("patches = %v, want RemoveAttribute(a) and AddAttribute(c,3)", got)
	}
}

func TestDiffAttributesHandlersAlwaysChange(t *testing.T) {
	h := func() {}
	got := DiffAttributes(vdom.Props{"onclick": h}, vdom.Props{"onclick": h})
	if len(got) != 1 || got[0].Op() != OpSetAttribute {
		t.Errorf("DiffAttributes() = %v, want one SetAttribute", got)
	}
}
