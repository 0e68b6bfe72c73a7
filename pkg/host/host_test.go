package host

import "testing"

func TestFlatten(t *testing.T) {
	a, b := new(int), new(int)
	tests := []struct {
		name string
		in   Node
		want int
	}{
		{"nil", nil, 0},
		{"single", a, 1},
		{"batch", Batch{Nodes: []Node{a, b}}, 2},
		{"batch pointer", &Batch{Nodes: []Node{a}}, 1},
		{"nil batch pointer", (*Batch)(nil), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Flatten(tt.in)); got != tt.want {
				t.Errorf("len(Flatten()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsBatch(t *testing.T) {
	if IsBatch(new(int)) {
		t.Error("plain node is not a batch")
	}
	if !IsBatch(Batch{}) || !IsBatch(&Batch{}) {
		t.Error("Batch values are batches")
	}
	if IsBatch((*Batch)(nil)) {
		t.Error("nil *Batch is not a batch")
	}
}
