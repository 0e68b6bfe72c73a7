package patch

import "sort"

// Offsets tracks old child positions already extracted by moves during one
// child-reconciliation pass. The live child list shrinks by one for each
// extraction, so an old index j is found at j - Get(j) while the pass runs.
//
// The zero value is ready to use.
type Offsets struct {
	extracted []int // sorted, unique
}

// Extract records old index i as moved out.
func (o *Offsets) Extract(i int) {
	pos := sort.SearchInts(o.extracted, i)
	if pos < len(o.extracted) && o.extracted[pos] == i {
		return
	}
	o.extracted = append(o.extracted, 0)
	copy(o.extracted[pos+1:], o.extracted[pos:])
	o.extracted[pos] = i
}

// Get returns the number of extracted indices strictly less than i.
func (o *Offsets) Get(i int) int {
	return sort.SearchInts(o.extracted, i)
}

// Extracted reports whether old index i has been extracted.
func (o *Offsets) Extracted(i int) bool {
	pos := sort.SearchInts(o.extracted, i)
	return pos < len(o.extracted) && o.extracted[pos] == i
}

// Len returns the number of extracted indices.
func (o *Offsets) Len() int {
	return len(o.extracted)
}

// Reset forgets all extractions.
func (o *Offsets) Reset() {
	o.extracted = o.extracted[:0]
}
