package session

import "sync"

// historyEntry stores a sent frame for potential replay.
type historyEntry struct {
	seq   uint64
	frame []byte
}

// History is a thread-safe ring buffer of encoded frames by sequence number.
// It overwrites the oldest entry when full, keeping a sliding window of
// recent frames that can be replayed to a peer that missed some.
type History struct {
	mu       sync.RWMutex
	entries  []historyEntry
	head     int // Next write position
	count    int
	capacity int
}

// NewHistory creates a history holding up to capacity frames.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		entries:  make([]historyEntry, capacity),
		capacity: capacity,
	}
}

// Add stores frame under seq. Sequences must be added in increasing order.
// The frame bytes are copied.
func (h *History) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = historyEntry{seq: seq, frame: append([]byte(nil), frame...)}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// oldest returns the index of the oldest entry. Callers hold mu.
func (h *History) oldest() int {
	return (h.head - h.count + h.capacity) % h.capacity
}

// Since returns the frames with sequences greater than after, in order.
// It reports false when some of those frames were already overwritten or
// the history is empty.
func (h *History) Since(after uint64) ([][]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return nil, false
	}
	first := h.entries[h.oldest()].seq
	if after+1 < first {
		return nil, false
	}

	var frames [][]byte
	for i := 0; i < h.count; i++ {
		e := h.entries[(h.oldest()+i)%h.capacity]
		if e.seq > after {
			frames = append(frames, e.frame)
		}
	}
	return frames, true
}

// Len returns the number of stored frames.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		h.entries[i] = historyEntry{}
	}
	h.head = 0
	h.count = 0
}
