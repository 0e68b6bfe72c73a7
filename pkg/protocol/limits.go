package protocol

// Default decoding limits.
const (
	// DefaultMaxDepth bounds the nesting of snapshots and patch trees.
	DefaultMaxDepth = 256

	// DefaultMaxAllocation is the default maximum size of one string or
	// byte slice (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// HardMaxAllocation caps allocations whatever the configuration (16MB).
	HardMaxAllocation = 16 * 1024 * 1024

	// DefaultMaxCollection is the default maximum element count of one
	// collection (children, attributes, patches).
	DefaultMaxCollection = 100_000
)

// Limits bounds what a Decoder accepts from untrusted input.
type Limits struct {
	// MaxDepth is the maximum nesting of snapshots and patch trees.
	MaxDepth int

	// MaxAllocation is the maximum length of one string or byte slice.
	MaxAllocation int

	// MaxCollection is the maximum element count of one collection.
	MaxCollection int
}

// DefaultLimits returns the default decoding limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:      DefaultMaxDepth,
		MaxAllocation: DefaultMaxAllocation,
		MaxCollection: DefaultMaxCollection,
	}
}

// normalize fills zero fields with defaults and applies the hard ceiling.
func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxAllocation <= 0 {
		l.MaxAllocation = def.MaxAllocation
	}
	if l.MaxAllocation > HardMaxAllocation {
		l.MaxAllocation = HardMaxAllocation
	}
	if l.MaxCollection <= 0 {
		l.MaxCollection = def.MaxCollection
	}
	return l
}

// depthContext tracks the nesting of a recursive decode.
type depthContext struct {
	current int
	max     int
}

func (dc *depthContext) enter() error {
	if dc.current >= dc.max {
		return ErrLimitExceeded
	}
	dc.current++
	return nil
}

func (dc *depthContext) leave() {
	dc.current--
}
