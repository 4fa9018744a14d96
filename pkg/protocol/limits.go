package protocol

// Default decoding limits.
const (
	// DefaultMaxAllocation bounds a single string or payload (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// HardMaxAllocation caps DefaultMaxAllocation overrides (16MB).
	HardMaxAllocation = 16 * 1024 * 1024

	// DefaultMaxCollection bounds the length of any counted sequence:
	// patches, attributes, keys or children.
	DefaultMaxCollection = 100_000

	// DefaultMaxDepth bounds the nesting of a decoded tree. A root is at
	// depth 0.
	DefaultMaxDepth = 256
)

// Limits configures the bounds a Decoder enforces. Zero fields take the
// defaults.
type Limits struct {
	MaxAllocation int
	MaxCollection int
	MaxDepth      int
}

// DefaultLimits returns the default decoding limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAllocation: DefaultMaxAllocation,
		MaxCollection: DefaultMaxCollection,
		MaxDepth:      DefaultMaxDepth,
	}
}

// normalize fills zero fields with defaults and clamps the allocation
// limit to HardMaxAllocation.
func (l Limits) normalize() Limits {
	if l.MaxAllocation <= 0 {
		l.MaxAllocation = DefaultMaxAllocation
	}
	l.MaxAllocation = min(l.MaxAllocation, HardMaxAllocation)
	if l.MaxCollection <= 0 {
		l.MaxCollection = DefaultMaxCollection
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	return l
}
