// Package dice provides the randomness abstraction used by spawners and
// abilities that place entities at random positions.
package dice

// Source is the randomness provider for the simulation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Uniform draws a float uniformly from the half-open interval [lo, hi).
//
// Precondition: lo <= hi; src must be non-nil.
// Postcondition: Returns lo when lo == hi; otherwise lo <= result < hi.
func Uniform(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + src.Float64()*(hi-lo)
	if v >= hi {
		// Guard against rounding up to the open bound.
		return lo
	}
	return v
}

// Pick returns a uniformly chosen element of items.
//
// Precondition: len(items) > 0; src must be non-nil.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}
