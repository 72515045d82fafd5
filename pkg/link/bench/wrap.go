package bench

import "golang.org/x/exp/constraints"

// Elapsed returns to - from on a free running counter of width T,
// correct across a single wrap of the counter.
func Elapsed[T constraints.Unsigned](from, to T) T {
	return to - from
}

// Micros truncates a microsecond timestamp to the wire width.
func Micros[T constraints.Integer](t T) uint32 {
	return uint32(t)
}
