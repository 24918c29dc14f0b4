// internal/sliceutil.go
//
//
//   • Pure – no side effects.
//   • Safe – never modify the input slice in-place.
//   • Generic – work with any comparable / ordered type.
// ----------------------------------------------------------------------------

package internal

import "golang.org/x/exp/constraints"

// Map applies f to each element and returns a new slice.
func Map[A any, B any](xs []A, f func(A) B) []B {
	out := make([]B, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
