package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func RoundToInt(f float32) int {
	return int(stdmath.Round(float64(f)))
}

// NearlyEqual reports whether a and b differ by at most epsilon.
func NearlyEqual[T constraints.Float](a, b, epsilon T) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= epsilon
}
