// Package utils contains small helpers shared across packages.
package utils

import "math"

// AbsInt returns the absolute value of the given int.
func AbsInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ClampInt restricts n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// RoundInt rounds half away from zero.
func RoundInt(x float64) int {
	return int(math.Round(x))
}
