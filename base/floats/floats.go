package floats

import (
	"math"
	"slices"
)

// Float is the set of scalar types supported by this package and by the
// rolling median engine.
type Float interface {
	float32 | float64
}

func IsNaN[T Float](x T) bool {
	return x != x
}

func abs[T Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// halvingLimits returns the magnitude below which halving may lose precision
// (twice the smallest normal) and the magnitude above which x+y may overflow.
func halvingLimits[T Float]() (lo, hi T) {
	var x T
	switch any(x).(type) {
	case float32:
		var l, h float32 = 0x1p-125, math.MaxFloat32 / 2
		return T(l), T(h)
	default:
		var l, h float64 = 0x1p-1021, math.MaxFloat64 / 2
		return T(l), T(h)
	}
}

// Midpoint returns the arithmetic mean of x and y without intermediate
// overflow. Infinities of opposite sign yield 0, infinities of the same sign
// yield that infinity.
func Midpoint[T Float](x, y T) T {
	if IsNaN(x) || IsNaN(y) {
		panic("unexpected NaN value")
	}
	lo, hi := halvingLimits[T]()
	ax, ay := abs(x), abs(y)
	var m T
	switch {
	case ax <= hi && ay <= hi:
		m = (x + y) / 2
	case ax < lo:
		m = x + y/2
	case ay < lo:
		m = x/2 + y
	default:
		m = x/2 + y/2
	}
	if IsNaN(m) {
		// inf - inf
		return 0
	}
	return m
}

// Median sorts fs in place and returns its median.
func Median[T Float](fs []T) T {
	n := len(fs)
	if n == 0 {
		panic("unexpected number of values")
	}
	slices.SortFunc(fs, Compare[T])
	i := n / 2
	if n%2 != 0 {
		return fs[i]
	}
	return Midpoint(fs[i-1], fs[i])
}
