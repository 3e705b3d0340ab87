package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector helpers

// SafeNormalize returns the unit vector of v, or the zero vector when v has
// zero length or a non-finite component. It never yields NaN.
func SafeNormalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}
	}
	return r3.Unit(v)
}

// isZero reports whether every component of v is exactly zero.
func isZero(v r3.Vec) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// meanOf divides an accumulated sum by max(count, 1).
func meanOf(sum r3.Vec, count int) r3.Vec {
	return r3.Scale(1/float64(max(count, 1)), sum)
}

// Grid helpers

// floorDiv returns floor(v / size) as a cell coordinate, saturated to the
// int32 range. NaN maps to 0.
// Floor (not truncation) keeps negative coordinates on a monotonic lattice.
func floorDiv(v, size float64) int64 {
	f := math.Floor(v / size)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int64(f)
}
