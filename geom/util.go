package geom

import "math"

const (
	// Tolerance for comparing coordinates that went through the same
	// arithmetic, e.g. "did these two computed endpoints collapse".
	Tolerance = 1e-6

	// Epsilon is the slack used by tests and by the parametric checks in the
	// bounded intersection.
	Epsilon = 1e-8

	// Sine of the smallest angle two directions may enclose before we call
	// them parallel.
	ParallelEpsilon = 1e-9
)

// Whether two coordinates are the same up to Tolerance.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

// Index into the nodes of a closed path of length n, wrapping both ways.
// CircularIndex(-1, n) is the last node.
func CircularIndex(i, n int) int {
	return (i%n + n) % n
}

// Normalize an angle in degrees to [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
