package math

import "github.com/chewxy/math32"

// WrapAngle maps any angle in radians into [0, 2π).
func WrapAngle(a float32) float32 {
	a = math32.Mod(a, K_PI_2)
	if a < 0 {
		a += K_PI_2
	}
	// Mod of a tiny negative can round up to exactly 2π.
	if a >= K_PI_2 {
		a = 0
	}
	return a
}

// CircularDistance is the unsigned angle between a and b going the short way
// around, in [0, π].
func CircularDistance(a, b float32) float32 {
	d := math32.Abs(WrapAngle(a) - WrapAngle(b))
	return math32.Min(d, K_PI_2-d)
}

// ShortestAngleDelta returns the signed rotation that takes from onto to,
// wrapped to [-π, π].
func ShortestAngleDelta(from, to float32) float32 {
	d := WrapAngle(to - from)
	if d > K_PI {
		d -= K_PI_2
	}
	return d
}
