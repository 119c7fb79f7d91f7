package math

import (
	"github.com/chewxy/math32"
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

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// InverseLerp returns where v sits between a and b, clamped to [0, 1].
// A zero-width range yields 0.
func InverseLerp(a, b, v float32) float32 {
	if b == a {
		return 0
	}
	return Clamp((v-a)/(b-a), 0, 1)
}

// DampFactor is the fraction of the remaining distance covered in dt seconds
// by exponential smoothing with rate lambda: 1 - e^(-lambda*dt).
// A non-finite or non-positive dt never moves; lambda <= 0 snaps.
func DampFactor(lambda, dt float32) float32 {
	if dt <= 0 || !IsFinite(dt) || !IsFinite(lambda) {
		return 0
	}
	if lambda <= 0 {
		return 1
	}
	return 1 - math32.Exp(-lambda*dt)
}

// Damp moves current toward target, frame-rate independently.
func Damp(current, target, lambda, dt float32) float32 {
	return current + (target-current)*DampFactor(lambda, dt)
}

// DampVec3 is Damp applied per component.
func DampVec3(current, target Vec3, lambda, dt float32) Vec3 {
	return current.Lerp(target, DampFactor(lambda, dt))
}

// Smoothstep is the cubic Hermite ease 3t^2 - 2t^3 on a clamped t.
func Smoothstep(t float32) float32 {
	t = Clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
