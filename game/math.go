package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// UpVector returns the world-space up axis of a body with the given orientation, using the
// aerospace convention of the simulation (pitch about Y, yaw about Z, roll about X).
func UpVector(r Rotator) mgl32.Vec3 {
	cp, sp := math32.Cos(r.Pitch), math32.Sin(r.Pitch)
	cy, sy := math32.Cos(r.Yaw), math32.Sin(r.Yaw)
	cr, sr := math32.Cos(r.Roll), math32.Sin(r.Roll)

	return mgl32.Vec3{
		-cr*cy*sp - sr*sy,
		-cr*sy*sp + sr*cy,
		cp * cr,
	}
}

// StickyImpulse returns the velocity change that pulls a body with the given orientation towards its
// own floor with the force passed over dt seconds. The result is added to the body's velocity.
func StickyImpulse(r Rotator, force, dt float32) mgl32.Vec3 {
	return UpVector(r).Mul(-force * dt)
}

// Round32 will round a float32 to a given precision.
func Round32(val float32, precision int) float32 {
	pwr := math32.Pow(10, float32(precision))
	return math32.Round(val*pwr) / pwr
}

// Float32ApproxEq determines whether two floating point numbers are close enough to each other
// by a threshold of 1e-5.
func Float32ApproxEq(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-5
}

// Vec3ApproxEq is Float32ApproxEq applied to every component of two vectors.
func Vec3ApproxEq(a, b mgl32.Vec3) bool {
	return Float32ApproxEq(a[0], b[0]) && Float32ApproxEq(a[1], b[1]) && Float32ApproxEq(a[2], b[2])
}

// Finite returns false if any component of the vector is NaN or infinite.
func Finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
