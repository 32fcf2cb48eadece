package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Snapshot is the observable state of the simulation at one instant. A snapshot is only valid for
// the tick it was delivered in and must not be retained.
type Snapshot struct {
	// Elapsed is the simulation time in seconds. It is monotonic within a match.
	Elapsed float32 `json:"elapsed"`
	Phase   Phase   `json:"phase"`

	Bodies   []Body   `json:"bodies,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
}

// Valid returns false if the snapshot cannot be used to derive any timing information.
func (s *Snapshot) Valid() bool {
	return s != nil && !math32.IsNaN(s.Elapsed) && !math32.IsInf(s.Elapsed, 0) && s.Phase.Valid()
}

// Body is a controllable physical object, such as a car. Bodies are identified by their index in
// Snapshot.Bodies, which is stable within a match.
type Body struct {
	// Physics is nil when the host did not report the body's physics this tick.
	Physics  *Physics `json:"physics,omitempty"`
	AirState AirState `json:"air_state"`
}

// OnGround returns true if the body reports contact with a surface.
func (b Body) OnGround() bool {
	return b.AirState == AirStateOnGround
}

// Entity is a free body that is not controlled by anyone, such as a ball.
type Entity struct {
	Physics *Physics `json:"physics,omitempty"`
}

// Physics holds the kinematic state of a body or entity.
type Physics struct {
	Location        mgl32.Vec3 `json:"location"`
	Velocity        mgl32.Vec3 `json:"velocity"`
	AngularVelocity mgl32.Vec3 `json:"angular_velocity"`
	Rotation        Rotator    `json:"rotation"`
}

// Rotator is an orientation in Euler angles, in radians.
type Rotator struct {
	Pitch float32 `json:"pitch"`
	Yaw   float32 `json:"yaw"`
	Roll  float32 `json:"roll"`
}
