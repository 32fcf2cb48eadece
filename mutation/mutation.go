// Package mutation describes the commands sent to the simulation host to overwrite parts of its state.
//
// Every command is a sparse overlay: a nil field means "leave this value alone" and is never read as
// zero. The host applies commands on a best-effort basis and does not acknowledge them.
package mutation

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Command is a single desired-state message.
type Command struct {
	// Cars is indexed like game.Snapshot.Bodies. An empty CarState leaves the car untouched.
	Cars  []CarState  `json:"cars,omitempty"`
	Balls []BallState `json:"balls,omitempty"`
	Match *MatchInfo  `json:"match,omitempty"`
	// Console holds free-form console directives for parameters without a structured field.
	Console []string `json:"console,omitempty"`
}

// Empty returns true if applying the command would not change anything.
func (c Command) Empty() bool {
	for _, car := range c.Cars {
		if !car.Empty() {
			return false
		}
	}
	for _, ball := range c.Balls {
		if !ball.Empty() {
			return false
		}
	}
	return (c.Match == nil || c.Match.Empty()) && len(c.Console) == 0
}

// CarState is the desired state of a single car.
type CarState struct {
	Physics     *Physics `json:"physics,omitempty"`
	BoostAmount *float32 `json:"boost_amount,omitempty"`
}

// Empty ...
func (c CarState) Empty() bool {
	return (c.Physics == nil || c.Physics.Empty()) && c.BoostAmount == nil
}

// BallState is the desired state of a single ball.
type BallState struct {
	Physics *Physics `json:"physics,omitempty"`
}

// Empty ...
func (b BallState) Empty() bool {
	return b.Physics == nil || b.Physics.Empty()
}

// Physics is the desired kinematic state of a car or ball.
type Physics struct {
	Location        *Vector3Partial `json:"location,omitempty"`
	Rotation        *RotatorPartial `json:"rotation,omitempty"`
	Velocity        *Vector3Partial `json:"velocity,omitempty"`
	AngularVelocity *Vector3Partial `json:"angular_velocity,omitempty"`
}

// Empty ...
func (p Physics) Empty() bool {
	return p.Location.Empty() && p.Rotation.Empty() && p.Velocity.Empty() && p.AngularVelocity.Empty()
}

// MatchInfo holds desired global world parameters.
type MatchInfo struct {
	WorldGravityZ *float32 `json:"world_gravity_z,omitempty"`
	GameSpeed     *float32 `json:"game_speed,omitempty"`
}

// Empty ...
func (m MatchInfo) Empty() bool {
	return m.WorldGravityZ == nil && m.GameSpeed == nil
}

// Vector3Partial is a vector where every component is optional.
type Vector3Partial struct {
	X *float32 `json:"x,omitempty"`
	Y *float32 `json:"y,omitempty"`
	Z *float32 `json:"z,omitempty"`
}

// Vec3 returns a partial vector with every component set.
func Vec3(v mgl32.Vec3) *Vector3Partial {
	return &Vector3Partial{X: Float(v.X()), Y: Float(v.Y()), Z: Float(v.Z())}
}

// Empty returns true if the vector is nil or no component is set.
func (v *Vector3Partial) Empty() bool {
	return v == nil || (v.X == nil && v.Y == nil && v.Z == nil)
}

// Apply overlays the set components of the partial vector onto base.
func (v *Vector3Partial) Apply(base mgl32.Vec3) mgl32.Vec3 {
	if v == nil {
		return base
	}
	if v.X != nil {
		base[0] = *v.X
	}
	if v.Y != nil {
		base[1] = *v.Y
	}
	if v.Z != nil {
		base[2] = *v.Z
	}
	return base
}

// RotatorPartial is an orientation where every angle is optional.
type RotatorPartial struct {
	Pitch *float32 `json:"pitch,omitempty"`
	Yaw   *float32 `json:"yaw,omitempty"`
	Roll  *float32 `json:"roll,omitempty"`
}

// Empty ...
func (r *RotatorPartial) Empty() bool {
	return r == nil || (r.Pitch == nil && r.Yaw == nil && r.Roll == nil)
}

// Float returns a pointer to a copy of f.
func Float(f float32) *float32 {
	return &f
}
