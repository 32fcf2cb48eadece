package agent

import (
	"fmt"

	"github.com/swz-git/zero-g-script/game"
)

// DeltaTimePolicy decides how the time between two snapshots is measured for the stickiness pass.
type DeltaTimePolicy uint8

const (
	// DeltaDerived measures the time between consecutive snapshot timestamps, falling back to the
	// nominal tick period when there is no usable previous timestamp.
	DeltaDerived DeltaTimePolicy = iota
	// DeltaFixed assumes every snapshot is exactly one nominal tick period apart.
	DeltaFixed
)

func (p DeltaTimePolicy) String() string {
	switch p {
	case DeltaDerived:
		return "derived"
	case DeltaFixed:
		return "fixed"
	}
	return fmt.Sprintf("delta_time_policy(%d)", uint8(p))
}

// ParseDeltaTimePolicy parses the name of a policy as returned by String.
func ParseDeltaTimePolicy(name string) (DeltaTimePolicy, error) {
	switch name {
	case "derived", "":
		return DeltaDerived, nil
	case "fixed":
		return DeltaFixed, nil
	}
	return 0, fmt.Errorf("unknown delta time policy %q", name)
}

// TimeEpsilon is the tolerance, in seconds, applied when comparing differences of snapshot
// timestamps against the repeat interval and duration.
const TimeEpsilon = float32(1e-4)

// Options define which corrections the agent makes and how often it repeats them.
type Options struct {
	// Gravity enables resending the world gravity overwrite after every kickoff.
	Gravity       bool
	TargetGravity float32
	// RepeatInterval is the minimum time between two gravity overwrites.
	RepeatInterval float32
	// RepeatDuration is how long after a kickoff gravity overwrites keep being sent.
	RepeatDuration float32
	// Console directives are sent along with every gravity overwrite.
	Console []string

	// Sticky enables pulling grounded bodies towards their floor every tick.
	Sticky      bool
	StickyForce float32

	// LiftVelocity is added once to the vertical velocity of every body and entity at kickoff.
	// Zero disables the lift.
	LiftVelocity float32

	DeltaTime DeltaTimePolicy
	// TickRate is the nominal snapshot rate in Hz.
	TickRate float32
	// MaxDeltaTime caps the derived delta time. Zero or less disables the cap.
	MaxDeltaTime float32
}

// DefaultOptions returns the options of the classic zero-g script, except for the delta time
// policy which measures the actual time between snapshots.
func DefaultOptions() Options {
	return Options{
		Gravity:        true,
		TargetGravity:  game.DefaultTargetGravity,
		RepeatInterval: game.DefaultRepeatInterval,
		RepeatDuration: game.DefaultRepeatDuration,

		Sticky:      true,
		StickyForce: game.DefaultStickyForce,

		DeltaTime:    DeltaDerived,
		TickRate:     game.DefaultTickRate,
		MaxDeltaTime: game.DefaultMaxDeltaTime,
	}
}

// nominalDelta returns the length of one nominal tick in seconds.
func (o Options) nominalDelta() float32 {
	if o.TickRate <= 0 {
		return 1 / game.DefaultTickRate
	}
	return 1 / o.TickRate
}
