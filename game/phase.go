package game

import (
	"fmt"
)

// Phase is the phase of the match a snapshot was taken in.
type Phase uint8

const (
	PhaseInactive Phase = iota
	PhaseCountdown
	PhaseKickoff
	PhaseActive
	PhaseGoalScored
	PhaseReplay
	PhasePaused
	PhaseEnded
)

var phaseNames = [...]string{
	PhaseInactive:   "inactive",
	PhaseCountdown:  "countdown",
	PhaseKickoff:    "kickoff",
	PhaseActive:     "active",
	PhaseGoalScored: "goal_scored",
	PhaseReplay:     "replay",
	PhasePaused:     "paused",
	PhaseEnded:      "ended",
}

// String ...
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Valid returns true if the phase is one of the known match phases.
func (p Phase) Valid() bool {
	return int(p) < len(phaseNames)
}

// MarshalText encodes the phase by name so that both wire codecs carry it readably.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown match phase %d", uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText decodes a phase name. Unknown names are rejected.
func (p *Phase) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range phaseNames {
		if n == name {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match phase %q", name)
}

// AirState is the contact state of a body with the surfaces around it.
type AirState uint8

const (
	AirStateOnGround AirState = iota
	AirStateJumping
	AirStateDoubleJumping
	AirStateDodging
	AirStateInAir
)

var airStateNames = [...]string{
	AirStateOnGround:      "on_ground",
	AirStateJumping:       "jumping",
	AirStateDoubleJumping: "double_jumping",
	AirStateDodging:       "dodging",
	AirStateInAir:         "in_air",
}

func (a AirState) String() string {
	if int(a) < len(airStateNames) {
		return airStateNames[a]
	}
	return fmt.Sprintf("air_state(%d)", uint8(a))
}

func (a AirState) MarshalText() ([]byte, error) {
	if int(a) >= len(airStateNames) {
		return nil, fmt.Errorf("unknown air state %d", uint8(a))
	}
	return []byte(airStateNames[a]), nil
}

func (a *AirState) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range airStateNames {
		if n == name {
			*a = AirState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown air state %q", name)
}
