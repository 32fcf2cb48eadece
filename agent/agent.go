package agent

import (
	"io"
	"slices"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/sirupsen/logrus"
	"github.com/swz-git/zero-g-script/game"
	"github.com/swz-git/zero-g-script/mutation"
	"github.com/swz-git/zero-g-script/utils"
)

// State is everything the agent remembers from one tick to the next.
type State struct {
	PrevPhase game.Phase
	// PrevElapsed is the timestamp of the previous snapshot. It is only meaningful if HasPrev is true.
	PrevElapsed float32
	HasPrev     bool

	// LastTriggerTime is the timestamp of the most recent kickoff. It is only meaningful if
	// Triggered is true.
	LastTriggerTime float32
	Triggered       bool
	// LastApplicationTime is the timestamp of the most recent gravity overwrite.
	LastApplicationTime float32
}

// NewState returns the state of an agent that has not seen a snapshot yet.
func NewState() State {
	return State{PrevPhase: game.PhaseInactive}
}

// Agent corrects the simulation one snapshot at a time. An Agent is not safe for concurrent use: it
// must be ticked from a single goroutine, in the order snapshots were produced.
type Agent struct {
	log   logrus.FieldLogger
	opts  Options
	state State
	h     Handler
}

// New returns an agent with a fresh state.
func New(log logrus.FieldLogger, opts Options) *Agent {
	return NewWithState(log, opts, NewState())
}

// NewWithState returns an agent that continues from the state passed.
func NewWithState(log logrus.FieldLogger, opts Options, state State) *Agent {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	if opts.TickRate <= 0 {
		opts.TickRate = game.DefaultTickRate
	}
	return &Agent{log: log, opts: opts, state: state, h: NopHandler{}}
}

// Handle sets the handler notified of triggers and emitted commands. Passing nil restores the
// default NopHandler.
func (a *Agent) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	a.h = h
}

// State returns a copy of the agent's current state.
func (a *Agent) State() State {
	return a.state
}

// Options ...
func (a *Agent) Options() Options {
	return a.opts
}

// Tick processes a single snapshot and returns the commands that should be sent to the simulation,
// in the order they should be sent. Tick never fails: a snapshot it cannot use produces no commands
// and leaves the state untouched.
func (a *Agent) Tick(s *game.Snapshot) []mutation.Command {
	if !s.Valid() {
		a.log.Debug("skipping snapshot without a usable timestamp or phase")
		return nil
	}

	var cmds []mutation.Command
	dt, ok := a.deltaTime(s.Elapsed)
	if a.opts.Sticky && ok {
		if cmd, ok := a.stick(s, dt); ok {
			cmds = append(cmds, a.emit(KindSticky, cmd))
		}
	}

	if s.Phase == game.PhaseKickoff && a.state.PrevPhase == game.PhaseCountdown {
		a.trigger(s)
		if cmd, ok := a.lift(s); ok {
			cmds = append(cmds, a.emit(KindLift, cmd))
		}
	}
	a.state.PrevPhase = s.Phase

	if !a.opts.Gravity || !a.windowOpen(s.Elapsed) {
		return cmds
	}
	if s.Elapsed-a.state.LastApplicationTime >= a.opts.RepeatInterval-TimeEpsilon {
		a.state.LastApplicationTime = s.Elapsed
		cmds = append(cmds, a.emit(KindGravity, mutation.Command{
			Match:   &mutation.MatchInfo{WorldGravityZ: mutation.Float(a.opts.TargetGravity)},
			Console: slices.Clone(a.opts.Console),
		}))
	}
	return cmds
}

// deltaTime records the snapshot's timestamp and returns the time the stickiness pass should cover.
// ok is false if no time has passed since the previous snapshot.
func (a *Agent) deltaTime(elapsed float32) (dt float32, ok bool) {
	prev, hadPrev := a.state.PrevElapsed, a.state.HasPrev
	a.state.PrevElapsed, a.state.HasPrev = elapsed, true

	if hadPrev && elapsed < prev {
		a.rewind(prev, elapsed)
	}

	nominal := a.opts.nominalDelta()
	if a.opts.DeltaTime == DeltaFixed {
		return nominal, true
	}
	switch dt = elapsed - prev; {
	case !hadPrev || dt < 0:
		return nominal, true
	case dt == 0:
		return 0, false
	case a.opts.MaxDeltaTime > 0 && dt > a.opts.MaxDeltaTime:
		return a.opts.MaxDeltaTime, true
	}
	return dt, true
}

// rewind abandons the current repeat window after the snapshot clock went backwards, which happens
// when the host starts a new match or delivers snapshots out of order. The timers are reset to the
// values of a fresh agent so that the next kickoff is handled as usual.
func (a *Agent) rewind(from, to float32) {
	a.log.Warnf("snapshot clock went backwards from %.3fs to %.3fs, resetting repeat timers", from, to)
	a.state.Triggered = false
	a.state.LastTriggerTime = 0
	a.state.LastApplicationTime = 0
}

// windowOpen returns true while gravity overwrites should still be repeated for the last kickoff.
func (a *Agent) windowOpen(elapsed float32) bool {
	return a.state.Triggered && elapsed-a.state.LastTriggerTime < a.opts.RepeatDuration-TimeEpsilon
}

// stick stages a velocity overwrite for every body that is on the ground, or for every body during
// the countdown, where all cars are frozen on the ground regardless of what they report.
func (a *Agent) stick(s *game.Snapshot, dt float32) (mutation.Command, bool) {
	countdown := s.Phase == game.PhaseCountdown
	cars := make([]mutation.CarState, len(s.Bodies))

	var modified bool
	for i, body := range s.Bodies {
		if body.Physics == nil || !(countdown || body.OnGround()) {
			continue
		}
		vel := body.Physics.Velocity.Add(game.StickyImpulse(body.Physics.Rotation, a.opts.StickyForce, dt))
		if !game.Finite(vel) {
			continue
		}
		cars[i].Physics = &mutation.Physics{Velocity: mutation.Vec3(vel)}
		modified = true
	}
	return mutation.Command{Cars: cars}, modified
}

// trigger starts a new repeat window at the snapshot's timestamp.
func (a *Agent) trigger(s *game.Snapshot) {
	a.state.LastTriggerTime = s.Elapsed
	a.state.Triggered = true

	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("elapsed", game.Round32(s.Elapsed, 3))
	data.Set("gravity", a.opts.TargetGravity)
	data.Set("interval", a.opts.RepeatInterval)
	data.Set("duration", a.opts.RepeatDuration)
	data.Set("bodies", len(s.Bodies))
	a.log.Infof("kickoff detected, applying zero-g %s", utils.OrderedMapToString(data))

	a.h.HandleTrigger(s.Elapsed)
}

// lift adds the configured lift velocity to the vertical velocity of every body and entity. Only the
// Z component is overwritten.
func (a *Agent) lift(s *game.Snapshot) (mutation.Command, bool) {
	if a.opts.LiftVelocity == 0 {
		return mutation.Command{}, false
	}

	lifted := func(p *game.Physics) *mutation.Physics {
		if p == nil {
			return nil
		}
		return &mutation.Physics{Velocity: &mutation.Vector3Partial{Z: mutation.Float(p.Velocity.Z() + a.opts.LiftVelocity)}}
	}

	cmd := mutation.Command{
		Cars:  make([]mutation.CarState, len(s.Bodies)),
		Balls: make([]mutation.BallState, len(s.Entities)),
	}
	for i, body := range s.Bodies {
		cmd.Cars[i].Physics = lifted(body.Physics)
	}
	for i, entity := range s.Entities {
		cmd.Balls[i].Physics = lifted(entity.Physics)
	}
	return cmd, !cmd.Empty()
}

func (a *Agent) emit(kind Kind, cmd mutation.Command) mutation.Command {
	a.h.HandleEmit(kind, cmd)
	return cmd
}
