package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/assert"
	"github.com/swz-git/zero-g-script/game"
	"github.com/swz-git/zero-g-script/mutation"
	"github.com/swz-git/zero-g-script/oerror"
	"github.com/swz-git/zero-g-script/recording"
	"github.com/swz-git/zero-g-script/transport"
	"github.com/swz-git/zero-g-script/utils"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// Conn is the connection a session receives snapshots from and sends commands to. *transport.Conn
// implements it.
type Conn interface {
	// ReadSnapshot blocks until the next snapshot arrives. It returns an error wrapping
	// transport.ErrMalformed for frames that could not be decoded, and transport.ErrClosed once the
	// connection is closed.
	ReadSnapshot() (*game.Snapshot, error)
	WriteCommands(cmds []mutation.Command) error
	// Close must unblock a pending ReadSnapshot.
	Close() error
}

// Recorder records the events of a session. *recording.Recorder implements it.
type Recorder interface {
	Record(ev recording.Event) error
}

// Config holds the optional parts of a session.
type Config struct {
	// ID identifies the session in logs, error reports and recordings. A random UUID is used if it is
	// empty.
	ID      string
	AgentID string
	// Recorder, if not nil, receives every snapshot and the commands sent in response to it.
	Recorder Recorder
	// StatsInterval is the amount of ticks between two tick statistics log lines. Zero disables them.
	StatsInterval int
	// StatsWindow is the amount of ticks the statistics are computed over. Zero means 120.
	StatsWindow int
}

// Stats are counters of what happened during a session.
type Stats struct {
	// Ticks is the amount of snapshots passed to the agent.
	Ticks uint64
	// Malformed is the amount of frames that could not be decoded.
	Malformed uint64
	// Panics is the amount of ticks that were dropped because the agent panicked.
	Panics    uint64
	Triggers  uint64
	Commands  uint64
	Overrides uint64
}

// Session runs an agent against a connection until either is done.
type Session struct {
	id  string
	log logrus.FieldLogger

	agent *agent.Agent
	conn  Conn
	cfg   Config

	deltas      *utils.Ring[float32]
	prevElapsed float32
	hasPrev     bool

	ticks, malformed, panics      atomic.Uint64
	triggers, commands, overrides atomic.Uint64
	closed                        atomic.Bool
}

// New returns a session ticking a against the connection passed. The session becomes the handler of
// the agent.
func New(log logrus.FieldLogger, a *agent.Agent, conn Conn, cfg Config) *Session {
	assert.IsTrue(a != nil, "session without agent")
	assert.IsTrue(conn != nil, "session without connection")
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 120
	}
	s := &Session{
		id:     cfg.ID,
		log:    log.WithField("session", cfg.ID),
		agent:  a,
		conn:   conn,
		cfg:    cfg,
		deltas: utils.NewRing[float32](cfg.StatsWindow),
	}
	a.Handle(s)
	return s
}

// ID returns the ID of the session.
func (s *Session) ID() string {
	return s.id
}

// Stats returns the counters of the session so far. It is safe to call from any goroutine.
func (s *Session) Stats() Stats {
	return Stats{
		Ticks:     s.ticks.Load(),
		Malformed: s.malformed.Load(),
		Panics:    s.panics.Load(),
		Triggers:  s.triggers.Load(),
		Commands:  s.commands.Load(),
		Overrides: s.overrides.Load(),
	}
}

// Run ticks the agent with every snapshot read from the connection until the connection is closed
// or ctx is cancelled, both of which return nil. The connection is always closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return s.close()
	})
	g.Go(func() error {
		defer cancel()
		return s.loop()
	})
	return g.Wait()
}

func (s *Session) close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, transport.ErrClosed) {
		s.log.Debugf("error closing connection: %v", err)
	}
	return nil
}

func (s *Session) loop() error {
	for {
		snapshot, err := s.conn.ReadSnapshot()
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrMalformed):
			s.malformed.Inc()
			s.log.Warnf("skipping tick: %v", err)
			continue
		case errors.Is(err, transport.ErrClosed) || s.closed.Load():
			return nil
		default:
			return fmt.Errorf("read snapshot: %w", err)
		}

		if err := s.tick(snapshot); err != nil {
			if errors.Is(err, transport.ErrClosed) || s.closed.Load() {
				return nil
			}
			return err
		}
	}
}

// tick handles a single snapshot. Only errors writing to the connection are returned.
func (s *Session) tick(snapshot *game.Snapshot) error {
	ev := recording.SnapshotEvent{Snapshot: snapshot}
	ev.EvTime = time.Now().UnixNano()
	s.record(ev)

	cmds, ok := s.safeTick(snapshot)
	if !ok {
		return nil
	}
	s.ticks.Inc()
	s.updateStats(snapshot.Elapsed)

	if len(cmds) > 0 {
		if err := s.conn.WriteCommands(cmds); err != nil {
			return fmt.Errorf("write commands: %w", err)
		}
		s.commands.Add(uint64(len(cmds)))
	}
	cmdsEv := recording.CommandsEvent{Elapsed: snapshot.Elapsed, Commands: cmds}
	cmdsEv.EvTime = time.Now().UnixNano()
	s.record(cmdsEv)
	return nil
}

// safeTick ticks the agent, recovering from a panic so that a single bad tick does not end the
// session. The panic is reported to sentry.
func (s *Session) safeTick(snapshot *game.Snapshot) (cmds []mutation.Command, ok bool) {
	defer func() {
		if err := recover(); err != nil {
			s.panics.Inc()
			s.log.Errorf("Tick() panic: %v", err)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("session", s.id)
				scope.SetTag("agent_id", s.cfg.AgentID)
			})

			hub.Recover(oerror.New("%v", err))
			hub.Flush(time.Second * 5)
			cmds, ok = nil, false
		}
	}()
	return s.agent.Tick(snapshot), true
}

func (s *Session) record(ev recording.Event) {
	if s.cfg.Recorder == nil {
		return
	}
	if err := s.cfg.Recorder.Record(ev); err != nil {
		s.log.Errorf("unable to record event: %v", err)
	}
}

func (s *Session) updateStats(elapsed float32) {
	if s.hasPrev && elapsed > s.prevElapsed {
		s.deltas.Push(elapsed - s.prevElapsed)
	}
	s.prevElapsed, s.hasPrev = elapsed, true

	ticks := s.ticks.Load()
	if s.cfg.StatsInterval <= 0 || ticks%uint64(s.cfg.StatsInterval) != 0 {
		return
	}

	mean := game.Mean(s.deltas.Values())
	var rate float32
	if mean > 0 {
		rate = 1 / mean
	}
	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("ticks", ticks)
	data.Set("rate", game.Round32(rate, 1))
	data.Set("jitter", game.Round32(game.StandardDeviation(s.deltas.Values()), 4))
	data.Set("commands", s.commands.Load())
	data.Set("triggers", s.triggers.Load())
	data.Set("malformed", s.malformed.Load())
	s.log.Debugf("tick stats %s", utils.OrderedMapToString(data))
}

// HandleTrigger ...
func (s *Session) HandleTrigger(elapsed float32) {
	s.triggers.Inc()
}

// HandleEmit ...
func (s *Session) HandleEmit(kind agent.Kind, cmd mutation.Command) {
	if kind == agent.KindGravity {
		s.overrides.Inc()
	}
}
