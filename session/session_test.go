package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/game"
	"github.com/swz-git/zero-g-script/mutation"
	"github.com/swz-git/zero-g-script/recording"
	"github.com/swz-git/zero-g-script/transport"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeConn serves the snapshots and errors sent on reads, and returns transport.ErrClosed once reads
// is closed or Close was called.
type fakeConn struct {
	reads    chan any
	writeErr error

	mu      sync.Mutex
	written []mutation.Command

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(buffer int) *fakeConn {
	return &fakeConn{reads: make(chan any, buffer), closed: make(chan struct{})}
}

func (c *fakeConn) ReadSnapshot() (*game.Snapshot, error) {
	select {
	case v, ok := <-c.reads:
		if !ok {
			return nil, transport.ErrClosed
		}
		if err, ok := v.(error); ok {
			return nil, err
		}
		return v.(*game.Snapshot), nil
	case <-c.closed:
		return nil, transport.ErrClosed
	}
}

func (c *fakeConn) WriteCommands(cmds []mutation.Command) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, cmds...)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) commands() []mutation.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mutation.Command(nil), c.written...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeRecorder struct {
	events []recording.Event
}

func (r *fakeRecorder) Record(ev recording.Event) error {
	r.events = append(r.events, ev)
	return nil
}

// panicHandler panics on the first trigger only.
type panicHandler struct {
	panicked bool
}

func (h *panicHandler) HandleTrigger(float32) {
	if !h.panicked {
		h.panicked = true
		panic("trigger went wrong")
	}
}

func (h *panicHandler) HandleEmit(agent.Kind, mutation.Command) {}

// kickoff returns the snapshots of a countdown followed by a kickoff, 1/120s apart.
func kickoff() []*game.Snapshot {
	var snapshots []*game.Snapshot
	for i := 0; i < 120; i++ {
		phase := game.PhaseCountdown
		if i >= 30 {
			phase = game.PhaseKickoff
		}
		snapshots = append(snapshots, &game.Snapshot{
			Elapsed: float32(60 + float64(i)/120),
			Phase:   phase,
			Bodies:  []game.Body{{AirState: game.AirStateOnGround, Physics: &game.Physics{Velocity: mgl32.Vec3{0, 500, 0}}}},
		})
	}
	return snapshots
}

func TestRunTicksUntilConnectionCloses(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	snapshots := kickoff()
	conn := newFakeConn(len(snapshots))
	for _, s := range snapshots {
		conn.reads <- s
	}
	close(conn.reads)

	rec := &fakeRecorder{}
	s := New(log, agent.New(log, agent.DefaultOptions()), conn, Config{
		AgentID:       "swz/zero-g-script",
		Recorder:      rec,
		StatsInterval: 60,
	})
	require.NotEmpty(t, s.ID())
	require.NoError(t, s.Run(context.Background()))
	assert.True(t, conn.isClosed())

	stats := s.Stats()
	assert.Equal(t, uint64(120), stats.Ticks)
	assert.Equal(t, uint64(1), stats.Triggers)
	assert.Equal(t, uint64(10), stats.Overrides)
	// Every tick sticks the grounded car, ten of them also overwrite gravity.
	assert.Equal(t, uint64(130), stats.Commands)
	assert.Len(t, conn.commands(), 130)
	assert.Len(t, rec.events, 240)

	var statLines int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.DebugLevel && len(e.Message) > 10 && e.Message[:10] == "tick stats" {
			statLines++
			assert.Contains(t, e.Message, "rate=120")
			assert.Equal(t, s.ID(), e.Data["session"])
		}
	}
	assert.Equal(t, 2, statLines)
}

func TestRunSkipsMalformedFrames(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	conn := newFakeConn(3)
	conn.reads <- fmt.Errorf("%w: unexpected end of JSON input", transport.ErrMalformed)
	conn.reads <- &game.Snapshot{Elapsed: 1, Phase: game.PhaseActive}
	close(conn.reads)

	s := New(log, agent.New(log, agent.DefaultOptions()), conn, Config{})
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(1), s.Stats().Malformed)
	assert.Equal(t, uint64(1), s.Stats().Ticks)
}

func TestRunRecoversFromPanics(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	snapshots := kickoff()[25:40]
	conn := newFakeConn(len(snapshots))
	for _, s := range snapshots {
		conn.reads <- s
	}
	close(conn.reads)

	a := agent.New(log, agent.DefaultOptions())
	s := New(log, a, conn, Config{})
	a.Handle(&panicHandler{})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(1), s.Stats().Panics)
	assert.Equal(t, uint64(len(snapshots)-1), s.Stats().Ticks)

	var panics int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			assert.Contains(t, e.Message, "trigger went wrong")
			panics++
		}
	}
	assert.Equal(t, 1, panics)
}

func TestRunStopsOnCancel(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	conn := newFakeConn(0)
	s := New(log, agent.New(log, agent.DefaultOptions()), conn, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
	assert.True(t, conn.isClosed())
}

func TestRunReturnsConnectionErrors(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	lost := errors.New("connection reset by peer")

	t.Run("read", func(t *testing.T) {
		conn := newFakeConn(1)
		conn.reads <- lost
		s := New(log, agent.New(log, agent.DefaultOptions()), conn, Config{})
		assert.ErrorIs(t, s.Run(context.Background()), lost)
		assert.True(t, conn.isClosed())
	})

	t.Run("write", func(t *testing.T) {
		conn := newFakeConn(1)
		conn.writeErr = lost
		conn.reads <- &game.Snapshot{Elapsed: 1, Phase: game.PhaseCountdown, Bodies: kickoff()[0].Bodies}
		s := New(log, agent.New(log, agent.DefaultOptions()), conn, Config{})
		assert.ErrorIs(t, s.Run(context.Background()), lost)
	})
}

func TestNewRequiresAgentAndConnection(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	assert.Panics(t, func() { New(log, nil, newFakeConn(0), Config{}) })
	assert.Panics(t, func() { New(log, agent.New(log, agent.DefaultOptions()), nil, Config{}) })
}
