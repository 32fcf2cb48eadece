package recording

import (
	"errors"
	"io"

	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/internal"
	"github.com/swz-git/zero-g-script/mutation"
	"github.com/swz-git/zero-g-script/transport"
	"github.com/zeebo/xxh3"
)

// Divergence is a tick where the replayed agent did not send the commands that were recorded.
type Divergence struct {
	Elapsed  float32
	Recorded int
	Replayed int
}

// Result summarises a replay.
type Result struct {
	Ticks int
	// Commands is the amount of commands produced by the replayed agent.
	Commands    int
	Divergences []Divergence
}

// Replay feeds every recorded snapshot through the agent passed and compares the commands it
// produces with the commands that were recorded for the same snapshot.
func Replay(r *Reader, a *agent.Agent) (Result, error) {
	var (
		res        Result
		replayed   []mutation.Command
		hasPending bool
		pendingAt  float32
	)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		} else if err != nil {
			return res, err
		}

		switch ev := ev.(type) {
		case SnapshotEvent:
			replayed = a.Tick(ev.Snapshot)
			hasPending, pendingAt = true, ev.Snapshot.Elapsed
			res.Ticks++
			res.Commands += len(replayed)
		case CommandsEvent:
			if !hasPending || ev.Elapsed != pendingAt {
				continue
			}
			hasPending = false
			if HashCommands(replayed) != HashCommands(ev.Commands) {
				res.Divergences = append(res.Divergences, Divergence{
					Elapsed:  ev.Elapsed,
					Recorded: len(ev.Commands),
					Replayed: len(replayed),
				})
			}
		}
	}
}

// HashCommands returns a hash of the encoded commands. A nil and an empty slice hash the same.
func HashCommands(cmds []mutation.Command) uint64 {
	h := xxh3.New()
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	for _, cmd := range cmds {
		buf.Reset()
		if err := transport.MarshalMsgpack(buf, cmd); err != nil {
			// Commands only hold numbers and strings and always encode.
			panic(err)
		}
		_, _ = h.Write(buf.Bytes())
	}
	return h.Sum64()
}
