package recording

import (
	"bytes"

	"github.com/swz-git/zero-g-script/game"
	"github.com/swz-git/zero-g-script/mutation"
	"github.com/swz-git/zero-g-script/oerror"
	"github.com/swz-git/zero-g-script/transport"
)

const (
	_ = iota
	EventIDSnapshot
	EventIDCommands
)

// Event is a single entry of a recording.
type Event interface {
	ID() byte
	// Time returns the wall clock time the event was recorded at, in Unix nanoseconds.
	Time() int64
	// Encode writes the payload of the event to buf.
	Encode(buf *bytes.Buffer) error
}

type NopEvent struct {
	EvTime int64
}

func (n NopEvent) Time() int64 {
	return n.EvTime
}

// SnapshotEvent holds a snapshot exactly as it was received.
type SnapshotEvent struct {
	NopEvent

	Snapshot *game.Snapshot
}

func (SnapshotEvent) ID() byte {
	return EventIDSnapshot
}

func (ev SnapshotEvent) Encode(buf *bytes.Buffer) error {
	return transport.MarshalMsgpack(buf, ev.Snapshot)
}

// CommandsEvent holds the commands sent in response to the snapshot with the same elapsed time.
type CommandsEvent struct {
	NopEvent

	Elapsed  float32
	Commands []mutation.Command
}

func (CommandsEvent) ID() byte {
	return EventIDCommands
}

func (ev CommandsEvent) Encode(buf *bytes.Buffer) error {
	return transport.MarshalMsgpack(buf, commandsPayload{Elapsed: ev.Elapsed, Commands: ev.Commands})
}

type commandsPayload struct {
	Elapsed  float32            `json:"elapsed"`
	Commands []mutation.Command `json:"commands"`
}

// decodeEvent decodes the payload of an event with the ID passed.
func decodeEvent(id byte, t int64, payload []byte) (Event, error) {
	switch id {
	case EventIDSnapshot:
		ev := SnapshotEvent{Snapshot: &game.Snapshot{}}
		ev.EvTime = t
		if err := transport.UnmarshalMsgpack(payload, ev.Snapshot); err != nil {
			return nil, oerror.New("error decoding SnapshotEvent: %v", err)
		}
		return ev, nil
	case EventIDCommands:
		var p commandsPayload
		if err := transport.UnmarshalMsgpack(payload, &p); err != nil {
			return nil, oerror.New("error decoding CommandsEvent: %v", err)
		}
		ev := CommandsEvent{Elapsed: p.Elapsed, Commands: p.Commands}
		ev.EvTime = t
		return ev, nil
	default:
		return nil, oerror.New("unknown event: %d", id)
	}
}
