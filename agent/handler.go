package agent

import (
	"github.com/swz-git/zero-g-script/mutation"
)

// Kind identifies which correction produced a command.
type Kind uint8

const (
	KindSticky Kind = iota
	KindLift
	KindGravity
)

func (k Kind) String() string {
	switch k {
	case KindSticky:
		return "sticky"
	case KindLift:
		return "lift"
	case KindGravity:
		return "gravity"
	}
	return "unknown"
}

// Handler is notified of what the agent does during a tick. Handlers run synchronously inside Tick
// and must not block.
type Handler interface {
	// HandleTrigger is called when a countdown to kickoff transition is detected.
	HandleTrigger(elapsed float32)
	// HandleEmit is called for every command the agent returns.
	HandleEmit(kind Kind, cmd mutation.Command)
}

// NopHandler implements Handler without doing anything.
type NopHandler struct{}

func (NopHandler) HandleTrigger(float32)             {}
func (NopHandler) HandleEmit(Kind, mutation.Command) {}
