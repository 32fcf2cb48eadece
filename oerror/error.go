package oerror

import "fmt"

// AgentError is an error raised by one of the agent's own packages, as opposed to one passed through
// from a dependency.
type AgentError struct {
	Err string
}

// New formats a new AgentError.
func New(format string, args ...any) *AgentError {
	return &AgentError{Err: fmt.Sprintf(format, args...)}
}

func (e *AgentError) Error() string {
	return e.Err
}
