package assert

import "github.com/swz-git/zero-g-script/oerror"

// IsTrue panics with an *oerror.AgentError if ok is false. It guards against programmer errors, never
// against bad input from the match host.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(oerror.New(message, args...))
	}
}
