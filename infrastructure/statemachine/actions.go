package statemachine

import "github.com/felixgeelhaar/agent-presence/domain/presence"

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	To       presence.State
	Activity *float64
}
