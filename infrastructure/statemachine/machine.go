// Package statemachine provides the statekit chart that follows presence
// state deliveries from a session driver.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

const machineID = "presence"

// Context carries tracking data through the state machine.
type Context struct {
	Session  string
	Current  presence.State
	Previous presence.State

	// Changes counts every state change, canonical or not.
	Changes int

	// Spurious counts changes that skipped the documented chart.
	Spurious int
}

// Events, one per target state.
const (
	EventConnect    statekit.EventType = "CONNECT"
	EventReady      statekit.EventType = "READY"
	EventListen     statekit.EventType = "LISTEN"
	EventThink      statekit.EventType = "THINK"
	EventSpeak      statekit.EventType = "SPEAK"
	EventDisconnect statekit.EventType = "DISCONNECT"
)

// EventFor returns the event that moves the chart into a state.
func EventFor(to presence.State) statekit.EventType {
	switch to {
	case presence.StateConnecting:
		return EventConnect
	case presence.StateIdle:
		return EventReady
	case presence.StateListening:
		return EventListen
	case presence.StateThinking:
		return EventThink
	case presence.StateSpeaking:
		return EventSpeak
	case presence.StateDisconnected:
		return EventDisconnect
	default:
		return statekit.EventType(to)
	}
}

// StateForEvent is the inverse of EventFor.
func StateForEvent(ev statekit.EventType) presence.State {
	switch ev {
	case EventConnect:
		return presence.StateConnecting
	case EventReady:
		return presence.StateIdle
	case EventListen:
		return presence.StateListening
	case EventThink:
		return presence.StateThinking
	case EventSpeak:
		return presence.StateSpeaking
	case EventDisconnect:
		return presence.StateDisconnected
	default:
		return presence.State(ev)
	}
}

// State IDs as StateID type for statekit.
const (
	stateIdle         = statekit.StateID(presence.StateIdle)
	stateConnecting   = statekit.StateID(presence.StateConnecting)
	stateListening    = statekit.StateID(presence.StateListening)
	stateThinking     = statekit.StateID(presence.StateThinking)
	stateSpeaking     = statekit.StateID(presence.StateSpeaking)
	stateDisconnected = statekit.StateID(presence.StateDisconnected)
)

// NewPresenceMachine builds the presence chart starting in initial. The
// edges mirror presence.CanonicalTransitions; there is no final state.
func NewPresenceMachine(initial presence.State) (*statekit.MachineConfig[*Context], error) {
	if !initial.IsInitial() {
		return nil, presence.ErrInvalidInitialState
	}

	return statekit.NewMachine[*Context](machineID).
		WithInitial(statekit.StateID(initial)).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		State(stateDisconnected).
			On(EventConnect).Target(stateConnecting).Do("recordTransition").
			On(EventReady).Target(stateIdle).Do("recordTransition").
			Done().
		State(stateConnecting).
			On(EventReady).Target(stateIdle).Do("recordTransition").
			On(EventListen).Target(stateListening).Do("recordTransition").
			On(EventDisconnect).Target(stateDisconnected).Do("recordTransition").
			Done().
		State(stateIdle).
			On(EventListen).Target(stateListening).Do("recordTransition").
			On(EventSpeak).Target(stateSpeaking).Do("recordTransition").
			On(EventDisconnect).Target(stateDisconnected).Do("recordTransition").
			Done().
		State(stateListening).
			On(EventThink).Target(stateThinking).Do("recordTransition").
			On(EventReady).Target(stateIdle).Do("recordTransition").
			On(EventDisconnect).Target(stateDisconnected).Do("recordTransition").
			Done().
		State(stateThinking).
			On(EventSpeak).Target(stateSpeaking).Do("recordTransition").
			On(EventListen).Target(stateListening).Do("recordTransition").
			On(EventReady).Target(stateIdle).Do("recordTransition").
			On(EventDisconnect).Target(stateDisconnected).Do("recordTransition").
			Done().
		State(stateSpeaking).
			On(EventListen).Target(stateListening).Do("recordTransition").
			On(EventThink).Target(stateThinking).Do("recordTransition").
			On(EventReady).Target(stateIdle).Do("recordTransition").
			On(EventDisconnect).Target(stateDisconnected).Do("recordTransition").
			Done().
		Build()
}

// recordTransition updates the context when the chart moves.
// In statekit, actions receive a pointer to the context. Since our context is
// *Context, actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	to := StateForEvent(event.Type)
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.To
	}

	c.Previous = c.Current
	c.Current = to
	c.Changes++
}
