package statemachine

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Change describes what one delivery did to the tracked state.
type Change struct {
	// Reported is the state as delivered, possibly unrecognised.
	Reported presence.State
	From     presence.State
	To       presence.State

	// Changed is false when the delivery repeated the current state.
	Changed bool

	// Canonical is true when a recognised state moved along the documented
	// chart. Repeats count as canonical.
	Canonical bool

	// Fallback is true when Reported was not recognised and idle was used.
	Fallback bool
}

// Tracker follows the state deliveries of one session. Deliveries along a
// documented edge drive the statekit interpreter; anything else, including
// unrecognised states, jumps the interpreter straight to the target so that
// out-of-order delivery never wedges the presentation.
// Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewTracker creates a started tracker for a session beginning in initial,
// which must be disconnected or idle.
func NewTracker(session string, initial presence.State) (*Tracker, error) {
	machine, err := NewPresenceMachine(initial)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, initial)
	}

	ctx := &Context{Session: session, Current: initial, Previous: initial}

	interp := statekit.NewInterpreter(machine)
	// Update the context reference in the machine
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Tracker{interp: interp, ctx: ctx}, nil
}

// Observe applies one delivery and reports the resulting change.
func (t *Tracker) Observe(u presence.Update) (Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	to := u.State.Normalize()
	change := Change{
		Reported: u.State,
		From:     t.ctx.Current,
		To:       to,
		Fallback: !u.State.IsValid(),
	}

	if to == t.ctx.Current {
		change.Canonical = true
		return change, nil
	}
	change.Changed = true

	// An unrecognised state is spurious even where current -> idle is an edge.
	if !change.Fallback && presence.IsCanonical(t.ctx.Current, to) {
		t.interp.Send(statekit.Event{
			Type:    EventFor(to),
			Payload: TransitionPayload{To: to, Activity: u.Activity},
		})
		if presence.State(t.interp.State().Value) == to {
			if t.ctx.Current != to {
				// recordTransition did not run; keep the context in step.
				t.ctx.Previous = change.From
				t.ctx.Current = to
				t.ctx.Changes++
			}
			change.Canonical = true
			return change, nil
		}
	}

	if err := t.jump(to); err != nil {
		return change, err
	}
	return change, nil
}

// jump restores the interpreter directly into a state. Must hold t.mu.
func (t *Tracker) jump(to presence.State) error {
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    machineID,
		CurrentState: statekit.StateID(to),
		Context:      t.ctx,
		CreatedAt:    time.Now(),
	}
	if err := t.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state %s: %w", to, err)
	}

	t.ctx.Previous = t.ctx.Current
	t.ctx.Current = to
	t.ctx.Changes++
	t.ctx.Spurious++
	return nil
}

// State returns the current tracked state.
func (t *Tracker) State() presence.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return presence.State(t.interp.State().Value)
}

// Matches checks if the interpreter is in the given state.
func (t *Tracker) Matches(s presence.State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interp.Matches(statekit.StateID(s))
}

// Stats returns a copy of the tracking context.
func (t *Tracker) Stats() Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.ctx
}

// Session returns the session the tracker follows.
func (t *Tracker) Session() string {
	return t.ctx.Session
}

// Stop stops the interpreter.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interp.Stop()
}
