// Package middleware provides composable middleware around the handling of
// one presence delivery.
package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Delivery contains everything known about one state delivery before it is
// handled.
type Delivery struct {
	// Source names the feed the update came from.
	Source string
	// Session is the session the update belongs to.
	Session string
	// Update is the delivery as decoded.
	Update presence.Update
	// Current is the tracked state before the delivery is applied.
	Current presence.State
	// Vars carries values between middleware.
	Vars map[string]any
}

// Result is what handling a delivery produced.
type Result struct {
	// Profile is the derived presentation profile.
	Profile presence.Profile
	// From is the state that was left. Equal to Profile.State on repeats.
	From presence.State
	// Changed is false when the delivery repeated the current state.
	Changed bool
	// Canonical is true when the change follows a documented edge.
	Canonical bool
	// Fallback is true when the reported state was unrecognised.
	Fallback bool
	// Dwell is how long From was held. Zero when nothing changed.
	Dwell time.Duration
}

// Handler applies a delivery and returns its result.
type Handler func(ctx context.Context, d *Delivery) (Result, error)

// Middleware wraps a Handler with additional behavior.
// Middleware can:
// - Execute code before the next handler
// - Execute code after the next handler
// - Short-circuit by not calling next
// - Modify the delivery
type Middleware func(next Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Middleware are executed in the order provided, with each wrapping the next.
// For example, Chain(A, B, C) produces: A -> B -> C -> handler
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		// Build chain from right to left so execution is left to right
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Noop returns a middleware that does nothing, just passes through.
func Noop() Middleware {
	return func(next Handler) Handler {
		return next
	}
}
