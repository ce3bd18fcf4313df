// Package middleware provides pre-built middleware implementations.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
)

// Errors returned by the validation middleware.
var (
	// ErrStaleUpdate is returned for a delivery older than the last one
	// accepted for its session.
	ErrStaleUpdate = errors.New("stale presence update")

	// ErrUnknownState is returned for an unrecognised state when unknown
	// states are rejected.
	ErrUnknownState = errors.New("unknown presence state")
)

// ValidationConfig configures the validation middleware.
type ValidationConfig struct {
	// RejectStale drops deliveries whose timestamp precedes the last accepted
	// delivery of the same session. Network feeds may reorder messages.
	// Default: false
	RejectStale bool

	// RejectUnknown rejects unrecognised states instead of letting the
	// mapper fall back to idle.
	// Default: false
	RejectUnknown bool
}

// DefaultValidationConfig returns the default configuration, which accepts
// every delivery.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{}
}

// Validation returns middleware that rejects deliveries before they reach
// the tracker. Rejected deliveries leave the tracked state untouched.
func Validation(cfg ValidationConfig) middleware.Middleware {
	var (
		mu   sync.Mutex
		last = make(map[string]time.Time)
	)

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, d *middleware.Delivery) (middleware.Result, error) {
			u := d.Update

			if cfg.RejectUnknown && !u.State.IsValid() {
				return middleware.Result{}, fmt.Errorf("%w: %q", ErrUnknownState, u.State)
			}

			if !cfg.RejectStale || u.At.IsZero() {
				return next(ctx, d)
			}

			mu.Lock()
			prev, seen := last[d.Session]
			mu.Unlock()
			if seen && u.At.Before(prev) {
				return middleware.Result{}, fmt.Errorf("%w: %s is before %s",
					ErrStaleUpdate, u.At.Format(time.RFC3339Nano), prev.Format(time.RFC3339Nano))
			}

			result, err := next(ctx, d)
			if err != nil {
				return result, err
			}

			// Only accepted deliveries move the watermark.
			mu.Lock()
			if u.At.After(last[d.Session]) {
				last[d.Session] = u.At
			}
			mu.Unlock()
			return result, nil
		}
	}
}
