package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogRepeats logs deliveries that repeat the current state (at debug).
	LogRepeats bool
	// LogActivity adds the activity level to change logs.
	LogActivity bool
}

// Logging returns middleware that logs state changes.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, d *middleware.Delivery) (middleware.Result, error) {
			start := time.Now()

			result, err := next(ctx, d)
			duration := time.Since(start)

			if err != nil {
				logging.Error().
					Add(logging.Session(d.Session)).
					Add(logging.Source(d.Source)).
					Add(logging.State(d.Update.State)).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("delivery failed")
				return result, err
			}

			if !result.Changed {
				if cfg.LogRepeats {
					logging.Debug().
						Add(logging.Session(d.Session)).
						Add(logging.State(result.Profile.State)).
						Msg("state repeated")
				}
				return result, nil
			}

			entry := logging.Info()
			if !result.Canonical || result.Fallback {
				entry = logging.Warn()
			}
			entry = entry.
				Add(logging.Session(d.Session)).
				Add(logging.FromState(result.From)).
				Add(logging.ToState(result.Profile.State)).
				Add(logging.Canonical(result.Canonical)).
				Add(logging.Accent(result.Profile.Accent)).
				Add(logging.Duration(result.Dwell))

			if result.Fallback {
				entry = entry.Add(logging.Str("reported", string(d.Update.State)))
			}
			if a, ok := d.Update.ActivityLevel(); ok && cfg.LogActivity {
				entry = entry.Add(logging.Activity(a))
			}

			entry.Msg("state changed")
			return result, nil
		}
	}
}
