package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	domainmw "github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	mw "github.com/felixgeelhaar/agent-presence/infrastructure/middleware"
)

// createTestHandler creates a handler that derives the delivered state, or
// fails with err.
func createTestHandler(err error) domainmw.Handler {
	return func(ctx context.Context, d *domainmw.Delivery) (domainmw.Result, error) {
		if err != nil {
			return domainmw.Result{}, err
		}
		p := presence.DefaultMapper().DeriveUpdate(d.Update)
		return domainmw.Result{
			Profile:   p,
			From:      d.Current,
			Changed:   p.State != d.Current,
			Canonical: presence.IsCanonical(d.Current, p.State),
			Fallback:  !d.Update.State.IsValid(),
			Dwell:     time.Second,
		}, nil
	}
}

func delivery(session string, s presence.State, current presence.State) *domainmw.Delivery {
	return &domainmw.Delivery{
		Source:  "test",
		Session: session,
		Update:  presence.NewUpdate(s).WithActivity(0.5),
		Current: current,
	}
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     mw.LoggingConfig
		d       *domainmw.Delivery
		wantErr bool
	}{
		{
			name: "canonical change",
			cfg:  mw.LoggingConfig{LogActivity: true},
			d:    delivery("s-1", presence.StateThinking, presence.StateListening),
		},
		{
			name: "out of order change",
			cfg:  mw.LoggingConfig{},
			d:    delivery("s-1", presence.StateSpeaking, presence.StateConnecting),
		},
		{
			name: "unknown state",
			cfg:  mw.LoggingConfig{LogActivity: true},
			d:    delivery("s-1", presence.State("dreaming"), presence.StateListening),
		},
		{
			name: "repeat",
			cfg:  mw.LoggingConfig{LogRepeats: true},
			d:    delivery("s-1", presence.StateIdle, presence.StateIdle),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := mw.Logging(tt.cfg)(createTestHandler(nil))
			result, err := handler(context.Background(), tt.d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := tt.d.Update.State.Normalize()
			if result.Profile.State != want {
				t.Errorf("state = %s, want %s", result.Profile.State, want)
			}
		})
	}

	t.Run("logs errors without panic", func(t *testing.T) {
		t.Parallel()

		handlerErr := errors.New("render failed")
		handler := mw.Logging(mw.LoggingConfig{})(createTestHandler(handlerErr))

		_, err := handler(context.Background(), delivery("s-2", presence.StateIdle, presence.StateDisconnected))
		if !errors.Is(err, handlerErr) {
			t.Fatalf("error = %v, want %v", err, handlerErr)
		}
	})
}
