// Package feed delivers presence updates from a session driver: JSON lines
// on a reader, a websocket or a Redis pub/sub channel.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// Errors returned by feeds.
var (
	// ErrMalformedUpdate is returned for a message that is not an update.
	ErrMalformedUpdate = errors.New("malformed presence update")

	// ErrUnsupportedSource is returned for a source string no feed handles.
	ErrUnsupportedSource = errors.New("unsupported feed source")
)

// Source produces presence updates.
type Source interface {
	// Name describes the source for logs.
	Name() string

	// Run sends updates to out until ctx is done or the source ends. It
	// never closes out. A nil return means the source ended cleanly.
	Run(ctx context.Context, out chan<- presence.Update) error
}

// Decoder turns raw messages into updates.
type Decoder struct {
	// Session is used when a message names no session.
	Session string

	// Now stamps messages without a timestamp. Defaults to time.Now.
	Now func() time.Time

	// Metrics counts malformed messages and connection changes. Optional.
	Metrics telemetry.Metrics
}

// Decode parses one message. Accepted forms are a JSON object
// {"state":"listening","activity":0.8,"session":"s","t":"RFC3339"} or a
// bare state name optionally followed by an activity level ("listening 0.8").
// State names are lowercased in both forms and otherwise passed through
// unvalidated.
func (d Decoder) Decode(msg []byte) (presence.Update, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return presence.Update{}, fmt.Errorf("%w: empty message", ErrMalformedUpdate)
	}

	var u presence.Update
	if msg[0] == '{' {
		if err := json.Unmarshal(msg, &u); err != nil {
			return presence.Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
		}
		u.State = normalizeState(string(u.State))
		if u.State == "" {
			return presence.Update{}, fmt.Errorf("%w: missing state", ErrMalformedUpdate)
		}
	} else {
		fields := strings.Fields(string(msg))
		if len(fields) > 2 {
			return presence.Update{}, fmt.Errorf("%w: %q", ErrMalformedUpdate, msg)
		}
		u.State = normalizeState(fields[0])
		if len(fields) == 2 {
			a, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return presence.Update{}, fmt.Errorf("%w: activity %q", ErrMalformedUpdate, fields[1])
			}
			u.Activity = &a
		}
	}

	if u.Session == "" {
		u.Session = d.Session
	}
	if u.At.IsZero() {
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		u.At = now()
	}
	return u, nil
}

// normalizeState folds case and surrounding space out of a wire state name.
func normalizeState(s string) presence.State {
	return presence.State(strings.ToLower(strings.TrimSpace(s)))
}

func (d Decoder) metrics() telemetry.Metrics {
	if d.Metrics == nil {
		return &telemetry.NoopMetricsProvider{}
	}
	return d.Metrics
}

// lost builds the update emitted when a network feed drops.
func (d Decoder) lost() presence.Update {
	u := presence.NewUpdate(presence.StateDisconnected)
	u.Session = d.Session
	if d.Now != nil {
		u.At = d.Now()
	}
	return u
}

// send delivers u unless ctx is done first.
func send(ctx context.Context, out chan<- presence.Update, u presence.Update) error {
	select {
	case out <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
