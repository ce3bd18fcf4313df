package feed

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// Options configure Open.
type Options struct {
	// Session is used when a message names no session.
	Session string

	// Reconnect configures network feeds.
	Reconnect resilience.Config

	// Metrics counts malformed messages and connection changes. Optional.
	Metrics telemetry.Metrics
}

// Open creates the source named by a source string: "stdin" (or empty),
// "file:PATH", a ws:// or wss:// URL, or redis://host:port/channel.
func Open(source string, opts Options) (Source, error) {
	decoder := Decoder{Session: opts.Session, Metrics: opts.Metrics}

	switch {
	case source == "" || source == "stdin":
		return NewStdinSource(decoder), nil
	case strings.HasPrefix(source, "file:"):
		path := strings.TrimPrefix(source, "file:")
		if path == "" {
			return nil, fmt.Errorf("%w: file source needs a path", ErrUnsupportedSource)
		}
		return OpenFile(path, decoder)
	case strings.HasPrefix(source, "ws://"), strings.HasPrefix(source, "wss://"):
		return NewWebSocketSource(WebSocketConfig{
			URL:       source,
			Reconnect: opts.Reconnect,
		}, decoder), nil
	case strings.HasPrefix(source, "redis://"):
		cfg, err := ParseRedisURL(source)
		if err != nil {
			return nil, err
		}
		cfg.Reconnect = opts.Reconnect
		return NewRedisSource(cfg, decoder), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}
