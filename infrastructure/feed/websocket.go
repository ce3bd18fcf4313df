package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
)

// WebSocketConfig configures a websocket feed.
type WebSocketConfig struct {
	// URL is the ws:// or wss:// endpoint.
	URL string

	// Headers are sent with the handshake.
	Headers map[string]string

	// HandshakeTimeout bounds one handshake attempt.
	HandshakeTimeout time.Duration

	// Reconnect configures retry and circuit breaking of the dial.
	Reconnect resilience.Config
}

// WebSocketSource reads updates from a websocket, one JSON message per frame.
// When the connection drops it emits a disconnected update and redials.
type WebSocketSource struct {
	config  WebSocketConfig
	decoder Decoder
	dialer  *resilience.Dialer[*websocket.Conn]
}

// NewWebSocketSource creates a websocket source.
func NewWebSocketSource(config WebSocketConfig, decoder Decoder) *WebSocketSource {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 10 * time.Second
	}
	return &WebSocketSource{
		config:  config,
		decoder: decoder,
		dialer:  resilience.NewDialer[*websocket.Conn](config.Reconnect),
	}
}

// Name returns the endpoint URL.
func (s *WebSocketSource) Name() string {
	return s.config.URL
}

// Run connects and reads until ctx is done. It returns an error once a dial
// cycle fails for good.
func (s *WebSocketSource) Run(ctx context.Context, out chan<- presence.Update) error {
	metrics := s.decoder.metrics()
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			metrics.RecordReconnect(ctx, s.config.URL)
		}
		conn, err := s.dialer.Dial(ctx, s.dial)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logging.Error().
				Add(logging.Source(s.config.URL)).
				Add(logging.Str("circuit_breaker", s.dialer.CircuitBreakerState().String())).
				Add(logging.ErrorField(err)).
				Msg("feed unreachable")
			return fmt.Errorf("connecting to %s: %w", s.config.URL, err)
		}

		logging.Info().
			Add(logging.Source(s.config.URL)).
			Msg("feed connected")
		metrics.FeedConnected(ctx, s.config.URL)

		err = s.read(ctx, conn, out)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}

		logging.Warn().
			Add(logging.Source(s.config.URL)).
			Add(logging.ErrorField(err)).
			Msg("feed connection lost")
		metrics.FeedDisconnected(ctx, s.config.URL)

		if err := send(ctx, out, s.decoder.lost()); err != nil {
			return nil
		}
	}
}

func (s *WebSocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	header := http.Header{}
	for k, v := range s.config.Headers {
		header.Set(k, v)
	}

	conn, resp, err := dialer.DialContext(ctx, s.config.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		logging.Debug().
			Add(logging.Source(s.config.URL)).
			Add(logging.ErrorField(err)).
			Msg("dial attempt failed")
		return nil, err
	}
	return conn, nil
}

// read forwards frames until the connection fails or ctx is done.
func (s *WebSocketSource) read(ctx context.Context, conn *websocket.Conn, out chan<- presence.Update) error {
	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by peer")
			}
			return err
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		u, err := s.decoder.Decode(msg)
		if err != nil {
			logging.Warn().
				Add(logging.Source(s.config.URL)).
				Add(logging.ErrorField(err)).
				Msg("skipping malformed update")
			s.decoder.metrics().RecordMalformed(ctx, s.config.URL)
			continue
		}
		if err := send(ctx, out, u); err != nil {
			return err
		}
	}
}
