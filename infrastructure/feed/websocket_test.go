package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
)

// newPresenceServer serves each connection the given frames and then closes it.
func newPresenceServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// Wait for the client to go away.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketSource_Run(t *testing.T) {
	metrics := &countingMetrics{}
	server := newPresenceServer(t,
		`{"state":"connecting","session":"remote"}`,
		`{garbage`,
		`{"state":"listening","activity":0.6,"session":"remote"}`,
	)

	src := NewWebSocketSource(WebSocketConfig{
		URL: wsURL(server),
		Reconnect: resilience.Config{
			RetryMaxAttempts:  2,
			RetryInitialDelay: 10 * time.Millisecond,
		},
	}, Decoder{Session: "local", Metrics: metrics})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan presence.Update, 16)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	want := []presence.Update{
		{State: presence.StateConnecting, Session: "remote"},
		{State: presence.StateListening, Session: "remote"},
		// The server hangs up after its frames.
		{State: presence.StateDisconnected, Session: "local"},
	}
	for i, w := range want {
		select {
		case u := <-out:
			if u.State != w.State || u.Session != w.Session {
				t.Errorf("update %d = %s/%s, want %s/%s", i, u.State, u.Session, w.State, w.Session)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	// The source redials after the hang-up, so later connections may add more.
	if got := metrics.malformed[wsURL(server)]; got < 1 {
		t.Errorf("malformed = %d, want at least 1", got)
	}
}

func TestWebSocketSource_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	src := NewWebSocketSource(WebSocketConfig{
		URL: url,
		Reconnect: resilience.Config{
			RetryMaxAttempts:  2,
			RetryInitialDelay: time.Millisecond,
			DialTimeout:       2 * time.Second,
		},
	}, Decoder{})

	err := src.Run(context.Background(), make(chan presence.Update, 1))
	if err == nil {
		t.Error("Run() should fail when the endpoint is unreachable")
	}
}
