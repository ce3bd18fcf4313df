package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
)

func TestRedisSource_Run(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg, err := ParseRedisURL("redis://" + mr.Addr() + "/presence")
	if err != nil {
		t.Fatalf("ParseRedisURL() error = %v", err)
	}
	cfg.Reconnect = resilience.Config{RetryMaxAttempts: 3, RetryInitialDelay: 10 * time.Millisecond}

	src := NewRedisSource(cfg, Decoder{Session: "kiosk"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan presence.Update, 16)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	// Publish until the subscription is live.
	deadline := time.Now().Add(5 * time.Second)
	for mr.Publish("presence", `{"state":"thinking"}`) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never became active")
		}
		time.Sleep(10 * time.Millisecond)
	}
	mr.Publish("presence", "{broken")
	mr.Publish("presence", "speaking 0.5")

	for _, want := range []presence.State{presence.StateThinking, presence.StateSpeaking} {
		select {
		case u := <-out:
			if u.State != want {
				t.Errorf("State = %q, want %q", u.State, want)
			}
			if u.Session != "kiosk" {
				t.Errorf("Session = %q, want kiosk", u.Session)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
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
}
