package inspector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

func defaultTableExport(t *testing.T) *inspector.TableExport {
	t.Helper()

	export, err := NewTableExporter(nil).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	return export
}

func TestJSONFormatter(t *testing.T) {
	t.Run("compact by default", func(t *testing.T) {
		result, err := NewJSONFormatter().Format(map[string]string{"key": "value"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result) != `{"key":"value"}` {
			t.Errorf("unexpected result: %s", result)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		f := NewJSONFormatter(WithPrettyPrint())
		if f.FormatType() != inspector.FormatJSON {
			t.Errorf("expected FormatJSON, got %s", f.FormatType())
		}
		result, err := f.Format(map[string]string{"key": "value"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(result), "\n  \"key\"") {
			t.Errorf("expected indented output: %s", result)
		}
	})
}

func TestMermaidFormatter(t *testing.T) {
	f := NewMermaidFormatter()
	if f.FormatType() != inspector.FormatMermaid {
		t.Errorf("expected FormatMermaid, got %s", f.FormatType())
	}

	t.Run("table", func(t *testing.T) {
		result, err := f.Format(defaultTableExport(t))
		if err != nil {
			t.Fatalf("Format error: %v", err)
		}
		out := string(result)
		for _, want := range []string{
			"stateDiagram-v2",
			"[*] --> disconnected",
			"[*] --> idle",
			"listening --> thinking: end of turn",
			"idle --> listening\n",
			"note right of speaking: green #10b981, bars 24-80",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("session", func(t *testing.T) {
		data := &inspector.SessionExport{
			Session: "s-1",
			Transitions: []inspector.TransitionExport{
				{From: presence.StateListening, To: presence.StateThinking, Label: "end of turn", Canonical: true, Count: 2},
				{From: presence.StateListening, To: presence.StateSpeaking, Count: 1},
			},
		}
		result, err := f.Format(data)
		if err != nil {
			t.Fatalf("Format error: %v", err)
		}
		out := string(result)
		if !strings.Contains(out, "listening --> thinking: end of turn x2") {
			t.Errorf("missing counted edge:\n%s", out)
		}
		if !strings.Contains(out, "listening --> speaking: x1 (out of order)") {
			t.Errorf("missing out-of-order edge:\n%s", out)
		}
	})

	t.Run("unsupported data", func(t *testing.T) {
		if _, err := f.Format("nope"); !errors.Is(err, inspector.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})
}

func TestDOTFormatter(t *testing.T) {
	f := NewDOTFormatter()
	if f.FormatType() != inspector.FormatDOT {
		t.Errorf("expected FormatDOT, got %s", f.FormatType())
	}

	t.Run("table", func(t *testing.T) {
		result, err := f.Format(defaultTableExport(t))
		if err != nil {
			t.Fatalf("Format error: %v", err)
		}
		out := string(result)
		for _, want := range []string{
			"digraph PresenceStates {",
			`fillcolor="#2563eb"`,
			"peripheries=2",
			`listening -> thinking [label="end of turn"];`,
			"}\n",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if strings.Contains(out, "style=dashed") {
			t.Errorf("table edges are all canonical:\n%s", out)
		}
	})

	t.Run("session marks out-of-order edges", func(t *testing.T) {
		data := &inspector.SessionExport{
			Transitions: []inspector.TransitionExport{
				{From: presence.StateListening, To: presence.StateSpeaking, Count: 25},
			},
		}
		result, err := f.Format(data)
		if err != nil {
			t.Fatalf("Format error: %v", err)
		}
		out := string(result)
		if !strings.Contains(out, "penwidth=3") || !strings.Contains(out, "style=dashed") {
			t.Errorf("unexpected edge attributes:\n%s", out)
		}
	})

	t.Run("unsupported data", func(t *testing.T) {
		if _, err := f.Format(42); !errors.Is(err, inspector.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})
}

func TestSanitizeDOTID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"listening", "listening"},
		{"neutral-gray", "neutral_gray"},
		{"a.b c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := sanitizeDOTID(tt.input); got != tt.want {
			t.Errorf("sanitizeDOTID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCSVFormatter_Table(t *testing.T) {
	f := NewCSVFormatter()
	if f.FormatType() != inspector.FormatCSV {
		t.Errorf("expected FormatCSV, got %s", f.FormatType())
	}

	result, err := f.Format(defaultTableExport(t))
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	r := csv.NewReader(strings.NewReader(string(result)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if records[0][0] != "# STATES" || records[1][0] != "name" || len(records[1]) != 14 {
		t.Fatalf("unexpected header rows: %v", records[:2])
	}

	// Rows follow presentation order: idle first.
	idle := records[2]
	if idle[0] != "idle" || idle[1] != "neutral-gray" || idle[6] != "0.05" || idle[13] != "true" {
		t.Errorf("unexpected idle row: %v", idle)
	}
	disconnected := records[7]
	if disconnected[0] != "disconnected" || disconnected[8] != "false" || disconnected[12] != "0.5" {
		t.Errorf("unexpected disconnected row: %v", disconnected)
	}
}

func TestCSVFormatter_Session(t *testing.T) {
	store := recordedStore(t)
	defer store.Close()

	export, err := NewSessionExporter(store).Export(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	result, err := NewCSVFormatter(WithDelimiter(';')).Format(export)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	out := string(result)
	for _, want := range []string{
		"# Changes: 6 (1 out of order)",
		"# TIMELINE",
		"seq;timestamp;from;to;canonical;activity",
		"listening;3000",
		"listening;speaking;;false;1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCSVFormatter_WithoutHeaders(t *testing.T) {
	result, err := NewCSVFormatter(WithoutCSVHeaders()).Format(defaultTableExport(t))
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if strings.Contains(string(result), "accent_hex") {
		t.Errorf("headers should be omitted:\n%s", result)
	}
}

func TestCSVFormatter_Unsupported(t *testing.T) {
	if _, err := NewCSVFormatter().Format("nope"); err == nil {
		t.Error("expected error for unsupported data")
	}
}

func TestXStateFormatter(t *testing.T) {
	f := NewXStateFormatter(WithMachineID("kiosk"), WithCompactXState())
	if f.FormatType() != inspector.FormatXState {
		t.Errorf("expected FormatXState, got %s", f.FormatType())
	}

	result, err := f.Format(defaultTableExport(t))
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	var machine XStateMachine
	if err := json.Unmarshal(result, &machine); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if machine.ID != "kiosk" {
		t.Errorf("ID = %s, want kiosk", machine.ID)
	}
	if machine.Initial != "disconnected" {
		t.Errorf("Initial = %s, want disconnected", machine.Initial)
	}
	if len(machine.States) != 6 {
		t.Fatalf("States len = %d, want 6", len(machine.States))
	}

	listening := machine.States["listening"]
	if got := listening.On["TO_THINKING"]; got.Target != "thinking" || got.Description != "end of turn" {
		t.Errorf("TO_THINKING = %+v", got)
	}
	if listening.Meta["accentHex"] != "#2563eb" {
		t.Errorf("accentHex meta = %v", listening.Meta["accentHex"])
	}
	if listening.Meta["maxHeight"] != float64(65) {
		t.Errorf("maxHeight meta = %v", listening.Meta["maxHeight"])
	}
	if _, ok := machine.States["disconnected"].On["TO_SPEAKING"]; ok {
		t.Error("disconnected should not transition to speaking")
	}
}

func TestXStateFormatter_RequiresTable(t *testing.T) {
	_, err := NewXStateFormatter().Format(&inspector.SessionExport{})
	if !errors.Is(err, inspector.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
