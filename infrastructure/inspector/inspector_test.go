package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/storage/memory"
)

func recordedStore(t *testing.T) *memory.TimelineStore {
	t.Helper()

	store := memory.NewTimelineStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	steps := []struct {
		from, to presence.State
		offset   time.Duration
	}{
		{presence.StateDisconnected, presence.StateConnecting, 0},
		{presence.StateConnecting, presence.StateListening, time.Second},
		{presence.StateListening, presence.StateThinking, 3 * time.Second},
		{presence.StateThinking, presence.StateSpeaking, 4 * time.Second},
		{presence.StateSpeaking, presence.StateListening, 7 * time.Second},
		{presence.StateListening, presence.StateSpeaking, 8 * time.Second},
	}

	var entries []timeline.Entry
	for _, s := range steps {
		entries = append(entries, timeline.NewEntry("s-1", s.from, s.to, base.Add(s.offset)))
	}
	if err := store.Append(context.Background(), entries...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return store
}

func TestTableExporter_Default(t *testing.T) {
	export, err := NewTableExporter(nil).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(export.States) != 6 {
		t.Fatalf("States len = %d, want 6", len(export.States))
	}
	if len(export.Transitions) != len(presence.CanonicalTransitions()) {
		t.Errorf("Transitions len = %d, want %d", len(export.Transitions), len(presence.CanonicalTransitions()))
	}
	if export.Fallback != presence.StateIdle {
		t.Errorf("Fallback = %s, want idle", export.Fallback)
	}

	byName := make(map[presence.State]inspector.StateExport)
	for _, s := range export.States {
		byName[s.Name] = s
	}

	listening := byName[presence.StateListening]
	if listening.Accent != presence.AccentBlue || listening.MaxHeight != 65 {
		t.Errorf("listening = %+v", listening)
	}
	disconnected := byName[presence.StateDisconnected]
	if disconnected.BaseAmplitude != 0 || disconnected.Opacity != 0.5 || !disconnected.IsInitial {
		t.Errorf("disconnected = %+v", disconnected)
	}
	if byName[presence.StateSpeaking].IsInitial {
		t.Error("speaking should not be an initial state")
	}
	for _, tr := range export.Transitions {
		if !tr.Canonical {
			t.Errorf("table edge %s -> %s should be canonical", tr.From, tr.To)
		}
	}
}

func TestTableExporter_TunedMapper(t *testing.T) {
	table := presence.DefaultTable()
	spec := table.Spec(presence.StateSpeaking)
	spec.StatusText = "Talking"
	mapper := presence.NewMapper(table.With(presence.StateSpeaking, spec))

	export, err := NewTableExporter(Static(mapper)).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	for _, s := range export.States {
		if s.Name == presence.StateSpeaking && s.StatusText != "Talking" {
			t.Errorf("StatusText = %q, want Talking", s.StatusText)
		}
	}
}

func TestTableExporter_NilMapper(t *testing.T) {
	_, err := NewTableExporter(Static(nil)).Export(context.Background())
	if !errors.Is(err, inspector.ErrNoData) {
		t.Errorf("Export() error = %v, want ErrNoData", err)
	}
}

func TestSessionExporter(t *testing.T) {
	store := recordedStore(t)
	defer store.Close()

	export, err := NewSessionExporter(store).Export(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(export.Entries) != 6 {
		t.Fatalf("Entries len = %d, want 6", len(export.Entries))
	}
	if export.Metrics.ChangeCount != 6 {
		t.Errorf("ChangeCount = %d, want 6", export.Metrics.ChangeCount)
	}
	// listening -> speaking is not a documented edge.
	if export.Metrics.SpuriousCount != 1 {
		t.Errorf("SpuriousCount = %d, want 1", export.Metrics.SpuriousCount)
	}
	if export.Metrics.TotalDuration != 8*time.Second {
		t.Errorf("TotalDuration = %v, want 8s", export.Metrics.TotalDuration)
	}
	if got := export.Metrics.TimeInState[presence.StateListening]; got != 3*time.Second {
		t.Errorf("time in listening = %v, want 3s", got)
	}

	last := export.Transitions[len(export.Transitions)-1]
	if last.From != presence.StateListening || last.To != presence.StateSpeaking || last.Canonical {
		t.Errorf("out-of-order edge should sort last, got %+v", last)
	}
	for _, tr := range export.Transitions {
		if tr.Count != 1 {
			t.Errorf("edge %s -> %s count = %d, want 1", tr.From, tr.To, tr.Count)
		}
	}
}

func TestSessionExporter_NotFound(t *testing.T) {
	store := memory.NewTimelineStore()
	defer store.Close()

	_, err := NewSessionExporter(store).Export(context.Background(), "missing")
	if !errors.Is(err, inspector.ErrSessionNotFound) {
		t.Errorf("Export() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionExporter_StoreClosed(t *testing.T) {
	store := memory.NewTimelineStore()
	store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSessionExporter(store).Export(ctx, "s-1")
	if !errors.Is(err, inspector.ErrExportFailed) {
		t.Errorf("Export() error = %v, want ErrExportFailed", err)
	}
}

func TestDefaultInspector_ExportTable(t *testing.T) {
	insp := NewDefaultInspector(NewTableExporter(nil), nil)

	for _, format := range inspector.Formats() {
		t.Run(string(format), func(t *testing.T) {
			out, err := insp.ExportTable(context.Background(), format)
			if err != nil {
				t.Fatalf("ExportTable(%s) error = %v", format, err)
			}
			if !strings.Contains(string(out), "listening") {
				t.Errorf("ExportTable(%s) output lacks listening:\n%s", format, out)
			}
		})
	}
}

func TestDefaultInspector_ExportTable_JSON(t *testing.T) {
	insp := NewDefaultInspector(NewTableExporter(nil), nil)

	out, err := insp.ExportTable(context.Background(), inspector.FormatJSON)
	if err != nil {
		t.Fatalf("ExportTable() error = %v", err)
	}

	var export inspector.TableExport
	if err := json.Unmarshal(out, &export); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(export.States) != 6 {
		t.Errorf("States len = %d, want 6", len(export.States))
	}
}

func TestDefaultInspector_ExportSession(t *testing.T) {
	store := recordedStore(t)
	defer store.Close()

	insp := NewDefaultInspector(NewTableExporter(nil), NewSessionExporter(store))

	out, err := insp.ExportSession(context.Background(), "s-1", inspector.FormatCSV)
	if err != nil {
		t.Fatalf("ExportSession() error = %v", err)
	}
	if !strings.Contains(string(out), "# Session: s-1") {
		t.Errorf("unexpected CSV:\n%s", out)
	}

	// XState describes the table only.
	_, err = insp.ExportSession(context.Background(), "s-1", inspector.FormatXState)
	if !errors.Is(err, inspector.ErrInvalidFormat) {
		t.Errorf("ExportSession(xstate) error = %v, want ErrInvalidFormat", err)
	}
}

func TestDefaultInspector_Errors(t *testing.T) {
	insp := NewDefaultInspector(nil, nil)

	if _, err := insp.ExportTable(context.Background(), inspector.FormatJSON); !errors.Is(err, inspector.ErrExportFailed) {
		t.Errorf("ExportTable() error = %v, want ErrExportFailed", err)
	}
	if _, err := insp.ExportSession(context.Background(), "s-1", inspector.FormatJSON); !errors.Is(err, inspector.ErrExportFailed) {
		t.Errorf("ExportSession() error = %v, want ErrExportFailed", err)
	}

	insp = NewDefaultInspector(NewTableExporter(nil), nil)
	if _, err := insp.ExportTable(context.Background(), inspector.ExportFormat("html")); !errors.Is(err, inspector.ErrInvalidFormat) {
		t.Errorf("ExportTable(html) error = %v, want ErrInvalidFormat", err)
	}
}
