package inspector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
)

// SessionExporter exports recorded sessions from a timeline store.
type SessionExporter struct {
	store timeline.Store
}

// NewSessionExporter creates a new session exporter.
func NewSessionExporter(store timeline.Store) *SessionExporter {
	return &SessionExporter{store: store}
}

// Export exports one session.
func (e *SessionExporter) Export(ctx context.Context, session string) (*inspector.SessionExport, error) {
	entries, err := e.store.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", inspector.ErrExportFailed, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", inspector.ErrSessionNotFound, session)
	}

	summary := timeline.Summarize(session, entries, time.Time{})

	return &inspector.SessionExport{
		Session:     session,
		Entries:     entries,
		Transitions: buildTransitions(entries),
		Metrics: inspector.SessionMetrics{
			TotalDuration: summary.End.Sub(summary.Start),
			ChangeCount:   summary.Changes,
			SpuriousCount: summary.Spurious,
			TimeInState:   summary.Dwell,
		},
	}, nil
}

// buildTransitions counts traversals per edge, canonical edges first in
// chart order, then out-of-order edges sorted by name.
func buildTransitions(entries []timeline.Entry) []inspector.TransitionExport {
	type edge struct{ from, to presence.State }
	counts := make(map[edge]int)
	for _, e := range entries {
		counts[edge{e.From, e.To}]++
	}

	var out []inspector.TransitionExport
	for _, t := range presence.CanonicalTransitions() {
		k := edge{t.From, t.To}
		if n := counts[k]; n > 0 {
			out = append(out, inspector.TransitionExport{
				From: t.From, To: t.To, Label: t.Label, Canonical: true, Count: n,
			})
			delete(counts, k)
		}
	}

	var rest []inspector.TransitionExport
	for k, n := range counts {
		rest = append(rest, inspector.TransitionExport{
			From: k.from, To: k.to, Canonical: presence.IsCanonical(k.from, k.to), Count: n,
		})
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].From != rest[j].From {
			return rest[i].From < rest[j].From
		}
		return rest[i].To < rest[j].To
	})

	return append(out, rest...)
}

// Ensure SessionExporter implements inspector.SessionExporter
var _ inspector.SessionExporter = (*SessionExporter)(nil)
