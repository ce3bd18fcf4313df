package inspector

import (
	"context"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// MapperSource yields the mapper whose table is exported. A hot-reloading
// configuration watcher satisfies it.
type MapperSource interface {
	Mapper() *presence.Mapper
}

type staticMapper struct{ m *presence.Mapper }

func (s staticMapper) Mapper() *presence.Mapper { return s.m }

// Static wraps a fixed mapper as a MapperSource.
func Static(m *presence.Mapper) MapperSource {
	return staticMapper{m: m}
}

// TableExporter exports the presentation table and the transition chart.
type TableExporter struct {
	source MapperSource
}

// NewTableExporter creates a table exporter. A nil source exports the
// canonical table.
func NewTableExporter(source MapperSource) *TableExporter {
	if source == nil {
		source = Static(presence.DefaultMapper())
	}
	return &TableExporter{source: source}
}

// Export exports the table.
func (e *TableExporter) Export(ctx context.Context) (*inspector.TableExport, error) {
	mapper := e.source.Mapper()
	if mapper == nil {
		return nil, inspector.ErrNoData
	}

	export := &inspector.TableExport{
		Initial:  presence.InitialStates(),
		Fallback: presence.StateIdle,
	}

	for _, p := range mapper.Profiles() {
		export.States = append(export.States, stateExport(p))
	}

	for _, t := range presence.CanonicalTransitions() {
		export.Transitions = append(export.Transitions, inspector.TransitionExport{
			From:      t.From,
			To:        t.To,
			Label:     t.Label,
			Canonical: true,
		})
	}

	return export, nil
}

func stateExport(p presence.Profile) inspector.StateExport {
	return inspector.StateExport{
		Name:               p.State,
		Accent:             p.Accent,
		AccentHex:          p.AccentHex,
		StatusText:         p.StatusText,
		DescriptionText:    p.DescriptionText,
		AccessibilityText:  p.AccessibilityText,
		BaseAmplitude:      p.Animation.BaseAmplitude,
		PulsePeriodSeconds: p.Animation.PulsePeriodSeconds,
		Continuous:         p.Animation.Continuous,
		MinHeight:          p.Bars.MinHeight,
		MaxHeight:          p.Bars.MaxHeight,
		VisualizerHeight:   p.VisualizerHeight,
		Opacity:            p.Opacity,
		IsInitial:          p.State.IsInitial(),
	}
}

// Ensure TableExporter implements inspector.TableExporter
var _ inspector.TableExporter = (*TableExporter)(nil)
