package presence

import "math"

// Mapper derives profiles from a fixed table. A Mapper holds no mutable
// state and is safe for concurrent use.
type Mapper struct {
	table Table
}

// NewMapper creates a mapper over the given table. Callers tuning the table
// should run Table.Validate first; the mapper does not.
func NewMapper(table Table) *Mapper {
	return &Mapper{table: table}
}

// DefaultMapper returns a mapper over the canonical table.
func DefaultMapper() *Mapper {
	return &Mapper{table: defaultTable}
}

// Table returns a copy of the mapper's table.
func (m *Mapper) Table() Table {
	return m.table
}

// Derive returns the profile for a state using the state's static amplitude.
func (m *Mapper) Derive(s State) Profile {
	spec := m.table.Spec(s)
	p := newProfile(spec)
	if spec.Continuous {
		p.Animation.BaseAmplitude = spec.BaseAmplitude
		p.VisualizerHeight = heightAt(spec.Bars, spec.BaseAmplitude)
	}
	return p
}

// DeriveWithActivity returns the profile for a state with amplitude and bar
// height scaled by an activity level. Activity is clamped to [0,1].
func (m *Mapper) DeriveWithActivity(s State, activity float64) Profile {
	spec := m.table.Spec(s)
	p := newProfile(spec)
	if spec.Continuous {
		a := ClampActivity(activity)
		p.Animation.BaseAmplitude = spec.BaseAmplitude * a
		p.VisualizerHeight = heightAt(spec.Bars, a)
	}
	return p
}

// Profiles returns the static profile of every canonical state in table order.
func (m *Mapper) Profiles() []Profile {
	states := AllStates()
	profiles := make([]Profile, 0, len(states))
	for _, s := range states {
		profiles = append(profiles, m.Derive(s))
	}
	return profiles
}

// newProfile fills every field that does not depend on activity. Amplitude
// starts at zero and the bars at their minimum, which is the final answer
// for non-continuous states.
func newProfile(spec Spec) Profile {
	return Profile{
		State:             spec.State,
		Accent:            spec.Accent,
		AccentHex:         spec.AccentHex,
		StatusText:        spec.StatusText,
		DescriptionText:   spec.DescriptionText,
		AccessibilityText: spec.AccessibilityText,
		Animation: Animation{
			PulsePeriodSeconds: spec.PulsePeriodSeconds,
			Continuous:         spec.Continuous,
		},
		Bars:             spec.Bars,
		VisualizerHeight: spec.Bars.MinHeight,
		Opacity:          spec.Opacity,
	}
}

func heightAt(r BarRange, level float64) int {
	return r.MinHeight + int(math.Round(level*float64(r.Span())))
}

// ClampActivity bounds an activity level to [0,1]. NaN maps to 0.
func ClampActivity(a float64) float64 {
	switch {
	case math.IsNaN(a), a <= 0:
		return 0
	case a >= 1:
		return 1
	default:
		return a
	}
}

// Derive returns the profile for a state from the canonical table.
func Derive(s State) Profile {
	return defaultMapper.Derive(s)
}

// DeriveWithActivity returns the profile for a state from the canonical
// table, scaled by an activity level.
func DeriveWithActivity(s State, activity float64) Profile {
	return defaultMapper.DeriveWithActivity(s, activity)
}

// DeriveUpdate derives the profile for an update, using its activity when set.
func (m *Mapper) DeriveUpdate(u Update) Profile {
	if u.Activity != nil {
		return m.DeriveWithActivity(u.State, *u.Activity)
	}
	return m.Derive(u.State)
}

var defaultMapper = DefaultMapper()
