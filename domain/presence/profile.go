package presence

import "time"

// Accent is a semantic color token. Renderers map tokens to concrete colors;
// AccentHex on the profile carries the suggested value.
type Accent string

// Accent palette, one token per state.
const (
	AccentNeutralGray Accent = "neutral-gray"
	AccentAmber       Accent = "amber"
	AccentBlue        Accent = "blue"
	AccentPurple      Accent = "purple"
	AccentGreen       Accent = "green"
	AccentMutedGray   Accent = "muted-gray"
)

// Animation describes the ambient motion of the indicator.
type Animation struct {
	// BaseAmplitude is the motion intensity in [0,1].
	BaseAmplitude float64 `json:"base_amplitude"`

	// PulsePeriodSeconds is the length of one pulse cycle. Zero means no pulse.
	PulsePeriodSeconds float64 `json:"pulse_period_seconds"`

	// Continuous reports whether the indicator keeps moving while the state holds.
	Continuous bool `json:"continuous"`
}

// PulsePeriod returns the pulse period as a duration.
func (a Animation) PulsePeriod() time.Duration {
	return time.Duration(a.PulsePeriodSeconds * float64(time.Second))
}

// BarRange bounds the heights fed to the audio-bar visualizer.
type BarRange struct {
	MinHeight int `json:"min_height"`
	MaxHeight int `json:"max_height"`
}

// Span returns MaxHeight - MinHeight.
func (r BarRange) Span() int {
	return r.MaxHeight - r.MinHeight
}

// Valid returns true if 0 < MinHeight < MaxHeight.
func (r BarRange) Valid() bool {
	return r.MinHeight > 0 && r.MaxHeight > r.MinHeight
}

// Profile is the presentation derived from a state. It is a plain value:
// two profiles derived from the same input compare equal with ==.
type Profile struct {
	State             State     `json:"state"`
	Accent            Accent    `json:"accent"`
	AccentHex         string    `json:"accent_hex"`
	StatusText        string    `json:"status_text"`
	DescriptionText   string    `json:"description_text"`
	AccessibilityText string    `json:"accessibility_text"`
	Animation         Animation `json:"animation"`
	Bars              BarRange  `json:"bars"`

	// VisualizerHeight is the current bar height, always within Bars.
	VisualizerHeight int `json:"visualizer_height"`

	// Opacity applies to the visualizer; reduced for disconnected.
	Opacity float64 `json:"opacity"`
}

// IsComplete returns true if every field a renderer relies on is populated.
func (p Profile) IsComplete() bool {
	return p.State.IsValid() &&
		p.Accent != "" &&
		p.AccentHex != "" &&
		p.StatusText != "" &&
		p.DescriptionText != "" &&
		p.AccessibilityText != "" &&
		p.Bars.Valid() &&
		p.VisualizerHeight >= p.Bars.MinHeight &&
		p.VisualizerHeight <= p.Bars.MaxHeight &&
		p.Opacity > 0
}
