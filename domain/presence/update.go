package presence

import "time"

// Update is one state delivery from the session driver.
type Update struct {
	// State is the reported state, possibly unrecognised.
	State State `json:"state"`

	// Activity is the momentary audio energy in [0,1], when the driver has one.
	Activity *float64 `json:"activity,omitempty"`

	// Session identifies the driver session, if known.
	Session string `json:"session,omitempty"`

	// At is when the driver observed the state.
	At time.Time `json:"t,omitempty"`
}

// NewUpdate creates an update for a state observed now.
func NewUpdate(s State) Update {
	return Update{State: s, At: time.Now()}
}

// WithActivity returns a copy of the update carrying an activity level.
func (u Update) WithActivity(a float64) Update {
	u.Activity = &a
	return u
}

// ActivityLevel returns the clamped activity and whether one was supplied.
func (u Update) ActivityLevel() (float64, bool) {
	if u.Activity == nil {
		return 0, false
	}
	return ClampActivity(*u.Activity), true
}
