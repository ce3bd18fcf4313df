package presence

// Transition is a documented edge between two presence states.
type Transition struct {
	From  State  `json:"from"`
	To    State  `json:"to"`
	Label string `json:"label,omitempty"`
}

// canonicalTransitions is the documented chart. The session driver owns
// transition legality; edges outside this list are still accepted by every
// consumer and only reported as out of order.
var canonicalTransitions = []Transition{
	{From: StateDisconnected, To: StateConnecting, Label: "session requested"},
	{From: StateDisconnected, To: StateIdle, Label: "session resumed"},

	{From: StateConnecting, To: StateIdle, Label: "connected"},
	{From: StateConnecting, To: StateListening, Label: "connected"},
	{From: StateConnecting, To: StateDisconnected, Label: "connect failed"},

	{From: StateIdle, To: StateListening},
	{From: StateIdle, To: StateSpeaking, Label: "greeting"},
	{From: StateIdle, To: StateDisconnected, Label: "session closed"},

	{From: StateListening, To: StateThinking, Label: "end of turn"},
	{From: StateListening, To: StateIdle},
	{From: StateListening, To: StateDisconnected, Label: "session closed"},

	{From: StateThinking, To: StateSpeaking},
	{From: StateThinking, To: StateListening, Label: "no reply"},
	{From: StateThinking, To: StateIdle},
	{From: StateThinking, To: StateDisconnected, Label: "session closed"},

	{From: StateSpeaking, To: StateListening, Label: "turn handed back"},
	{From: StateSpeaking, To: StateThinking, Label: "tool call"},
	{From: StateSpeaking, To: StateIdle},
	{From: StateSpeaking, To: StateDisconnected, Label: "session closed"},
}

// CanonicalTransitions returns a copy of the documented transition chart.
func CanonicalTransitions() []Transition {
	out := make([]Transition, len(canonicalTransitions))
	copy(out, canonicalTransitions)
	return out
}

// IsCanonical returns true if from → to is a documented edge.
func IsCanonical(from, to State) bool {
	for _, t := range canonicalTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the documented targets reachable from a state.
func TransitionsFrom(from State) []State {
	var targets []State
	for _, t := range canonicalTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	return targets
}
