package timeline

import (
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Summary aggregates the entries of one session.
type Summary struct {
	Session  string
	Changes  int
	Spurious int
	// Dwell is the time spent in each state between the first entry and End.
	Dwell map[presence.State]time.Duration
	Start time.Time
	End   time.Time
}

// Summarize aggregates entries, which must be in sequence order, up to end.
// A zero end uses the time of the last entry.
func Summarize(session string, entries []Entry, end time.Time) Summary {
	sum := Summary{
		Session: session,
		Dwell:   make(map[presence.State]time.Duration),
	}
	if len(entries) == 0 {
		return sum
	}

	if end.IsZero() {
		end = entries[len(entries)-1].At
	}
	sum.Start = entries[0].At
	sum.End = end

	for i, e := range entries {
		sum.Changes++
		if !e.Canonical {
			sum.Spurious++
		}
		until := end
		if i+1 < len(entries) {
			until = entries[i+1].At
		}
		if d := until.Sub(e.At); d > 0 {
			sum.Dwell[e.To] += d
		}
	}
	return sum
}
