package memory

import (
	"slices"

	"github.com/talgya/castaway/internal/agents"
)

// Filter selects events. Zero-valued fields match everything; ToDay 0 means
// no upper bound.
type Filter struct {
	Participants  []agents.AgentID
	Types         []EventType
	FromDay       int
	ToDay         int
	MinImportance float64
	Reliability   []Reliability
}

// Match reports whether e passes the filter. An event matches the participant
// set if it involves any of them.
func (f Filter) Match(e Event) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if e.Day < f.FromDay {
		return false
	}
	if f.ToDay > 0 && e.Day > f.ToDay {
		return false
	}
	if e.Importance < f.MinImportance {
		return false
	}
	if len(f.Reliability) > 0 && !slices.Contains(f.Reliability, e.Reliability) {
		return false
	}
	if len(f.Participants) > 0 {
		hit := false
		for _, p := range f.Participants {
			if e.Involves(p) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Query returns the events matching f in insertion order.
func (s *Store) Query(f Filter) []Event {
	var out []Event
	for _, e := range s.log {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// OnDay returns every event recorded for day.
func (s *Store) OnDay(day int) []Event {
	return s.Query(Filter{FromDay: day, ToDay: day})
}
