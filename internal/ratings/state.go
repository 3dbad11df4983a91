package ratings

import (
	"fmt"

	"github.com/talgya/castaway/internal/balance"
)

// Entry is one point in the rating history.
type Entry struct {
	Day    int     `json:"day"`
	Rating float64 `json:"rating"`
	Reason string  `json:"reason"`
}

// State is the current rating and its append-only history.
type State struct {
	Current float64 `json:"current"`
	History []Entry `json:"history"`
}

// NewState starts at the baseline with an empty history.
func NewState() *State {
	return &State{Current: balance.RatingBaseline}
}

// Record sets the rating and appends to the history.
func (s *State) Record(day int, u Update) error {
	if n := len(s.History); n > 0 && day < s.History[n-1].Day {
		return fmt.Errorf("record rating on day %d after day %d: %w", day, s.History[n-1].Day, ErrOutOfOrder)
	}
	s.Current = balance.ClampRating(u.Value)
	s.History = append(s.History, Entry{Day: day, Rating: s.Current, Reason: u.Reason})
	return nil
}

// Recent returns up to n latest entries, oldest first.
func (s *State) Recent(n int) []Entry {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := max(len(s.History)-n, 0)
	return append([]Entry(nil), s.History[start:]...)
}

// Trend is the change over the last n entries.
func (s *State) Trend(n int) float64 {
	recent := s.Recent(n + 1)
	if len(recent) < 2 {
		return 0
	}
	return recent[len(recent)-1].Rating - recent[0].Rating
}
