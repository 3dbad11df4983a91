package memory

import (
	"errors"
	"fmt"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/balance"
)

var (
	// ErrUnknownParticipant means an event named an agent with no journal.
	ErrUnknownParticipant = errors.New("unknown event participant")
	// ErrNoJournal means a journal operation targeted an agent with no journal.
	ErrNoJournal = errors.New("no journal for agent")
	// ErrOutOfOrder means an event was dated before the last recorded day.
	ErrOutOfOrder = errors.New("event day precedes recorded history")
	// ErrUnknownPromise means a promise id does not exist in the journal.
	ErrUnknownPromise = errors.New("unknown promise")
	// ErrUnknownGossip means a gossip id does not exist in the ledger.
	ErrUnknownGossip = errors.New("unknown gossip entry")
)

// Journal score multipliers applied by RecordEvent.
const (
	threatPerImpact = 2.0
	bondPerImpact   = 2.0
	treacheryFactor = 2.0
)

// Store owns the shared event log, every journal, and the gossip ledger.
type Store struct {
	log      []Event
	journals map[agents.AgentID]*Journal
	order    []agents.AgentID
	gossip   []*Gossip
	nextSeq  int64
	lastDay  int
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset clears all state. Only used at a new game boundary.
func (s *Store) Reset() {
	s.log = nil
	s.journals = make(map[agents.AgentID]*Journal)
	s.order = nil
	s.gossip = nil
	s.nextSeq = 1
	s.lastDay = 0
}

// InitializeJournals creates an empty journal for each id that lacks one.
func (s *Store) InitializeJournals(ids []agents.AgentID) {
	for _, id := range ids {
		if _, ok := s.journals[id]; ok {
			continue
		}
		s.journals[id] = newJournal(id)
		s.order = append(s.order, id)
	}
}

// RecordEvent validates e, assigns its sequence number, appends it to the
// shared log and to every participant's journal, and updates journal threat
// and bond scores. Impact and importance are clamped to their ranges.
func (s *Store) RecordEvent(e Event) (Event, error) {
	if e.Day < s.lastDay {
		return Event{}, fmt.Errorf("record %s on day %d after day %d: %w", e.Type, e.Day, s.lastDay, ErrOutOfOrder)
	}

	participants := make([]agents.AgentID, 0, len(e.Participants))
	seen := make(map[agents.AgentID]bool, len(e.Participants))
	for _, p := range e.Participants {
		if seen[p] {
			continue
		}
		if _, ok := s.journals[p]; !ok {
			return Event{}, fmt.Errorf("record %s: %q: %w", e.Type, p, ErrUnknownParticipant)
		}
		seen[p] = true
		participants = append(participants, p)
	}

	e.Participants = participants
	e.Impact = balance.Clamp(e.Impact, balance.ImpactMin, balance.ImpactMax)
	e.Importance = balance.Clamp(e.Importance, balance.ImportanceMin, balance.ImportanceMax)
	if e.Reliability == "" {
		e.Reliability = Confirmed
	}
	e.Seq = s.nextSeq
	s.nextSeq++
	s.lastDay = e.Day

	s.log = append(s.log, e)
	for _, p := range participants {
		j := s.journals[p]
		j.Events = append(j.Events, e)
		for _, other := range participants {
			if other == p {
				continue
			}
			applyScores(j, other, e)
		}
	}
	return e, nil
}

func applyScores(j *Journal, other agents.AgentID, e Event) {
	switch {
	case e.Impact < 0:
		delta := -e.Impact * threatPerImpact
		if e.Type == Betrayal || e.Type == Scheme {
			delta *= treacheryFactor
		}
		j.Threat[other] = balance.Clamp(j.Threat[other]+delta, balance.ScoreMin, balance.ScoreMax)
	case e.Impact > 0:
		j.Bond[other] = balance.Clamp(j.Bond[other]+e.Impact*bondPerImpact, balance.ScoreMin, balance.ScoreMax)
	}
}

// Events returns a copy of the shared log in insertion order.
func (s *Store) Events() []Event {
	return append([]Event(nil), s.log...)
}

// Len returns the number of recorded events.
func (s *Store) Len() int {
	return len(s.log)
}

// LastDay returns the day of the most recent event.
func (s *Store) LastDay() int {
	return s.lastDay
}

// Journal returns a copy of id's journal.
func (s *Store) Journal(id agents.AgentID) (Journal, error) {
	j, ok := s.journals[id]
	if !ok {
		return Journal{}, fmt.Errorf("journal %q: %w", id, ErrNoJournal)
	}
	return j.clone(), nil
}

// HasJournal reports whether id has a journal.
func (s *Store) HasJournal(id agents.AgentID) bool {
	_, ok := s.journals[id]
	return ok
}

// Plan returns id's active voting plan. Unknown agents have no plan.
func (s *Store) Plan(id agents.AgentID) VotingPlan {
	if j, ok := s.journals[id]; ok {
		return j.Plan
	}
	return VotingPlan{}
}

func (s *Store) journal(id agents.AgentID) (*Journal, error) {
	j, ok := s.journals[id]
	if !ok {
		return nil, fmt.Errorf("journal %q: %w", id, ErrNoJournal)
	}
	return j, nil
}

// UpdateVotingPlan overwrites id's plan. Last write wins.
func (s *Store) UpdateVotingPlan(id, target agents.AgentID, prov Provenance) error {
	j, err := s.journal(id)
	if err != nil {
		return err
	}
	j.Plan = VotingPlan{Target: target, Provenance: prov}
	return nil
}

// SetStrategy replaces id's strategy text.
func (s *Store) SetStrategy(id agents.AgentID, strategy string) error {
	j, err := s.journal(id)
	if err != nil {
		return err
	}
	j.Strategy = strategy
	return nil
}

// AddGoal appends a goal unless it is already present.
func (s *Store) AddGoal(id agents.AgentID, goal string) error {
	j, err := s.journal(id)
	if err != nil {
		return err
	}
	for _, g := range j.Goals {
		if g == goal {
			return nil
		}
	}
	j.Goals = append(j.Goals, goal)
	return nil
}

// AddNote appends a note about another agent.
func (s *Store) AddNote(id, about agents.AgentID, note string) error {
	j, err := s.journal(id)
	if err != nil {
		return err
	}
	j.Notes[about] = append(j.Notes[about], note)
	return nil
}

// MakePromise records a pending promise from id to another agent and returns
// its id within the journal.
func (s *Store) MakePromise(id, to agents.AgentID, text string, day int) (int, error) {
	j, err := s.journal(id)
	if err != nil {
		return 0, err
	}
	if _, ok := s.journals[to]; !ok {
		return 0, fmt.Errorf("promise to %q: %w", to, ErrUnknownParticipant)
	}
	p := Promise{ID: len(j.Promises) + 1, To: to, Text: text, Day: day, State: PromisePending}
	j.Promises = append(j.Promises, p)
	return p.ID, nil
}

// ResolvePromise marks a pending promise kept or broken. Resolving an already
// resolved promise leaves it unchanged.
func (s *Store) ResolvePromise(id agents.AgentID, promiseID int, kept bool) (Promise, error) {
	j, err := s.journal(id)
	if err != nil {
		return Promise{}, err
	}
	for i := range j.Promises {
		p := &j.Promises[i]
		if p.ID != promiseID {
			continue
		}
		if p.State == PromisePending {
			if kept {
				p.State = PromiseKept
			} else {
				p.State = PromiseBroken
			}
		}
		return *p, nil
	}
	return Promise{}, fmt.Errorf("promise %d for %q: %w", promiseID, id, ErrUnknownPromise)
}

// AddSecret stores a secret in id's journal.
func (s *Store) AddSecret(id agents.AgentID, secret Secret) error {
	j, err := s.journal(id)
	if err != nil {
		return err
	}
	secret.About = append([]agents.AgentID(nil), secret.About...)
	j.Secrets = append(j.Secrets, secret)
	return nil
}
