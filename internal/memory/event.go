// Package memory is the event-sourced record of the game: a shared event log,
// one private journal per agent, and a gossip ledger. RecordEvent is the only
// way events enter the system.
package memory

import (
	"slices"

	"github.com/talgya/castaway/internal/agents"
)

// EventType classifies a memory event.
type EventType string

const (
	AllianceForm   EventType = "alliance_form"
	AllianceMeet   EventType = "alliance_meeting"
	Betrayal       EventType = "betrayal"
	Vote           EventType = "vote"
	Scheme         EventType = "scheme"
	Confessional   EventType = "confessional"
	Conversation   EventType = "conversation"
	DirectMessage  EventType = "direct_message"
	PromiseMade    EventType = "promise"
	SecretShared   EventType = "secret"
	GossipSpread   EventType = "gossip"
	EmergentEvent  EventType = "emergent_event"
	EliminationOut EventType = "elimination"
)

// Reliability describes how trustworthy a piece of information is.
type Reliability string

const (
	Confirmed   Reliability = "confirmed"
	Rumor       Reliability = "rumor"
	Speculation Reliability = "speculation"
	Lie         Reliability = "lie"
)

// Event is an immutable record of something that happened.
type Event struct {
	Seq          int64            `json:"seq"`
	Day          int              `json:"day"`
	Type         EventType        `json:"type"`
	Participants []agents.AgentID `json:"participants"`
	Content      string           `json:"content"`
	Impact       float64          `json:"impact"` // -10 to 10
	Reliability  Reliability      `json:"reliability"`
	Importance   float64          `json:"importance"` // 0 to 10
}

// Involves reports whether id took part in the event.
func (e Event) Involves(id agents.AgentID) bool {
	return slices.Contains(e.Participants, id)
}

// InvolvesAll reports whether every id took part in the event.
func (e Event) InvolvesAll(ids ...agents.AgentID) bool {
	for _, id := range ids {
		if !e.Involves(id) {
			return false
		}
	}
	return true
}

// Ballot reads a vote event as voter -> target. Vote events always list the
// voter first and the target second.
func (e Event) Ballot() (voter, target agents.AgentID, ok bool) {
	if e.Type != Vote || len(e.Participants) != 2 {
		return "", "", false
	}
	return e.Participants[0], e.Participants[1], true
}

// NewBallot builds the vote event for voter casting a ballot against target.
func NewBallot(day int, voter, target agents.AgentID, content string) Event {
	return Event{
		Day:          day,
		Type:         Vote,
		Participants: []agents.AgentID{voter, target},
		Content:      content,
		Impact:       -3,
		Reliability:  Confirmed,
		Importance:   7,
	}
}
