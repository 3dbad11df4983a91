// Package interrupt proposes emergent events during time skips and turns the
// player's response into relationship deltas and memories. While an event is
// pending the game cannot advance.
package interrupt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/castaway/internal/agents"
)

var (
	// ErrNoPendingEvent means a choice arrived with nothing awaiting one.
	ErrNoPendingEvent = errors.New("no emergent event is pending")
	// ErrInvalidChoice means the choice was neither de-escalate nor engage.
	ErrInvalidChoice = errors.New("choice must be deescalate or engage")
)

// Category is the kind of emergent event.
type Category string

const (
	Drama          Category = "drama"
	AllianceCrisis Category = "alliance_crisis"
	CheckIn        Category = "npc_check_in"
	Panic          Category = "pre_elimination_panic"
	Production     Category = "production"
)

// Conflict reports whether the category resolves with conflict rules.
func (c Category) Conflict() bool {
	return c == Drama || c == AllianceCrisis || c == Panic
}

// Choice is the player's binary response.
type Choice string

const (
	Deescalate Choice = "deescalate"
	Engage     Choice = "engage"
)

// ParseChoice accepts a few spellings of the two choices.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deescalate", "de-escalate", "de_escalate", "calm":
		return Deescalate, nil
	case "engage", "engage_head_on", "engage-head-on", "confront":
		return Engage, nil
	}
	return "", fmt.Errorf("parse choice %q: %w", s, ErrInvalidChoice)
}

// Event is a transient interruption awaiting a player decision. Only its
// consequences are durable.
type Event struct {
	ID          string           `json:"id"`
	Day         int              `json:"day"`
	Category    Category         `json:"category"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Involved    []agents.AgentID `json:"involved"`
	Impact      string           `json:"impact"`
}

// Favored is the agent an engage choice sides with.
func (e Event) Favored() agents.AgentID {
	if len(e.Involved) == 0 {
		return ""
	}
	return e.Involved[0]
}

var eventSpace = uuid.MustParse("a3d9e1b4-52c7-4f08-8e6a-1b7c90d4f265")

func eventID(day int, c Category, involved []agents.AgentID) string {
	parts := make([]string, len(involved))
	for i, id := range involved {
		parts[i] = string(id)
	}
	key := fmt.Sprintf("%d|%s|%s", day, c, strings.Join(parts, ","))
	return uuid.NewSHA1(eventSpace, []byte(key)).String()
}
