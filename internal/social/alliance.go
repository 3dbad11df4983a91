// Package social tracks alliances: named coalitions of contestants whose
// collective strength rises with shared activity and collapses on betrayal.
package social

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/balance"
)

var (
	// ErrTooFewMembers means fewer than two distinct active agents were named.
	ErrTooFewMembers = errors.New("alliance needs at least two active members")
	// ErrInactiveMember means an eliminated or unknown agent was named.
	ErrInactiveMember = errors.New("alliance member is not an active contestant")
	// ErrDuplicateAlliance means an identical alliance already exists.
	ErrDuplicateAlliance = errors.New("alliance already exists")
)

// InitialStrength is the strength of a freshly formed alliance.
const InitialStrength = 50.0

var allianceSpace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9c41-2e5d7f90ab13")

// Alliance is a named coalition. It owns all of its metadata.
type Alliance struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Members           []agents.AgentID `json:"members"`
	Secret            bool             `json:"secret"`
	Strength          float64          `json:"strength"`
	FormedDay         int              `json:"formed_day"`
	LastActivityDay   int              `json:"last_activity_day"`
	LastRecomputedDay int              `json:"last_recomputed_day"`
	Dissolved         bool             `json:"dissolved"`
}

// Form validates members and builds a new alliance. active reports whether an
// agent is still in the game. The ID is derived from the name, day, and
// sorted member list, so the same formation always yields the same ID.
func Form(name string, members []agents.AgentID, secret bool, day int, active func(agents.AgentID) bool) (Alliance, error) {
	var distinct []agents.AgentID
	for _, m := range members {
		if slices.Contains(distinct, m) {
			continue
		}
		if active != nil && !active(m) {
			return Alliance{}, fmt.Errorf("form %q with %s: %w", name, m, ErrInactiveMember)
		}
		distinct = append(distinct, m)
	}
	if len(distinct) < 2 {
		return Alliance{}, fmt.Errorf("form %q: %w", name, ErrTooFewMembers)
	}
	if strings.TrimSpace(name) == "" {
		name = defaultName(distinct)
	}

	return Alliance{
		ID:                allianceID(name, day, distinct),
		Name:              name,
		Members:           distinct,
		Secret:            secret,
		Strength:          InitialStrength,
		FormedDay:         day,
		LastActivityDay:   day,
		LastRecomputedDay: day - 1,
	}, nil
}

func allianceID(name string, day int, members []agents.AgentID) string {
	sorted := make([]string, len(members))
	for i, m := range members {
		sorted[i] = string(m)
	}
	slices.Sort(sorted)
	key := fmt.Sprintf("%d|%s|%s", day, strings.ToLower(name), strings.Join(sorted, ","))
	return uuid.NewSHA1(allianceSpace, []byte(key)).String()
}

func defaultName(members []agents.AgentID) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = string(m)
	}
	return "The " + strings.Join(parts, "-") + " Pact"
}

// HasMember reports whether id belongs to the alliance.
func (a Alliance) HasMember(id agents.AgentID) bool {
	return slices.Contains(a.Members, id)
}

// ActiveMembers returns members that are not eliminated.
func (a Alliance) ActiveMembers(eliminated func(agents.AgentID) bool) []agents.AgentID {
	var out []agents.AgentID
	for _, m := range a.Members {
		if eliminated == nil || !eliminated(m) {
			out = append(out, m)
		}
	}
	return out
}

func (a Alliance) clone() Alliance {
	a.Members = append([]agents.AgentID(nil), a.Members...)
	return a
}

// Containing returns the live alliances id belongs to.
func Containing(list []Alliance, id agents.AgentID) []Alliance {
	var out []Alliance
	for _, a := range list {
		if !a.Dissolved && a.HasMember(id) {
			out = append(out, a)
		}
	}
	return out
}

// Shared returns the live alliances both a and b belong to.
func Shared(list []Alliance, a, b agents.AgentID) []Alliance {
	var out []Alliance
	for _, al := range list {
		if !al.Dissolved && al.HasMember(a) && al.HasMember(b) {
			out = append(out, al)
		}
	}
	return out
}

// Live returns the alliances that are not dissolved.
func Live(list []Alliance) []Alliance {
	var out []Alliance
	for _, a := range list {
		if !a.Dissolved {
			out = append(out, a)
		}
	}
	return out
}

func clampStrength(v float64) float64 {
	return balance.Clamp(v, balance.StrengthMin, balance.StrengthMax)
}
