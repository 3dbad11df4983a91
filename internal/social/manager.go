package social

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
)

// Recompute tuning.
const (
	RecentWindowDays = 3

	meetingDelta      = 6.0
	directMsgDelta    = 3.0
	loyalTalkDelta    = 1.0
	betrayalPenalty   = -15.0
	ballotPenalty     = -25.0
	idleGraceDays     = 7
	idleBasePenalty   = 1.0
	idlePenaltyPerDay = 0.25
	idlePenaltyCap    = 4.0
)

var loyalWords = []string{"trust", "loyal", "promise", "together"}

// State is everything UpdateAllianceTrust reads. It is never mutated.
type State struct {
	Day        int
	Alliances  []Alliance
	Eliminated func(agents.AgentID) bool
	Events     []memory.Event
}

// Change explains what a recompute did to one alliance.
type Change struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Before    float64  `json:"before"`
	After     float64  `json:"after"`
	Reasons   []string `json:"reasons,omitempty"`
	Dissolved bool     `json:"dissolved"`
}

// Result is the outcome of one recompute. Active holds every live alliance;
// Dissolved holds every dissolved one, including those dissolved earlier.
type Result struct {
	Active    []Alliance `json:"active"`
	Dissolved []Alliance `json:"dissolved"`
	Changes   []Change   `json:"changes"`
}

// All returns active then dissolved alliances.
func (r Result) All() []Alliance {
	return append(append([]Alliance(nil), r.Active...), r.Dissolved...)
}

// UpdateAllianceTrust recomputes every alliance's strength for s.Day. Events
// already credited by an earlier recompute are skipped, so running it twice
// on the same day changes nothing the second time.
func UpdateAllianceTrust(s State) Result {
	var res Result
	for _, in := range s.Alliances {
		a := in.clone()
		if a.Dissolved {
			res.Dissolved = append(res.Dissolved, a)
			continue
		}

		ch := Change{ID: a.ID, Name: a.Name, Before: a.Strength}
		active := a.ActiveMembers(s.Eliminated)
		if len(active) <= 1 {
			a.Dissolved = true
			a.Strength = 0
			a.LastRecomputedDay = max(a.LastRecomputedDay, s.Day)
			ch.After, ch.Dissolved = 0, true
			ch.Reasons = append(ch.Reasons, "too few active members")
			res.Dissolved = append(res.Dissolved, a)
			res.Changes = append(res.Changes, ch)
			continue
		}
		if a.LastRecomputedDay >= s.Day {
			res.Active = append(res.Active, a)
			continue
		}

		delta, reasons, lastActive := scoreWindow(a, active, s)
		if lastActive > a.LastActivityDay {
			a.LastActivityDay = lastActive
		}
		if idle := s.Day - a.LastActivityDay; idle > idleGraceDays {
			p := math.Min(idleBasePenalty+idlePenaltyPerDay*float64(idle-idleGraceDays), idlePenaltyCap)
			delta -= p
			reasons = append(reasons, fmt.Sprintf("idle %d days", idle))
		}

		a.Strength = clampStrength(a.Strength + delta)
		a.LastRecomputedDay = s.Day
		ch.After = a.Strength
		ch.Reasons = reasons

		if a.Strength <= 0 {
			a.Dissolved = true
			ch.Dissolved = true
			res.Dissolved = append(res.Dissolved, a)
		} else {
			res.Active = append(res.Active, a)
		}
		if ch.After != ch.Before || ch.Dissolved {
			res.Changes = append(res.Changes, ch)
		}
	}
	return res
}

// scoreWindow sums the deltas from events not yet credited and inside the
// recent window. lastActive is the latest day of a positive interaction.
func scoreWindow(a Alliance, active []agents.AgentID, s State) (delta float64, reasons []string, lastActive int) {
	from := max(a.LastRecomputedDay+1, s.Day-RecentWindowDays)
	for _, e := range s.Events {
		if e.Day < from || e.Day > s.Day {
			continue
		}

		if voter, target, ok := e.Ballot(); ok {
			if a.HasMember(voter) && a.HasMember(target) {
				delta += ballotPenalty
				reasons = append(reasons, fmt.Sprintf("%s voted against %s", voter, target))
			}
			continue
		}

		if countMembers(e, active) < 2 {
			continue
		}
		switch e.Type {
		case memory.AllianceMeet:
			delta += meetingDelta
			lastActive = max(lastActive, e.Day)
			reasons = append(reasons, "meeting")
		case memory.DirectMessage:
			delta += directMsgDelta
			lastActive = max(lastActive, e.Day)
			reasons = append(reasons, "direct message")
		case memory.Conversation:
			if mentionsLoyalty(e.Content) {
				delta += loyalTalkDelta
				lastActive = max(lastActive, e.Day)
				reasons = append(reasons, "loyal talk")
			}
		case memory.Betrayal:
			delta += betrayalPenalty
			reasons = append(reasons, "betrayal")
		}
	}
	return delta, reasons, lastActive
}

func countMembers(e memory.Event, members []agents.AgentID) int {
	n := 0
	for _, m := range members {
		if e.Involves(m) {
			n++
		}
	}
	return n
}

func mentionsLoyalty(content string) bool {
	lower := strings.ToLower(content)
	for _, w := range loyalWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
