// Read-only views handed to presentation collaborators. Nothing here
// mutates the simulation.
package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/balance"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
)

// recentSummaries caps how many past interactions a reply context carries.
const recentSummaries = 5

// Status is the top-level game view.
type Status struct {
	Day                int              `json:"day"`
	Week               int              `json:"week"`
	NextElimination    int              `json:"next_elimination"`
	Rating             float64          `json:"rating"`
	RatingTrend        float64          `json:"rating_trend"`
	Active             int              `json:"active"`
	Immune             agents.AgentID   `json:"immune,omitempty"`
	Alliances          int              `json:"alliances"`
	Events             int              `json:"events"`
	Pending            *interrupt.Event `json:"pending,omitempty"`
	LastEliminationDay int              `json:"last_elimination_day,omitempty"`
	GameOver           bool             `json:"game_over"`
	Winner             agents.AgentID   `json:"winner,omitempty"`
}

// Status returns the current game overview.
func (s *Simulation) Status() Status {
	st := Status{
		Day:                s.Day,
		Week:               s.Week(),
		NextElimination:    s.NextElimination(),
		Rating:             s.Ratings.Current,
		RatingTrend:        s.Ratings.Trend(7),
		Active:             len(s.Active()),
		Immune:             s.Immune,
		Alliances:          len(s.LiveAlliances()),
		Events:             s.Memory.Len(),
		LastEliminationDay: s.LastEliminationDay,
		GameOver:           s.GameOver,
		Winner:             s.Winner,
	}
	if ev, ok := s.Interruptor.Pending(); ok {
		st.Pending = &ev
	}
	return st
}

// AgentSummary is one contestant as the player sees them. Trust, Suspicion
// and Closeness are the contestant's stance toward the player.
type AgentSummary struct {
	ID            agents.AgentID `json:"id"`
	Name          string         `json:"name"`
	Archetype     string         `json:"archetype,omitempty"`
	IsPlayer      bool           `json:"is_player"`
	Traits        []agents.Trait `json:"traits,omitempty"`
	Trust         float64        `json:"trust"`
	Suspicion     float64        `json:"suspicion"`
	Closeness     float64        `json:"closeness"`
	Standing      float64        `json:"standing"`
	Alliances     []string       `json:"alliances,omitempty"`
	Immune        bool           `json:"immune,omitempty"`
	Eliminated    bool           `json:"eliminated"`
	EliminatedDay int            `json:"eliminated_day,omitempty"`
}

// AgentSummaries summarizes every contestant in cast order.
func (s *Simulation) AgentSummaries() []AgentSummary {
	out := make([]AgentSummary, 0, len(s.Agents))
	for _, a := range s.Agents {
		out = append(out, s.summarize(a))
	}
	return out
}

func (s *Simulation) summarize(a *agents.Agent) AgentSummary {
	sum := AgentSummary{
		ID:            a.ID,
		Name:          a.Name,
		Archetype:     a.Archetype,
		IsPlayer:      a.IsPlayer,
		Traits:        append([]agents.Trait(nil), a.Profile.Disposition...),
		Trust:         a.Profile.Trust,
		Suspicion:     a.Profile.Suspicion,
		Closeness:     a.Profile.Closeness,
		Standing:      s.Graph.SocialStanding(a.ID, s.isActive),
		Immune:        a.ID == s.Immune && a.Active(),
		Eliminated:    a.Eliminated,
		EliminatedDay: a.EliminatedDay,
	}
	for _, al := range social.Containing(social.Live(s.Alliances), a.ID) {
		if !al.Secret || al.HasMember(agents.PlayerID) {
			sum.Alliances = append(sum.Alliances, al.Name)
		}
	}
	return sum
}

// AgentDetail adds the two-way relationship with the player and the
// interactions the player witnessed.
type AgentDetail struct {
	AgentSummary
	TowardPlayer relations.Edge `json:"toward_player"`
	FromPlayer   relations.Edge `json:"from_player"`
	Shared       []memory.Event `json:"shared_events"`
}

// AgentDetail returns one contestant's detail view.
func (s *Simulation) AgentDetail(id agents.AgentID) (AgentDetail, error) {
	a, err := s.Agent(id)
	if err != nil {
		return AgentDetail{}, err
	}
	d := AgentDetail{AgentSummary: s.summarize(a)}
	if a.IsPlayer {
		return d, nil
	}
	d.TowardPlayer = s.Graph.Get(id, agents.PlayerID)
	d.FromPlayer = s.Graph.Get(agents.PlayerID, id)
	d.Shared = s.Memory.Query(memory.Filter{Participants: []agents.AgentID{agents.PlayerID}})
	shared := d.Shared[:0]
	for _, e := range d.Shared {
		if e.InvolvesAll(agents.PlayerID, id) {
			shared = append(shared, e)
		}
	}
	d.Shared = shared
	return d, nil
}

// Relationships returns every edge between contestants still in the game.
func (s *Simulation) Relationships() []relations.Edge {
	var out []relations.Edge
	for _, e := range s.Graph.Edges() {
		if s.isActive(e.From) && s.isActive(e.To) {
			out = append(out, e)
		}
	}
	return out
}

// VisibleAlliances returns live alliances the player can see: public ones
// and any the player belongs to.
func (s *Simulation) VisibleAlliances() []social.Alliance {
	var out []social.Alliance
	for _, al := range social.Live(s.Alliances) {
		if !al.Secret || al.HasMember(agents.PlayerID) {
			out = append(out, al)
		}
	}
	return out
}

// ReplyContext is what a text generator needs to voice one contestant.
type ReplyContext struct {
	Name      string   `json:"name"`
	Archetype string   `json:"archetype"`
	Traits    []string `json:"traits"`
	Strategy  string   `json:"strategy"`
	Trust     float64  `json:"trust"`
	Suspicion float64  `json:"suspicion"`
	Closeness float64  `json:"closeness"`
	Recent    []string `json:"recent"`
}

// ReplyContext builds the persona and psych snapshot for an NPC reply.
// Recent holds at most five interactions with the player, newest first.
func (s *Simulation) ReplyContext(id agents.AgentID) (ReplyContext, error) {
	a, err := s.activeNPC(id)
	if err != nil {
		return ReplyContext{}, err
	}
	j, err := s.Memory.Journal(id)
	if err != nil {
		return ReplyContext{}, err
	}
	rc := ReplyContext{
		Name:      a.Name,
		Archetype: a.Archetype,
		Strategy:  j.Strategy,
		Trust:     a.Profile.Trust,
		Suspicion: a.Profile.Suspicion,
		Closeness: a.Profile.Closeness,
	}
	for _, t := range a.Profile.Disposition {
		rc.Traits = append(rc.Traits, string(t))
	}
	for i := len(j.Events) - 1; i >= 0 && len(rc.Recent) < recentSummaries; i-- {
		e := j.Events[i]
		if e.Involves(agents.PlayerID) {
			rc.Recent = append(rc.Recent, fmt.Sprintf("Day %d: %s", e.Day, e.Content))
		}
	}
	return rc, nil
}

// WeekSummary gathers the raw material for an episode recap.
type WeekSummary struct {
	Week        int              `json:"week"`
	FromDay     int              `json:"from_day"`
	ToDay       int              `json:"to_day"`
	Highlights  []memory.Event   `json:"highlights"`
	Eliminated  []string         `json:"eliminated,omitempty"`
	Alliances   []string         `json:"alliances,omitempty"`
	RatingStart float64          `json:"rating_start"`
	RatingEnd   float64          `json:"rating_end"`
	Standings   []AgentSummary   `json:"standings"`
	Pending     *interrupt.Event `json:"pending,omitempty"`
}

// WeekEvents returns every event recorded during week, in order.
func (s *Simulation) WeekEvents(week int) []memory.Event {
	from, to := s.weekBounds(week)
	return s.Memory.Query(memory.Filter{FromDay: from, ToDay: to})
}

func (s *Simulation) weekBounds(week int) (int, int) {
	if week < 1 {
		week = 1
	}
	n := s.Config.EliminationInterval
	return (week-1)*n + 1, week * n
}

// WeekSummary collects a week's highlights: the most important events,
// who went home, live alliances, and the rating movement.
func (s *Simulation) WeekSummary(week int) WeekSummary {
	from, to := s.weekBounds(week)
	ws := WeekSummary{Week: week, FromDay: from, ToDay: to, Standings: s.standings()}

	events := s.WeekEvents(week)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Importance > events[j].Importance })
	for _, e := range events {
		if e.Type == memory.EliminationOut && len(e.Participants) > 0 {
			ws.Eliminated = append(ws.Eliminated, s.nameOf(e.Participants[0]))
		}
		if len(ws.Highlights) < 8 && e.Type != memory.Vote {
			ws.Highlights = append(ws.Highlights, e)
		}
	}
	for _, al := range s.VisibleAlliances() {
		ws.Alliances = append(ws.Alliances, al.Name)
	}

	ws.RatingStart, ws.RatingEnd = balance.RatingBaseline, balance.RatingBaseline
	for _, h := range s.Ratings.History {
		if h.Day < from {
			ws.RatingStart = h.Rating
		}
		if h.Day <= to {
			ws.RatingEnd = h.Rating
		}
	}
	if ev, ok := s.Interruptor.Pending(); ok {
		ws.Pending = &ev
	}
	return ws
}

// standings ranks active contestants by social standing.
func (s *Simulation) standings() []AgentSummary {
	var out []AgentSummary
	for _, st := range s.Graph.RankByStanding(agents.IDs(s.Active()), s.isActive) {
		out = append(out, s.summarize(s.AgentIndex[st.Agent]))
	}
	return out
}
