// Weekly voting: immunity, claim planning, and the elimination ceremony.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/vote"
)

// ProvenanceInference marks journal plans written from vote inference.
const ProvenanceInference = "inference"

// finalists is the number of contestants left when the game ends.
const finalists = 2

// Ballot is one cast vote.
type Ballot struct {
	Voter  agents.AgentID `json:"voter"`
	Target agents.AgentID `json:"target"`
}

// EliminationResult describes an elimination ceremony.
type EliminationResult struct {
	Day        int                    `json:"day"`
	Ballots    []Ballot               `json:"ballots"`
	Tally      map[agents.AgentID]int `json:"tally"`
	Eliminated agents.AgentID         `json:"eliminated"`
	Immune     agents.AgentID         `json:"immune,omitempty"`
	GameOver   bool                   `json:"game_over"`
	Winner     agents.AgentID         `json:"winner,omitempty"`
}

func (s *Simulation) voteState() vote.State {
	return vote.State{
		Day:       s.Day,
		Agents:    s.Agents,
		Edges:     s.Graph,
		Journals:  s.Memory,
		Alliances: s.Alliances,
		Immune:    s.Immune,
	}
}

// planWeek runs at the start of each week: pick who holds immunity, settle
// every NPC's shareable claim, and write each NPC's real intent into its
// journal.
func (s *Simulation) planWeek() {
	active := s.Active()
	if len(active) > 0 {
		s.Immune = entropy.Pick(s.streams.Decision, active).ID
	}
	s.Plans = vote.PlanWeek(s.voteState())
	s.refreshJournalPlans()
	s.recordWeeklyGoals()

	slog.Info("week planned", "day", s.Day, "week", s.Week(), "immune", s.Immune, "plans", len(s.Plans))
}

// refreshJournalPlans mirrors each active NPC's inferred target into its
// journal, which is the single record of private intent.
func (s *Simulation) refreshJournalPlans() {
	st := s.voteState()
	for _, a := range s.activeNPCs() {
		target, ok := vote.Infer(a.ID, st)
		if !ok {
			target = ""
		}
		if err := s.Memory.UpdateVotingPlan(a.ID, target, memory.Provenance{Source: ProvenanceInference, Day: s.Day}); err != nil {
			slog.Error("journal plan update failed", "agent", a.ID, "error", err)
		}
	}
}

// recordWeeklyGoals adds the week's intended target to each NPC's goals.
func (s *Simulation) recordWeeklyGoals() {
	week, voteDay := s.Week(), s.NextElimination()
	for _, a := range s.activeNPCs() {
		target := s.Memory.Plan(a.ID).Target
		if target == "" {
			continue
		}
		goal := fmt.Sprintf("Week %d: vote out %s on day %d", week, s.nameOf(target), voteDay)
		if err := s.Memory.AddGoal(a.ID, goal); err != nil {
			slog.Error("journal goal update failed", "agent", a.ID, "error", err)
		}
	}
}

// AskForVote returns what an NPC says when asked who it is voting for.
func (s *Simulation) AskForVote(id agents.AgentID) (vote.Claim, error) {
	if _, err := s.activeNPC(id); err != nil {
		return vote.Claim{}, err
	}
	return vote.ClaimFor(id, s.voteState(), s.Plans), nil
}

// DebugVoteClaims returns every active NPC's claim with its honesty label.
// For author tooling only.
func (s *Simulation) DebugVoteClaims() []vote.Assessment {
	st := s.voteState()
	var out []vote.Assessment
	for _, a := range s.activeNPCs() {
		as, err := vote.AskForEliminationVote(a.ID, st, s.Plans)
		if err != nil {
			continue
		}
		out = append(out, as)
	}
	return out
}

// HoldElimination runs the vote. It is only allowed on the last day of a
// week. Every active NPC votes its journal plan (refreshed from current
// state); the player votes playerVote, or abstains
// if it is empty. The plurality loses, with ties going against whoever was
// named first.
func (s *Simulation) HoldElimination(playerVote agents.AgentID) (EliminationResult, error) {
	if s.GameOver {
		return EliminationResult{}, ErrGameOver
	}
	if s.Interruptor.Awaiting() {
		return EliminationResult{}, ErrAwaitingChoice
	}
	if s.LastEliminationDay == s.Day {
		return EliminationResult{}, ErrEliminationHeld
	}
	if !s.isEliminationDay(s.Day) {
		return EliminationResult{}, fmt.Errorf("day %d, next is day %d: %w", s.Day, s.NextElimination(), ErrNotEliminationDay)
	}
	if len(s.Active()) <= finalists {
		return EliminationResult{}, ErrGameOver
	}

	player := s.Player()
	if playerVote != "" {
		if !player.Active() {
			return EliminationResult{}, fmt.Errorf("player is out: %w", ErrInvalidVote)
		}
		if !s.eligibleTarget(agents.PlayerID, playerVote) {
			return EliminationResult{}, fmt.Errorf("vote for %q: %w", playerVote, ErrInvalidVote)
		}
	}

	s.refreshJournalPlans()
	st := s.voteState()

	var ballots []Ballot
	for _, a := range s.Active() {
		var target agents.AgentID
		if a.IsPlayer {
			target = playerVote
		} else {
			target = s.Memory.Plan(a.ID).Target
			if !s.eligibleTarget(a.ID, target) {
				target, _ = vote.Infer(a.ID, st)
			}
		}
		if target == "" {
			continue
		}
		ballots = append(ballots, Ballot{Voter: a.ID, Target: target})
	}
	if len(ballots) == 0 {
		return EliminationResult{}, fmt.Errorf("no eligible ballots: %w", ErrInvalidVote)
	}

	res := EliminationResult{Day: s.Day, Ballots: ballots, Tally: make(map[agents.AgentID]int), Immune: s.Immune}
	for _, b := range ballots {
		if _, err := s.record(memory.NewBallot(s.Day, b.Voter, b.Target,
			fmt.Sprintf("%s voted for %s.", s.nameOf(b.Voter), s.nameOf(b.Target)))); err != nil {
			return EliminationResult{}, err
		}
		res.Tally[b.Target]++
	}
	res.Eliminated = plurality(ballots, res.Tally)

	out := s.AgentIndex[res.Eliminated]
	out.Eliminate(s.Day)
	if _, err := s.record(memory.Event{
		Day:          s.Day,
		Type:         memory.EliminationOut,
		Participants: []agents.AgentID{res.Eliminated},
		Content:      fmt.Sprintf("%s was voted out with %d votes.", out.Name, res.Tally[res.Eliminated]),
		Impact:       -5,
		Importance:   10,
	}); err != nil {
		return EliminationResult{}, err
	}
	s.LastEliminationDay = s.Day

	if out.IsPlayer {
		s.GameOver = true
	} else if len(s.Active()) <= finalists {
		s.GameOver = true
		s.Winner = s.crownWinner()
	}
	res.GameOver = s.GameOver
	res.Winner = s.Winner

	slog.Info("elimination held", "day", s.Day, "eliminated", res.Eliminated, "votes", res.Tally[res.Eliminated],
		"ballots", len(ballots), "game_over", s.GameOver)
	return res, nil
}

func (s *Simulation) eligibleTarget(voter, target agents.AgentID) bool {
	if target == "" || target == voter || target == s.Immune {
		return false
	}
	return s.isActive(target)
}

// plurality returns the most-voted target. Ties go to the target whose first
// ballot came earliest.
func plurality(ballots []Ballot, tally map[agents.AgentID]int) agents.AgentID {
	var best agents.AgentID
	for _, b := range ballots {
		if best == "" || tally[b.Target] > tally[best] {
			best = b.Target
		}
	}
	return best
}

// crownWinner picks the finalist with the highest social standing among the
// whole cast, jury included.
func (s *Simulation) crownWinner() agents.AgentID {
	ranked := s.Graph.RankByStanding(agents.IDs(s.Active()), nil)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Agent
}
