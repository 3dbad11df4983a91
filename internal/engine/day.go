package engine

import (
	"errors"
	"log/slog"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/ratings"
	"github.com/talgya/castaway/internal/social"
)

// DayReport summarizes one call to AdvanceDay. Closed is the day that ended;
// Day is the day that began.
type DayReport struct {
	Closed          int                `json:"closed"`
	Day             int                `json:"day"`
	Elimination     *EliminationResult `json:"elimination,omitempty"`
	AllianceChanges []social.Change    `json:"alliance_changes,omitempty"`
	Buzz            ratings.Buzz       `json:"buzz"`
	Rating          ratings.Update     `json:"rating"`
	Decayed         int                `json:"decayed_edges"`
	Ambient         []memory.Event     `json:"ambient,omitempty"`
	Emergent        *interrupt.Event   `json:"emergent,omitempty"`
	GameOver        bool               `json:"game_over"`
}

// AdvanceDay closes the current day and opens the next one. The closing day
// holds its elimination if one is due, then alliances are recomputed and
// the day's buzz is scored. The new day decays relationships, runs ambient
// life, plans the week if it is a week start, and may raise an emergent
// event the player must answer before advancing again.
func (s *Simulation) AdvanceDay() (DayReport, error) {
	if s.GameOver {
		return DayReport{}, ErrGameOver
	}
	if s.Interruptor.Awaiting() {
		return DayReport{}, ErrAwaitingChoice
	}

	closing := s.Day
	rep := DayReport{Closed: closing}

	if s.isEliminationDay(closing) && s.LastEliminationDay != closing {
		res, err := s.HoldElimination("")
		switch {
		case err == nil:
			rep.Elimination = &res
		case errors.Is(err, ErrGameOver):
			if !s.GameOver {
				s.GameOver = true
				s.Winner = s.crownWinner()
			}
		default:
			return rep, err
		}
		if s.GameOver {
			rep.Day = s.Day
			rep.GameOver = true
			slog.Info("game over", "day", closing, "winner", s.Winner)
			return rep, nil
		}
	}

	rep.AllianceChanges = s.processAlliances(closing)
	rep.Buzz = ratings.CountBuzz(s.Memory.OnDay(closing), len(s.LiveAlliances()))
	rep.Rating = ratings.ApplyDailyBuzz(s.Ratings.Current, rep.Buzz)
	if err := s.Ratings.Record(closing, rep.Rating); err != nil {
		return rep, err
	}

	s.Day++
	rep.Day = s.Day
	rep.Decayed = s.Graph.Decay(s.Day)
	s.syncProfiles()

	ambient, err := s.processRelationships(s.Day)
	rep.Ambient = ambient
	if err != nil {
		return rep, err
	}

	if s.isWeekStart(s.Day) {
		s.planWeek()
	}

	if ev, ok := s.Interruptor.Roll(s.interruptState(), s.streams); ok {
		rep.Emergent = &ev
		slog.Info("emergent event", "day", s.Day, "category", ev.Category, "title", ev.Title)
	}

	slog.Info("day advanced", "day", s.Day, "rating", s.Ratings.Current,
		"events", len(ambient), "alliances", len(s.LiveAlliances()))
	return rep, nil
}

func (s *Simulation) interruptState() interrupt.State {
	return interrupt.State{
		Day:             s.Day,
		Player:          agents.PlayerID,
		Agents:          s.Agents,
		Alliances:       s.Alliances,
		NextElimination: s.NextElimination(),
		Rating:          s.Ratings.Current,
	}
}
