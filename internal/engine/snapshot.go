package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/ratings"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
	"github.com/talgya/castaway/internal/vote"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// ErrSnapshotVersion means a snapshot was written by an incompatible build.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is the complete persisted game state. A pending emergent event
// is not part of it; a restored game starts idle.
type Snapshot struct {
	Version            int               `json:"version"`
	Config             Config            `json:"config"`
	Day                int               `json:"day"`
	Agents             []agents.Agent    `json:"agents"`
	Edges              []relations.Edge  `json:"edges"`
	Memory             memory.Snapshot   `json:"memory"`
	Alliances          []social.Alliance `json:"alliances"`
	Rating             ratings.State     `json:"rating"`
	Plans              vote.Plans        `json:"plans"`
	Immune             agents.AgentID    `json:"immune,omitempty"`
	LastEliminationDay int               `json:"last_elimination_day"`
	GameOver           bool              `json:"game_over"`
	Winner             agents.AgentID    `json:"winner,omitempty"`
}

// Snapshot captures the game state. The result shares nothing with s.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Version:            SnapshotVersion,
		Config:             s.Config,
		Day:                s.Day,
		Edges:              s.Graph.Edges(),
		Memory:             s.Memory.Snapshot(),
		Alliances:          append([]social.Alliance(nil), s.Alliances...),
		Rating:             ratings.State{Current: s.Ratings.Current, History: append([]ratings.Entry(nil), s.Ratings.History...)},
		Plans:              make(vote.Plans, len(s.Plans)),
		Immune:             s.Immune,
		LastEliminationDay: s.LastEliminationDay,
		GameOver:           s.GameOver,
		Winner:             s.Winner,
	}
	for _, a := range s.Agents {
		cp := *a
		cp.Profile.Disposition = append([]agents.Trait(nil), a.Profile.Disposition...)
		snap.Agents = append(snap.Agents, cp)
	}
	for i := range snap.Alliances {
		snap.Alliances[i].Members = append([]agents.AgentID(nil), snap.Alliances[i].Members...)
	}
	for id, c := range s.Plans {
		snap.Plans[id] = c
	}
	return snap
}

// Restore rebuilds a game from a snapshot. When streams is zero, fresh
// streams are derived from the seed and the saved day so a restored game
// does not replay the opening draws.
func Restore(snap Snapshot, streams entropy.Streams) (*Simulation, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d: %w", snap.Version, ErrSnapshotVersion)
	}
	if len(snap.Agents) == 0 || snap.Agents[0].ID != agents.PlayerID {
		return nil, fmt.Errorf("snapshot cast must start with the player")
	}

	cfg := snap.Config.withDefaults()
	if streams.Decision == nil || streams.Flavor == nil {
		streams = entropy.NewStreams(cfg.Seed + int64(snap.Day))
	}
	s := newSimulation(cfg, streams)
	s.Day = snap.Day

	for i := range snap.Agents {
		a := snap.Agents[i]
		a.Profile.Disposition = append([]agents.Trait(nil), a.Profile.Disposition...)
		s.Agents = append(s.Agents, &a)
	}
	s.AgentIndex = agents.Index(s.Agents)

	s.Graph.Restore(snap.Edges)
	ids := agents.IDs(s.Agents)
	for _, id := range ids {
		s.Graph.AddAgent(id, ids)
	}
	s.Memory.Restore(snap.Memory)
	for _, id := range ids {
		if !s.Memory.HasJournal(id) {
			return nil, fmt.Errorf("agent %q: %w", id, memory.ErrNoJournal)
		}
	}

	s.Alliances = append([]social.Alliance(nil), snap.Alliances...)
	s.Ratings.Current = snap.Rating.Current
	s.Ratings.History = append([]ratings.Entry(nil), snap.Rating.History...)
	if len(s.Ratings.History) == 0 && s.Ratings.Current == 0 {
		s.Ratings = ratings.NewState()
	}
	for id, c := range snap.Plans {
		s.Plans[id] = c
	}
	s.Immune = snap.Immune
	s.LastEliminationDay = snap.LastEliminationDay
	s.GameOver = snap.GameOver
	s.Winner = snap.Winner

	s.syncProfiles()
	slog.Info("game restored", "day", s.Day, "cast", len(s.Agents), "events", s.Memory.Len())
	return s, nil
}
