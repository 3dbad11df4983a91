// Package engine is the game-state root. Simulation owns the cast, the
// relationship graph, the memory store, alliances, and the rating, and runs
// one day's worth of transitions to completion before the next begins.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/ratings"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
	"github.com/talgya/castaway/internal/vote"
)

var (
	// ErrAwaitingChoice means an emergent event must be resolved first.
	ErrAwaitingChoice = errors.New("an emergent event is awaiting a choice")
	// ErrUnknownAgent means no contestant has the given id.
	ErrUnknownAgent = errors.New("unknown contestant")
	// ErrInactiveAgent means the contestant has been eliminated.
	ErrInactiveAgent = errors.New("contestant has been eliminated")
	// ErrGameOver means the game has ended.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidVote means the player's ballot named an ineligible target.
	ErrInvalidVote = errors.New("invalid elimination vote")
	// ErrEliminationHeld means today's elimination already happened.
	ErrEliminationHeld = errors.New("elimination already held today")
	// ErrNotEliminationDay means today is not a scheduled elimination day.
	ErrNotEliminationDay = errors.New("no elimination scheduled today")
)

// Config holds the tunable parameters of a game.
type Config struct {
	Seed                int64   `json:"seed"`
	CastSize            int     `json:"cast_size"`
	PlayerName          string  `json:"player_name"`
	EliminationInterval int     `json:"elimination_interval_days"`
	EmergentChance      float64 `json:"emergent_chance"`
}

// DefaultConfig returns the standard season format.
func DefaultConfig() Config {
	return Config{
		Seed:                1,
		CastSize:            8,
		PlayerName:          "You",
		EliminationInterval: 7,
		EmergentChance:      interrupt.DefaultChance,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CastSize == 0 {
		c.CastSize = d.CastSize
	}
	if c.PlayerName == "" {
		c.PlayerName = d.PlayerName
	}
	if c.EliminationInterval <= 0 {
		c.EliminationInterval = d.EliminationInterval
	}
	if c.EmergentChance <= 0 {
		c.EmergentChance = d.EmergentChance
	}
	return c
}

// Simulation holds the complete game state and wires the systems together.
// It is not safe for concurrent use; callers serialize access.
type Simulation struct {
	Config     Config
	Day        int
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	Graph       *relations.Graph
	Memory      *memory.Store
	Alliances   []social.Alliance
	Ratings     *ratings.State
	Interruptor *interrupt.Interruptor

	// Weekly vote claims and the agent holding immunity this week.
	Plans  vote.Plans
	Immune agents.AgentID

	LastEliminationDay int
	GameOver           bool
	Winner             agents.AgentID

	streams entropy.Streams
	noise   opensimplex.Noise

	subMu   sync.Mutex
	subs    map[int]chan memory.Event
	nextSub int
}

// NewSimulation casts a new game from cfg. Decision-affecting randomness,
// casting included, comes from streams.Decision.
func NewSimulation(cfg Config, streams entropy.Streams) (*Simulation, error) {
	cfg = cfg.withDefaults()
	cast, err := agents.SeedCast(cfg.CastSize, cfg.PlayerName, streams.Decision)
	if err != nil {
		return nil, fmt.Errorf("seed cast: %w", err)
	}
	return NewFromCast(cfg, cast, streams)
}

// NewFromCast starts a game with a prepared cast. The player must be first.
func NewFromCast(cfg Config, cast []*agents.Agent, streams entropy.Streams) (*Simulation, error) {
	cfg = cfg.withDefaults()
	if len(cast) < 2 || cast[0].ID != agents.PlayerID {
		return nil, fmt.Errorf("cast must start with the player and have at least 2 contestants")
	}

	s := newSimulation(cfg, streams)
	s.Day = 1
	s.Agents = cast
	s.AgentIndex = agents.Index(cast)

	ids := agents.IDs(cast)
	s.Graph.Initialize(ids)
	s.Memory.InitializeJournals(ids)

	// Each contestant's starting stance toward the player seeds its edge.
	for _, a := range cast[1:] {
		p := a.Profile
		d := relations.Delta{Trust: p.Trust, Suspicion: p.Suspicion, Closeness: p.Closeness}
		if err := s.adjust(a.ID, agents.PlayerID, d, "first_impression", "", s.Day); err != nil {
			return nil, err
		}
		if err := s.Memory.SetStrategy(a.ID, openingStrategy(a)); err != nil {
			return nil, err
		}
	}

	s.planWeek()
	slog.Info("game started", "seed", cfg.Seed, "cast", len(cast), "player", cast[0].Name)
	return s, nil
}

func newSimulation(cfg Config, streams entropy.Streams) *Simulation {
	if streams.Decision == nil || streams.Flavor == nil {
		streams = entropy.NewStreams(cfg.Seed)
	}
	return &Simulation{
		Config:      cfg,
		Graph:       relations.NewGraph(),
		Memory:      memory.NewStore(),
		Ratings:     ratings.NewState(),
		Interruptor: interrupt.New(cfg.EmergentChance),
		Plans:       make(vote.Plans),
		streams:     streams,
		noise:       opensimplex.NewNormalized(cfg.Seed),
		subs:        make(map[int]chan memory.Event),
	}
}

// Player returns the player's agent.
func (s *Simulation) Player() *agents.Agent {
	return s.AgentIndex[agents.PlayerID]
}

// Agent looks up a contestant.
func (s *Simulation) Agent(id agents.AgentID) (*agents.Agent, error) {
	a, ok := s.AgentIndex[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, ErrUnknownAgent)
	}
	return a, nil
}

// activeNPC looks up a contestant that is still in the game and is not the
// player.
func (s *Simulation) activeNPC(id agents.AgentID) (*agents.Agent, error) {
	a, err := s.Agent(id)
	if err != nil {
		return nil, err
	}
	if a.IsPlayer {
		return nil, fmt.Errorf("agent %q is the player: %w", id, ErrUnknownAgent)
	}
	if !a.Active() {
		return nil, fmt.Errorf("agent %q: %w", id, ErrInactiveAgent)
	}
	return a, nil
}

// Active returns contestants still in the game.
func (s *Simulation) Active() []*agents.Agent {
	return agents.ActiveAgents(s.Agents)
}

func (s *Simulation) activeNPCs() []*agents.Agent {
	var out []*agents.Agent
	for _, a := range s.Agents {
		if a.Active() && !a.IsPlayer {
			out = append(out, a)
		}
	}
	return out
}

func (s *Simulation) isActive(id agents.AgentID) bool {
	a, ok := s.AgentIndex[id]
	return ok && a.Active()
}

func (s *Simulation) isEliminated(id agents.AgentID) bool {
	return !s.isActive(id)
}

// Week returns the 1-based week number of the current day.
func (s *Simulation) Week() int {
	return (s.Day-1)/s.Config.EliminationInterval + 1
}

// NextElimination returns the day of the next scheduled elimination.
func (s *Simulation) NextElimination() int {
	return s.Week() * s.Config.EliminationInterval
}

func (s *Simulation) isEliminationDay(day int) bool {
	return day%s.Config.EliminationInterval == 0
}

func (s *Simulation) isWeekStart(day int) bool {
	return day%s.Config.EliminationInterval == 1 || s.Config.EliminationInterval == 1
}

func openingStrategy(a *agents.Agent) string {
	switch {
	case a.HasTrait(agents.TraitStrategic):
		return "Build a quiet majority and stay two votes ahead."
	case a.HasTrait(agents.TraitDeceptive):
		return "Tell everyone what they want to hear and cut the biggest threat."
	case a.HasTrait(agents.TraitLoyal):
		return "Find a ride-or-die ally and never break a promise."
	case a.HasTrait(agents.TraitCompetitive):
		return "Win immunity and outlast the strong players."
	case a.HasTrait(agents.TraitVolatile):
		return "Trust the gut and strike before anyone strikes first."
	default:
		return "Stay liked, stay useful, stay out of the crossfire."
	}
}
