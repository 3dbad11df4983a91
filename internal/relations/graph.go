// Package relations maintains the directed relationship graph between every
// pair of contestants: trust, suspicion, and closeness, each clamped to its
// range after every write.
package relations

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/balance"
)

// ErrMissingEdge is returned when an update targets a pair that was never
// initialized. It signals a broken setup sequence, not a recoverable state.
var ErrMissingEdge = errors.New("relationship edge not initialized")

// Decay tuning.
const (
	DecayThresholdDays = 3    // edges untouched for longer than this start to fade
	DecayRatePerDay    = 0.02 // fraction of distance to neutral per idle day past the threshold
	DecayMaxFraction   = 0.5  // cap on a single decay call
	snapEpsilon        = 0.01
)

// Edge is how one agent feels about another.
type Edge struct {
	From        agents.AgentID `json:"from"`
	To          agents.AgentID `json:"to"`
	Trust       float64        `json:"trust"`
	Suspicion   float64        `json:"suspicion"`
	Closeness   float64        `json:"closeness"`
	LastUpdated int            `json:"last_updated"`
	LastReason  string         `json:"last_reason,omitempty"`
	LastNote    string         `json:"last_note,omitempty"`
}

// Delta is a change to apply to an edge.
type Delta struct {
	Trust     float64 `json:"trust"`
	Suspicion float64 `json:"suspicion"`
	Closeness float64 `json:"closeness"`
}

// Scale returns the delta multiplied by f.
func (d Delta) Scale(f float64) Delta {
	return Delta{Trust: d.Trust * f, Suspicion: d.Suspicion * f, Closeness: d.Closeness * f}
}

type pair struct {
	from, to agents.AgentID
}

// Graph holds one edge per ordered pair of distinct agents.
type Graph struct {
	edges map[pair]*Edge
}

// NewGraph creates an empty graph. Call Initialize before any Update.
func NewGraph() *Graph {
	return &Graph{edges: make(map[pair]*Edge)}
}

// Initialize discards all edges and creates a neutral edge for every ordered
// pair of distinct ids.
func (g *Graph) Initialize(ids []agents.AgentID) {
	g.edges = make(map[pair]*Edge, len(ids)*len(ids))
	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			g.edges[pair{a, b}] = &Edge{From: a, To: b}
		}
	}
}

// AddAgent creates neutral edges in both directions between id and each of
// others, leaving existing edges untouched.
func (g *Graph) AddAgent(id agents.AgentID, others []agents.AgentID) {
	for _, o := range others {
		if o == id {
			continue
		}
		if _, ok := g.edges[pair{id, o}]; !ok {
			g.edges[pair{id, o}] = &Edge{From: id, To: o}
		}
		if _, ok := g.edges[pair{o, id}]; !ok {
			g.edges[pair{o, id}] = &Edge{From: o, To: id}
		}
	}
}

// Update adds d to the from->to edge, clamps every field, and stamps day.
func (g *Graph) Update(from, to agents.AgentID, d Delta, reason, note string, day int) (Edge, error) {
	e, ok := g.edges[pair{from, to}]
	if !ok {
		return Edge{}, fmt.Errorf("update %s -> %s: %w", from, to, ErrMissingEdge)
	}

	e.Trust = balance.ClampTrust(e.Trust + d.Trust)
	e.Suspicion = balance.ClampSuspicion(e.Suspicion + d.Suspicion)
	e.Closeness = balance.ClampCloseness(e.Closeness + d.Closeness)
	e.LastUpdated = day
	e.LastReason = reason
	e.LastNote = note

	return *e, nil
}

// Decay pulls every idle edge toward neutral. The pull grows with the days
// since the edge was last updated but is capped, so a single call never
// reaches or crosses the baseline on its own. Returns the number of edges
// changed.
func (g *Graph) Decay(day int) int {
	changed := 0
	for _, e := range g.edges {
		idle := day - e.LastUpdated
		if idle <= DecayThresholdDays {
			continue
		}
		f := DecayRatePerDay * float64(idle-DecayThresholdDays)
		if f > DecayMaxFraction {
			f = DecayMaxFraction
		}

		before := *e
		e.Trust = towardNeutral(e.Trust, f)
		e.Suspicion = towardNeutral(e.Suspicion, f)
		e.Closeness = towardNeutral(e.Closeness, f)
		if before.Trust != e.Trust || before.Suspicion != e.Suspicion || before.Closeness != e.Closeness {
			changed++
		}
	}
	return changed
}

func towardNeutral(v, f float64) float64 {
	next := balance.Neutral + (v-balance.Neutral)*(1-f)
	if next-balance.Neutral < snapEpsilon && next-balance.Neutral > -snapEpsilon {
		return balance.Neutral
	}
	return next
}

// Get returns the from->to edge, or a neutral edge if the pair is unknown.
func (g *Graph) Get(from, to agents.AgentID) Edge {
	if e, ok := g.edges[pair{from, to}]; ok {
		return *e
	}
	return Edge{From: from, To: to}
}

// Has reports whether the from->to edge exists.
func (g *Graph) Has(from, to agents.AgentID) bool {
	_, ok := g.edges[pair{from, to}]
	return ok
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

// Inbound returns every edge pointing at id, sorted by source.
func (g *Graph) Inbound(id agents.AgentID) []Edge {
	var out []Edge
	for k, e := range g.edges {
		if k.to == id {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Edges returns a sorted copy of every edge, suitable for snapshots.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Restore replaces the graph's contents with edges.
func (g *Graph) Restore(edges []Edge) {
	g.edges = make(map[pair]*Edge, len(edges))
	for i := range edges {
		e := edges[i]
		g.edges[pair{e.From, e.To}] = &e
	}
}
