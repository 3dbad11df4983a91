// Archetypes — casting templates that give each contestant a starting
// disposition and a default stance toward the player.
package agents

// Archetype names.
const (
	ArchMastermind = "Mastermind"
	ArchSweetheart = "Sweetheart"
	ArchVillain    = "Villain"
	ArchWildcard   = "Wildcard"
	ArchFloater    = "Floater"
	ArchCompetitor = "Competitor"
	ArchGossip     = "Gossip"
	ArchLoyalist   = "Loyalist"
)

// Template is the starting profile an archetype is cast with.
type Template struct {
	Traits    []Trait
	Trust     float64
	Suspicion float64
	Closeness float64
	EditBias  float64
}

var archetypeTemplates = map[string]Template{
	ArchMastermind: {Traits: []Trait{TraitStrategic, TraitDeceptive}, Trust: 0, Suspicion: 35, Closeness: -5, EditBias: -0.2},
	ArchSweetheart: {Traits: []Trait{TraitCharming, TraitLoyal}, Trust: 25, Suspicion: 10, Closeness: 20, EditBias: 0.6},
	ArchVillain:    {Traits: []Trait{TraitCompetitive, TraitDeceptive}, Trust: -15, Suspicion: 45, Closeness: -15, EditBias: -0.8},
	ArchWildcard:   {Traits: []Trait{TraitVolatile, TraitParanoid}, Trust: -5, Suspicion: 40, Closeness: 0, EditBias: -0.1},
	ArchFloater:    {Traits: []Trait{TraitSocial}, Trust: 10, Suspicion: 20, Closeness: 10, EditBias: 0.1},
	ArchCompetitor: {Traits: []Trait{TraitCompetitive, TraitLoyal}, Trust: 5, Suspicion: 25, Closeness: 5, EditBias: 0.3},
	ArchGossip:     {Traits: []Trait{TraitSocial, TraitDeceptive}, Trust: 10, Suspicion: 30, Closeness: 15, EditBias: -0.3},
	ArchLoyalist:   {Traits: []Trait{TraitLoyal, TraitStrategic}, Trust: 20, Suspicion: 15, Closeness: 10, EditBias: 0.4},
}

// archetypeOrder fixes iteration order so casting is deterministic.
var archetypeOrder = []string{
	ArchMastermind, ArchSweetheart, ArchVillain, ArchWildcard,
	ArchFloater, ArchCompetitor, ArchGossip, ArchLoyalist,
}

// TemplateFor returns the template for an archetype name.
func TemplateFor(name string) (Template, bool) {
	t, ok := archetypeTemplates[name]
	return t, ok
}

// Archetypes lists every archetype name in casting order.
func Archetypes() []string {
	out := make([]string, len(archetypeOrder))
	copy(out, archetypeOrder)
	return out
}
