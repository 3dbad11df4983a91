// Casting — builds the starting cast of contestants from name and archetype
// tables.
package agents

import (
	"fmt"
	"strings"

	"github.com/talgya/castaway/internal/balance"
	"github.com/talgya/castaway/internal/entropy"
)

var castNames = []string{
	"Ava", "Brenna", "Cade", "Dorian", "Elara", "Finn", "Greta", "Hugo",
	"Iris", "Jasper", "Kira", "Leif", "Mira", "Nils", "Olwen", "Petra",
	"Quinn", "Rowan", "Senna", "Theron", "Una", "Vera", "Wren", "Zara",
}

// MaxCast is the largest cast SeedCast can build (player included).
var MaxCast = len(castNames) + 1

// SeedCast creates the player plus size-1 non-player contestants. Names and
// archetypes are drawn without replacement from src; profiles get a small
// jitter so no two casts play identically.
func SeedCast(size int, playerName string, src entropy.Source) ([]*Agent, error) {
	if size < 2 {
		return nil, fmt.Errorf("cast size %d: need at least 2 contestants", size)
	}
	if size > MaxCast {
		return nil, fmt.Errorf("cast size %d exceeds maximum %d", size, MaxCast)
	}
	if playerName == "" {
		playerName = "You"
	}

	cast := make([]*Agent, 0, size)
	cast = append(cast, &Agent{
		ID:       PlayerID,
		Name:     playerName,
		IsPlayer: true,
	})

	names := make([]string, len(castNames))
	copy(names, castNames)
	archs := Archetypes()

	for i := 1; i < size; i++ {
		j := src.IntN(len(names))
		name := names[j]
		names = append(names[:j], names[j+1:]...)

		arch := archs[src.IntN(len(archs))]
		cast = append(cast, NewContestant(AgentID(strings.ToLower(name)), name, arch, src))
	}

	return cast, nil
}

// NewContestant builds a non-player contestant from an archetype template.
// A nil src produces the template profile exactly.
func NewContestant(id AgentID, name, archetype string, src entropy.Source) *Agent {
	tmpl, ok := TemplateFor(archetype)
	if !ok {
		tmpl = archetypeTemplates[ArchFloater]
		archetype = ArchFloater
	}

	jitter := func(spread float64) float64 {
		if src == nil {
			return 0
		}
		return (src.Float64()*2 - 1) * spread
	}

	traits := make([]Trait, len(tmpl.Traits))
	copy(traits, tmpl.Traits)

	return &Agent{
		ID:        id,
		Name:      name,
		Archetype: archetype,
		Profile: Profile{
			Trust:       balance.ClampTrust(tmpl.Trust + jitter(10)),
			Suspicion:   balance.ClampSuspicion(tmpl.Suspicion + jitter(10)),
			Closeness:   balance.ClampCloseness(tmpl.Closeness + jitter(10)),
			Disposition: traits,
			EditBias:    balance.Clamp(tmpl.EditBias+jitter(0.1), -1, 1),
		},
	}
}
