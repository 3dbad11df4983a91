package agents

import (
	"testing"

	"github.com/talgya/castaway/internal/entropy"
)

func TestSeedCast(t *testing.T) {
	cast, err := SeedCast(8, "Sam", entropy.NewSeeded(1))
	if err != nil {
		t.Fatalf("SeedCast() error = %v", err)
	}
	if len(cast) != 8 {
		t.Fatalf("len(cast) = %d, want 8", len(cast))
	}
	if !cast[0].IsPlayer || cast[0].ID != PlayerID || cast[0].Name != "Sam" {
		t.Errorf("cast[0] = %+v, want player Sam", cast[0])
	}

	seen := make(map[AgentID]bool)
	for _, a := range cast {
		if seen[a.ID] {
			t.Errorf("duplicate agent ID %q", a.ID)
		}
		seen[a.ID] = true
		if a.IsPlayer {
			continue
		}
		if len(a.Profile.Disposition) == 0 {
			t.Errorf("%s has no disposition", a.Name)
		}
		if a.Profile.Suspicion < 0 || a.Profile.Suspicion > 100 {
			t.Errorf("%s suspicion %v out of range", a.Name, a.Profile.Suspicion)
		}
	}
}

func TestSeedCast_Deterministic(t *testing.T) {
	a, _ := SeedCast(6, "", entropy.NewSeeded(9))
	b, _ := SeedCast(6, "", entropy.NewSeeded(9))
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Profile.Trust != b[i].Profile.Trust {
			t.Fatalf("cast differs at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSeedCast_Bounds(t *testing.T) {
	if _, err := SeedCast(1, "", entropy.NewSeeded(1)); err == nil {
		t.Error("SeedCast(1) error = nil, want error")
	}
	if _, err := SeedCast(MaxCast+1, "", entropy.NewSeeded(1)); err == nil {
		t.Error("SeedCast(MaxCast+1) error = nil, want error")
	}
}

func TestNewContestant_TemplateExact(t *testing.T) {
	a := NewContestant("vera", "Vera", ArchVillain, nil)
	if !a.HasTrait(TraitCompetitive) || !a.HasTrait(TraitDeceptive) {
		t.Errorf("villain traits = %v", a.Profile.Disposition)
	}
	if a.Profile.Suspicion != 45 {
		t.Errorf("Suspicion = %v, want 45", a.Profile.Suspicion)
	}

	u := NewContestant("x", "X", "Unknown", nil)
	if u.Archetype != ArchFloater {
		t.Errorf("unknown archetype fell back to %q, want %q", u.Archetype, ArchFloater)
	}
}

func TestActiveAgentsAndEliminate(t *testing.T) {
	list := []*Agent{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	list[1].Eliminate(7)

	active := ActiveAgents(list)
	if len(active) != 2 || active[0].ID != "a" || active[1].ID != "c" {
		t.Errorf("ActiveAgents() = %v", IDs(active))
	}
	if list[1].EliminatedDay != 7 {
		t.Errorf("EliminatedDay = %d, want 7", list[1].EliminatedDay)
	}
	if idx := Index(list); idx["b"] != list[1] {
		t.Error("Index()[b] mismatch")
	}
}
