package ratings

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/memory"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestApplyReaction(t *testing.T) {
	got := ApplyReaction(5, Reaction{Entertainment: 5, Influence: 2, Trust: 10, Suspicion: 4})
	// 0.1 + 0.02 + 0.08 - 0.06
	if !near(got.Delta, 0.14) {
		t.Errorf("Delta = %v, want 0.14", got.Delta)
	}

	neg := ApplyReaction(5, Reaction{Trust: -10, Suspicion: -4})
	// -0.15 + 0.02
	if !near(neg.Delta, -0.13) {
		t.Errorf("Delta = %v, want -0.13", neg.Delta)
	}

	capped := ApplyReaction(5, Reaction{Entertainment: 100})
	if !near(capped.Delta, reactionCap) {
		t.Errorf("Delta = %v, want cap %v", capped.Delta, reactionCap)
	}
}

func TestApplyConfessional(t *testing.T) {
	got := ApplyConfessional(5, 2, 60, true)
	// 0.06 + 0.04 + 0.05
	if !near(got.Delta, 0.15) || got.Reason != "aired confessional" {
		t.Errorf("ApplyConfessional() = %+v, want delta 0.15 aired", got)
	}
	if got := ApplyConfessional(5, -10, 0, false); !near(got.Delta, -0.5) {
		t.Errorf("Delta = %v, want -0.5 cap", got.Delta)
	}
}

func TestApplyEmergent(t *testing.T) {
	if got := ApplyEmergent(5, 2); !near(got.Delta, 0.3) {
		t.Errorf("Delta = %v, want 0.3", got.Delta)
	}
	if got := ApplyEmergent(5, 10); !near(got.Delta, emergentCap) {
		t.Errorf("Delta = %v, want cap", got.Delta)
	}
}

func TestApplyDailyBuzz_PullsTowardBaseline(t *testing.T) {
	got := ApplyDailyBuzz(9, Buzz{})
	if !(got.Value < 9 && got.Value > 5) {
		t.Errorf("idle buzz from 9 = %v, want a pull toward 5", got.Value)
	}
	if !near(got.Value, 9-0.04) {
		t.Errorf("Value = %v, want 8.96", got.Value)
	}

	busy := ApplyDailyBuzz(5, Buzz{Drama: 10, Strategy: 10, Eliminations: 1})
	if !near(busy.Value, 5.2-0.002) {
		t.Errorf("Value = %v, want 5.198", busy.Value)
	}
}

func TestCountBuzz(t *testing.T) {
	events := []memory.Event{
		{Type: memory.Betrayal}, {Type: memory.GossipSpread}, {Type: memory.EmergentEvent},
		{Type: memory.Vote}, {Type: memory.AllianceForm},
		{Type: memory.EliminationOut},
		{Type: memory.Conversation},
	}
	got := CountBuzz(events, 2)
	want := Buzz{Drama: 3, Strategy: 2, Eliminations: 1, ActiveAlliance: 2}
	if got != want {
		t.Errorf("CountBuzz() = %+v, want %+v", got, want)
	}
}

func TestRatingStaysInRange(t *testing.T) {
	src := entropy.NewSeeded(7)
	st := NewState()
	extreme := func() float64 { return (src.Float64()*2 - 1) * 1e6 }

	for day := 1; day <= 2000; day++ {
		var u Update
		switch src.IntN(4) {
		case 0:
			u = ApplyReaction(st.Current, Reaction{extreme(), extreme(), extreme(), extreme()})
		case 1:
			u = ApplyConfessional(st.Current, extreme(), extreme(), src.Float64() < 0.5)
		case 2:
			u = ApplyEmergent(st.Current, extreme())
		default:
			u = ApplyDailyBuzz(st.Current, Buzz{Drama: src.IntN(1000), Strategy: src.IntN(1000), Eliminations: src.IntN(5)})
		}
		if err := st.Record(day, u); err != nil {
			t.Fatal(err)
		}
		if math.IsNaN(st.Current) || st.Current < 0 || st.Current > 10 {
			t.Fatalf("day %d: rating %v out of range", day, st.Current)
		}
	}
	if len(st.History) != 2000 {
		t.Errorf("History = %d entries, want 2000", len(st.History))
	}
}

func TestApply_OpposingInfinitiesAreNoChange(t *testing.T) {
	tests := []struct {
		name string
		u    Update
	}{
		{"reaction", ApplyReaction(5, Reaction{Entertainment: math.Inf(1), Influence: math.Inf(-1)})},
		{"confessional", ApplyConfessional(5, math.Inf(1), math.Inf(-1), false)},
		{"emergent", ApplyEmergent(5, math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.IsNaN(tt.u.Value) || tt.u.Value != 5 || tt.u.Delta != 0 {
				t.Errorf("update = %+v, want value 5 with no delta", tt.u)
			}
		})
	}
}

func TestRecord_AppendOnlyOrdered(t *testing.T) {
	st := NewState()
	if err := st.Record(3, Update{Value: 6, Reason: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Record(3, Update{Value: 6.5, Reason: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Record(2, Update{Value: 1, Reason: "c"}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("Record(day 2) error = %v, want ErrOutOfOrder", err)
	}
	if st.Current != 6.5 || len(st.History) != 2 {
		t.Errorf("state = %+v", st)
	}
	if got := st.Trend(5); !near(got, 0.5) {
		t.Errorf("Trend() = %v, want 0.5", got)
	}
	if got := len(st.Recent(1)); got != 1 {
		t.Errorf("Recent(1) = %d entries", got)
	}
}
