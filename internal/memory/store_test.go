package memory

import (
	"errors"
	"testing"

	"github.com/talgya/castaway/internal/agents"
)

func newTestStore(ids ...agents.AgentID) *Store {
	s := NewStore()
	s.InitializeJournals(ids)
	return s
}

func mustRecord(t *testing.T, s *Store, e Event) Event {
	t.Helper()
	got, err := s.RecordEvent(e)
	if err != nil {
		t.Fatalf("RecordEvent(%s) error = %v", e.Type, err)
	}
	return got
}

func TestRecordEvent_AppendsToLogAndJournals(t *testing.T) {
	s := newTestStore("a", "b", "c")
	e := mustRecord(t, s, Event{Day: 1, Type: Conversation, Participants: []agents.AgentID{"a", "b"}, Impact: 3, Importance: 4})

	if e.Seq != 1 {
		t.Errorf("Seq = %d, want 1", e.Seq)
	}
	if e.Reliability != Confirmed {
		t.Errorf("Reliability = %q, want confirmed default", e.Reliability)
	}
	for _, id := range []agents.AgentID{"a", "b"} {
		j, _ := s.Journal(id)
		if len(j.Events) != 1 {
			t.Errorf("journal %s has %d events, want 1", id, len(j.Events))
		}
	}
	if j, _ := s.Journal("c"); len(j.Events) != 0 {
		t.Errorf("bystander journal has %d events, want 0", len(j.Events))
	}
}

func TestRecordEvent_Invariants(t *testing.T) {
	s := newTestStore("a", "b")

	_, err := s.RecordEvent(Event{Day: 1, Type: Conversation, Participants: []agents.AgentID{"a", "ghost"}})
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Errorf("unknown participant error = %v, want ErrUnknownParticipant", err)
	}
	if s.Len() != 0 {
		t.Errorf("rejected event was logged")
	}

	mustRecord(t, s, Event{Day: 5, Type: Conversation, Participants: []agents.AgentID{"a"}})
	_, err = s.RecordEvent(Event{Day: 4, Type: Conversation, Participants: []agents.AgentID{"a"}})
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("earlier day error = %v, want ErrOutOfOrder", err)
	}
}

func TestRecordEvent_ClampsAndScores(t *testing.T) {
	s := newTestStore("a", "b")
	e := mustRecord(t, s, Event{Day: 1, Type: Betrayal, Participants: []agents.AgentID{"a", "b", "a"}, Impact: -25, Importance: 40})

	if e.Impact != -10 || e.Importance != 10 {
		t.Errorf("clamped impact/importance = %v/%v, want -10/10", e.Impact, e.Importance)
	}
	if len(e.Participants) != 2 {
		t.Errorf("participants = %v, want deduplicated", e.Participants)
	}

	j, _ := s.Journal("a")
	// |−10| × 2 × 2 for betrayal
	if got := j.Threat["b"]; got != 40 {
		t.Errorf("threat[b] = %v, want 40", got)
	}

	mustRecord(t, s, Event{Day: 2, Type: Conversation, Participants: []agents.AgentID{"a", "b"}, Impact: 4})
	j, _ = s.Journal("b")
	if got := j.Bond["a"]; got != 8 {
		t.Errorf("bond[a] = %v, want 8", got)
	}

	for i := 0; i < 20; i++ {
		mustRecord(t, s, Event{Day: 3, Type: Scheme, Participants: []agents.AgentID{"a", "b"}, Impact: -10})
	}
	j, _ = s.Journal("a")
	if got := j.Threat["b"]; got != 100 {
		t.Errorf("threat[b] = %v, want clamp at 100", got)
	}
}

func TestQuery_BetrayalHighImportance(t *testing.T) {
	s := newTestStore("a", "b", "c")
	mustRecord(t, s, Event{Day: 1, Type: Betrayal, Participants: []agents.AgentID{"a", "b"}, Importance: 9, Content: "first"})
	mustRecord(t, s, Event{Day: 1, Type: Betrayal, Participants: []agents.AgentID{"b", "c"}, Importance: 5, Content: "minor"})
	mustRecord(t, s, Event{Day: 2, Type: Scheme, Participants: []agents.AgentID{"a", "c"}, Importance: 9, Content: "scheme"})
	mustRecord(t, s, Event{Day: 3, Type: Betrayal, Participants: []agents.AgentID{"c", "a"}, Importance: 8, Content: "second"})

	got := s.Query(Filter{Types: []EventType{Betrayal}, MinImportance: 8})
	if len(got) != 2 {
		t.Fatalf("Query() returned %d events, want 2", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("Query() order = %q, %q; want first, second", got[0].Content, got[1].Content)
	}
	for _, e := range got {
		if e.Type != Betrayal || e.Importance < 8 {
			t.Errorf("Query() returned non-matching event %+v", e)
		}
	}
}

func TestQuery_Filters(t *testing.T) {
	s := newTestStore("a", "b", "c")
	mustRecord(t, s, Event{Day: 1, Type: GossipSpread, Participants: []agents.AgentID{"a"}, Reliability: Rumor})
	mustRecord(t, s, Event{Day: 2, Type: Conversation, Participants: []agents.AgentID{"b", "c"}})
	mustRecord(t, s, Event{Day: 4, Type: Conversation, Participants: []agents.AgentID{"a", "c"}})

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"participant a", Filter{Participants: []agents.AgentID{"a"}}, 2},
		{"participants a or b", Filter{Participants: []agents.AgentID{"a", "b"}}, 3},
		{"day window", Filter{FromDay: 2, ToDay: 3}, 1},
		{"open ended", Filter{FromDay: 2}, 2},
		{"rumors", Filter{Reliability: []Reliability{Rumor}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(s.Query(tt.filter)); got != tt.want {
				t.Errorf("Query() = %d events, want %d", got, tt.want)
			}
		})
	}
	if got := len(s.OnDay(4)); got != 1 {
		t.Errorf("OnDay(4) = %d events, want 1", got)
	}
}

func TestVotingPlan_LastWriteWins(t *testing.T) {
	s := newTestStore("a", "b", "c")
	if err := s.UpdateVotingPlan("a", "b", Provenance{Source: "inference", Day: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateVotingPlan("a", "c", Provenance{Source: "player", Day: 2}); err != nil {
		t.Fatal(err)
	}
	p := s.Plan("a")
	if p.Target != "c" || p.Provenance.Source != "player" || p.Provenance.Day != 2 {
		t.Errorf("Plan(a) = %+v, want target c from player on day 2", p)
	}
	if err := s.UpdateVotingPlan("ghost", "a", Provenance{}); !errors.Is(err, ErrNoJournal) {
		t.Errorf("UpdateVotingPlan(ghost) error = %v, want ErrNoJournal", err)
	}
}

func TestPromises(t *testing.T) {
	s := newTestStore("a", "b")
	id, err := s.MakePromise("a", "b", "I'll keep you safe", 3)
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.ResolvePromise("a", id, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.State != PromiseBroken {
		t.Errorf("State = %q, want broken", p.State)
	}
	// Resolution is final.
	p, _ = s.ResolvePromise("a", id, true)
	if p.State != PromiseBroken {
		t.Errorf("re-resolved State = %q, want broken", p.State)
	}
	if _, err := s.ResolvePromise("a", 99, true); !errors.Is(err, ErrUnknownPromise) {
		t.Errorf("ResolvePromise(99) error = %v, want ErrUnknownPromise", err)
	}
	j, _ := s.Journal("a")
	if len(j.PendingPromises()) != 0 {
		t.Errorf("PendingPromises() = %v, want none", j.PendingPromises())
	}
}

func TestJournalOps(t *testing.T) {
	s := newTestStore("a", "b")
	s.SetStrategy("a", "lay low")
	s.AddGoal("a", "reach the final three")
	s.AddGoal("a", "reach the final three")
	s.AddNote("a", "b", "talks too much")
	s.AddSecret("a", Secret{Text: "has an idol", Day: 2, About: []agents.AgentID{"b"}})

	j, err := s.Journal("a")
	if err != nil {
		t.Fatal(err)
	}
	if j.Strategy != "lay low" || len(j.Goals) != 1 || len(j.Notes["b"]) != 1 || len(j.Secrets) != 1 {
		t.Errorf("journal = %+v", j)
	}

	// Journal returns a copy.
	j.Goals[0] = "mutated"
	again, _ := s.Journal("a")
	if again.Goals[0] != "reach the final three" {
		t.Error("Journal() leaked internal state")
	}
}

func TestGossip_SpreadIsMonotonic(t *testing.T) {
	s := newTestStore("a", "b", "c")
	g, err := s.AddGossip(Gossip{Info: "b is playing both sides", Source: "a", About: "b", Day: 2})
	if err != nil {
		t.Fatal(err)
	}
	if g.Reliability != Rumor {
		t.Errorf("Reliability = %q, want rumor default", g.Reliability)
	}

	if fresh, _ := s.SpreadGossip(g.ID, "c"); !fresh {
		t.Error("first spread to c should be fresh")
	}
	if fresh, _ := s.SpreadGossip(g.ID, "c"); fresh {
		t.Error("second spread to c should not be fresh")
	}
	if fresh, _ := s.SpreadGossip(g.ID, "a"); fresh {
		t.Error("spreading to the source should not be fresh")
	}
	if _, err := s.SpreadGossip(42, "c"); !errors.Is(err, ErrUnknownGossip) {
		t.Errorf("SpreadGossip(42) error = %v, want ErrUnknownGossip", err)
	}

	if got := len(s.GossipKnownBy("c")); got != 1 {
		t.Errorf("GossipKnownBy(c) = %d, want 1", got)
	}
	if got := len(s.GossipKnownBy("b")); got != 0 {
		t.Errorf("GossipKnownBy(b) = %d, want 0", got)
	}
	if got := len(s.Gossip()[0].SpreadTo); got != 1 {
		t.Errorf("SpreadTo = %d entries, want 1", got)
	}
}

func TestStrategicContext(t *testing.T) {
	s := newTestStore("a", "b", "c", "d")
	s.SetStrategy("a", "build a majority")
	for day := 1; day <= 7; day++ {
		mustRecord(t, s, Event{Day: day, Type: Conversation, Participants: []agents.AgentID{"a", "b"}, Impact: 1, Importance: float64(day)})
	}
	mustRecord(t, s, Event{Day: 7, Type: Scheme, Participants: []agents.AgentID{"a", "c"}, Impact: -5, Importance: 9})

	shared := func(id agents.AgentID) int {
		if id == "d" {
			return 1
		}
		return 0
	}
	ctx, err := s.StrategicContext("a", shared)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Strategy != "build a majority" {
		t.Errorf("Strategy = %q", ctx.Strategy)
	}
	if len(ctx.Recent) != 5 {
		t.Fatalf("Recent = %d events, want 5", len(ctx.Recent))
	}
	if ctx.Recent[0].Type != Scheme {
		t.Errorf("Recent[0] = %s, want the day 7 scheme ranked by importance", ctx.Recent[0].Type)
	}
	if len(ctx.TopThreats) != 1 || ctx.TopThreats[0].Agent != "c" {
		t.Errorf("TopThreats = %+v, want c", ctx.TopThreats)
	}
	// d: 25 from the shared alliance; b: 7 conversations × 2 bond = 14
	if len(ctx.Allies) != 2 || ctx.Allies[0].Agent != "d" || ctx.Allies[1].Agent != "b" {
		t.Errorf("Allies = %+v, want d then b", ctx.Allies)
	}

	if _, err := s.StrategicContext("ghost", nil); !errors.Is(err, ErrNoJournal) {
		t.Errorf("StrategicContext(ghost) error = %v, want ErrNoJournal", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestStore("a", "b")
	mustRecord(t, s, Event{Day: 2, Type: Conversation, Participants: []agents.AgentID{"a", "b"}, Impact: 2})
	s.UpdateVotingPlan("a", "b", Provenance{Source: "inference", Day: 2})
	g, _ := s.AddGossip(Gossip{Info: "x", Source: "a", Day: 2})
	s.SpreadGossip(g.ID, "b")

	r := NewStore()
	r.Restore(s.Snapshot())

	if r.Len() != 1 || r.LastDay() != 2 {
		t.Errorf("restored log len=%d lastDay=%d", r.Len(), r.LastDay())
	}
	if r.Plan("a").Target != "b" {
		t.Errorf("restored plan = %+v", r.Plan("a"))
	}
	if len(r.GossipKnownBy("b")) != 1 {
		t.Error("restored gossip lost its spread set")
	}
	e := mustRecord(t, r, Event{Day: 3, Type: Conversation, Participants: []agents.AgentID{"b"}})
	if e.Seq != 2 {
		t.Errorf("Seq after restore = %d, want 2", e.Seq)
	}
	if _, err := r.RecordEvent(Event{Day: 1, Type: Conversation}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("restored store accepted an out-of-order event: %v", err)
	}
}

func TestBallot(t *testing.T) {
	e := NewBallot(7, "a", "b", "a votes b")
	voter, target, ok := e.Ballot()
	if !ok || voter != "a" || target != "b" {
		t.Errorf("Ballot() = %s, %s, %v", voter, target, ok)
	}
	if _, _, ok := (Event{Type: Conversation}).Ballot(); ok {
		t.Error("Ballot() on a conversation should fail")
	}
}
