package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/llm"
	"github.com/talgya/castaway/internal/memory"
)

const maxEventsPerPage = 200

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.Sim.Status()
	s.mu.Unlock()

	resp := map[string]any{"game": st}
	if s.Clock != nil {
		resp["autoplay"] = map[string]any{"running": s.Clock.Running(), "speed": s.Clock.Speed()}
	}
	writeJSON(w, resp)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.AgentSummaries())
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.Sim.AgentDetail(agents.AgentID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.Relationships())
}

func (s *Server) handleAlliances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.VisibleAlliances())
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]any{
		"current": s.Sim.Ratings.Current,
		"trend":   s.Sim.Ratings.Trend(7),
		"history": s.Sim.Ratings.Recent(30),
	})
}

// handleEvents filters the event log. Query params: agent (repeatable),
// type (repeatable), from, to, min_importance, limit.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := memory.Filter{}
	for _, id := range q["agent"] {
		f.Participants = append(f.Participants, agents.AgentID(id))
	}
	for _, t := range q["type"] {
		f.Types = append(f.Types, memory.EventType(t))
	}
	var err error
	if f.FromDay, err = intParam(q.Get("from"), 0); err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	if f.ToDay, err = intParam(q.Get("to"), 0); err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if v := q.Get("min_importance"); v != "" {
		if f.MinImportance, err = strconv.ParseFloat(v, 64); err != nil {
			http.Error(w, "invalid min_importance", http.StatusBadRequest)
			return
		}
	}
	limit, err := intParam(q.Get("limit"), 50)
	if err != nil || limit <= 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	limit = min(limit, maxEventsPerPage)

	s.mu.Lock()
	events := s.Sim.Memory.Query(f)
	s.mu.Unlock()

	// Newest page.
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	if events == nil {
		events = []memory.Event{}
	}
	writeJSON(w, events)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleEmergent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ev, ok := s.Sim.Interruptor.Pending()
	s.mu.Unlock()
	if !ok {
		writeJSON(w, map[string]any{"pending": false})
		return
	}
	writeJSON(w, map[string]any{"pending": true, "event": ev})
}

func (s *Server) handlePromises(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	j, err := s.Sim.Memory.Journal(agents.PlayerID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	promises := j.Promises
	if promises == nil {
		promises = []memory.Promise{}
	}
	writeJSON(w, promises)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil || week < 1 {
		http.Error(w, "invalid week", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.WeekSummary(week))
}

// handleRecap returns the episode recap for ?week=N (default: the current
// week). Recaps are cached until the game day changes.
func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	week, err := intParam(r.URL.Query().Get("week"), s.Sim.Week())
	if err != nil || week < 1 {
		s.mu.Unlock()
		http.Error(w, "invalid week", http.StatusBadRequest)
		return
	}
	day := s.Sim.Day
	data := recapData(s.Sim.WeekSummary(week))
	s.mu.Unlock()

	s.recapMu.Lock()
	defer s.recapMu.Unlock()

	key := [2]int{week, day}
	if s.cachedRecap != nil && s.recapKey == key {
		writeJSON(w, s.cachedRecap)
		return
	}
	recap := llm.GenerateRecap(r.Context(), s.Gen, data)
	s.cachedRecap = recap
	s.recapKey = key
	writeJSON(w, recap)
}

func recapData(ws engine.WeekSummary) llm.RecapData {
	data := llm.RecapData{
		Week:        ws.Week,
		FromDay:     ws.FromDay,
		ToDay:       ws.ToDay,
		Remaining:   len(ws.Standings),
		Eliminated:  ws.Eliminated,
		Alliances:   ws.Alliances,
		RatingStart: ws.RatingStart,
		RatingEnd:   ws.RatingEnd,
	}
	for _, e := range ws.Highlights {
		data.Highlights = append(data.Highlights, fmt.Sprintf("Day %d: %s", e.Day, e.Content))
	}
	for i, st := range ws.Standings {
		if i == 3 {
			break
		}
		data.Leaders = append(data.Leaders, st.Name)
	}
	return data
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Advance()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rep)
}

// handleInteract applies a player action, then asks the target for an
// in-character reply. The reply is generated outside the game lock.
func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target   string `json:"target"`
		Content  string `json:"content"`
		Tone     string `json:"tone,omitempty"`
		Category string `json:"category,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	act := engine.PlayerAction{
		Target:   agents.AgentID(req.Target),
		Content:  req.Content,
		Tone:     engine.ParseTone(req.Tone),
		Category: req.Category,
	}

	s.mu.Lock()
	reaction, err := s.Sim.Interact(act)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	rc, err := s.Sim.ReplyContext(act.Target)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	reply, generated := llm.Reply(r.Context(), s.Gen, llm.ReplyRequest{
		Persona: llm.Persona{
			Name:      rc.Name,
			Archetype: rc.Archetype,
			Traits:    rc.Traits,
			Strategy:  rc.Strategy,
			Trust:     rc.Trust,
			Suspicion: rc.Suspicion,
			Closeness: rc.Closeness,
		},
		Recent:   rc.Recent,
		Message:  req.Content,
		Tone:     string(reaction.Tone),
		Category: act.Category,
	}, entropy.NewSeeded(uint64(reaction.Event.Seq)))

	writeJSON(w, map[string]any{
		"reaction":  reaction,
		"reply":     reply,
		"generated": generated,
	})
}

func (s *Server) handleFormAlliance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
		Secret  bool     `json:"secret"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	members := make([]agents.AgentID, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, agents.AgentID(m))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	al, err := s.Sim.FormAlliance(req.Name, members, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, al)
}

func (s *Server) handleEmergentChoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Choice string `json:"choice"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	choice, err := interrupt.ParseChoice(req.Choice)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.Sim.ResolveEmergent(choice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleConfessional(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Sim.Confessional(req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleAskVote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, err := s.Sim.AskForVote(agents.AgentID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, claim)
}

func (s *Server) handleResolvePromise(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid promise id", http.StatusBadRequest)
		return
	}
	var req struct {
		Kept bool `json:"kept"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Sim.ResolvePromise(id, req.Kept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

// handleElimination lets the player cast their ballot before the day closes.
func (s *Server) handleElimination(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vote string `json:"vote"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Sim.HoldElimination(agents.AgentID(req.Vote))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Clock == nil {
		http.Error(w, "autoplay disabled", http.StatusConflict)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Clock.SetSpeed(req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Clock.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.SaveNow(r.Context()); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	day := s.Sim.Day
	s.mu.Unlock()
	writeJSON(w, map[string]any{
		"day":     day,
		"slot":    s.Slot,
		"message": "snapshot saved",
	})
}

// handleRestore replaces the running game with the saved slot. Streams
// opened before a restore stop receiving events.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}
	snap, err := s.Store.Load(r.Context(), s.Slot)
	if err != nil {
		writeError(w, err)
		return
	}
	sim, err := engine.Restore(*snap, entropy.Streams{})
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.Sim = sim
	st := sim.Status()
	s.mu.Unlock()

	slog.Info("game restored", "slot", s.Slot, "day", st.Day)
	writeJSON(w, st)
}

func (s *Server) handleVoteClaims(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.DebugVoteClaims())
}
