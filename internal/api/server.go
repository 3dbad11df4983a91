// Package api serves the game over HTTP.
// GET endpoints read game state; gameplay POSTs act as the player.
// Admin endpoints (save/restore, speed, vote debugging) require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/llm"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/persistence"
	"github.com/talgya/castaway/internal/social"
	"github.com/talgya/castaway/internal/vote"
)

const maxStreamConns = 4

// Server serves one game over HTTP. All access to Sim goes through mu.
type Server struct {
	Sim      *engine.Simulation
	Clock    *engine.Clock     // nil when autoplay is off
	Gen      llm.Generator     // nil falls back to templated dialogue
	Store    persistence.Store // nil disables save and restore
	Slot     string            // save slot used by snapshot and restore
	Port     int
	AdminKey string   // Bearer token for admin endpoints. Empty = admin disabled.
	RelayKey string   // Token for the event stream. Empty = streaming disabled.
	Origins  []string // Extra CORS origins beyond localhost dev servers

	InteractPerMinute int // per-IP budget for /interact; 0 means 30

	mu sync.Mutex

	streamMu    sync.Mutex
	streamConns int

	recapMu     sync.Mutex
	cachedRecap *llm.Recap
	recapKey    [2]int // week, day the cached recap was built on

	httpServer *http.Server
}

// Advance closes the current day. The autoplay clock steps through here so
// it shares the request lock.
func (s *Server) Advance() (engine.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Sim.AdvanceDay()
}

// SaveNow writes the running game to the configured slot.
func (s *Server) SaveNow(ctx context.Context) error {
	if s.Store == nil {
		return errors.New("storage not available")
	}
	s.mu.Lock()
	snap := s.Sim.Snapshot()
	s.mu.Unlock()
	return s.Store.Save(ctx, s.Slot, &snap)
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	// Rate limiters for endpoints that may call text generation.
	perMinute := s.InteractPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	replyLimiter := NewRateLimiter(perMinute, time.Minute)
	recapLimiter := NewRateLimiter(10, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgentDetail)
	mux.HandleFunc("GET /api/v1/relationships", s.handleRelationships)
	mux.HandleFunc("GET /api/v1/alliances", s.handleAlliances)
	mux.HandleFunc("GET /api/v1/rating", s.handleRating)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/emergent", s.handleEmergent)
	mux.HandleFunc("GET /api/v1/promises", s.handlePromises)
	mux.HandleFunc("GET /api/v1/week/{week}", s.handleWeek)
	mux.HandleFunc("GET /api/v1/recap", RateLimitMiddleware(recapLimiter, s.handleRecap))

	mux.HandleFunc("POST /api/v1/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/v1/interact", RateLimitMiddleware(replyLimiter, s.handleInteract))
	mux.HandleFunc("POST /api/v1/alliance", s.handleFormAlliance)
	mux.HandleFunc("POST /api/v1/emergent/choice", s.handleEmergentChoice)
	mux.HandleFunc("POST /api/v1/confessional", s.handleConfessional)
	mux.HandleFunc("POST /api/v1/agent/{id}/ask-vote", s.handleAskVote)
	mux.HandleFunc("POST /api/v1/promise/{id}", s.handleResolvePromise)
	mux.HandleFunc("POST /api/v1/elimination", s.handleElimination)

	// Event stream (websocket, relay token).
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/restore", s.adminOnly(s.handleRestore))
	mux.HandleFunc("GET /api/v1/debug/vote-claims", s.adminOnly(s.handleVoteClaims))

	return corsMiddleware(s.Origins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no CASTAWAY_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if bearerToken(r) != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownAgent),
		errors.Is(err, memory.ErrUnknownPromise),
		errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAwaitingChoice),
		errors.Is(err, engine.ErrGameOver),
		errors.Is(err, engine.ErrEliminationHeld),
		errors.Is(err, engine.ErrNotEliminationDay),
		errors.Is(err, interrupt.ErrNoPendingEvent),
		errors.Is(err, social.ErrDuplicateAlliance):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInactiveAgent),
		errors.Is(err, engine.ErrInvalidVote),
		errors.Is(err, interrupt.ErrInvalidChoice),
		errors.Is(err, social.ErrTooFewMembers),
		errors.Is(err, social.ErrInactiveMember),
		errors.Is(err, vote.ErrUnknownVoter):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
