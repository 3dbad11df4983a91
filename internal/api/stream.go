package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/castaway/internal/memory"
)

const (
	streamCatchUp   = 50
	streamPingEvery = 25 * time.Second
	streamReadWait  = 60 * time.Second
	streamWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The relay token gates access; origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream relays recorded events over a websocket. Browsers cannot set
// headers on a websocket handshake, so the relay token may also be passed
// as ?token=.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token != s.RelayKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !s.acquireStream() {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseStream()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.mu.Lock()
	sim := s.Sim
	events := sim.Memory.Events()
	s.mu.Unlock()

	subID, ch := sim.Subscribe()
	defer sim.Unsubscribe(subID)

	if len(events) > streamCatchUp {
		events = events[len(events)-streamCatchUp:]
	}
	for _, e := range events {
		if err := writeEvent(conn, e); err != nil {
			return
		}
	}

	// Reader: handles pongs and notices the client going away.
	closed := make(chan struct{})
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()

	slog.Info("stream client connected", "remote", clientIP(r))
	for {
		select {
		case <-closed:
			slog.Info("stream client disconnected", "remote", clientIP(r))
			return
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(conn, e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, e memory.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(e)
}

func (s *Server) acquireStream() bool {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	if s.streamConns >= maxStreamConns {
		return false
	}
	s.streamConns++
	return true
}

func (s *Server) releaseStream() {
	s.streamMu.Lock()
	s.streamConns--
	s.streamMu.Unlock()
}
