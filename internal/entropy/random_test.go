package entropy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 20; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
	}
}

func TestNewStreams_Independent(t *testing.T) {
	s := NewStreams(7)
	same := 0
	for i := 0; i < 10; i++ {
		if s.Decision.Float64() == s.Flavor.Float64() {
			same++
		}
	}
	if same == 10 {
		t.Error("decision and flavor streams produced identical sequences")
	}
}

func TestScript_CyclesAndMaps(t *testing.T) {
	s := NewScript(0.1, 0.99)
	if got := s.Float64(); got != 0.1 {
		t.Errorf("Float64() = %v, want 0.1", got)
	}
	if got := s.IntN(4); got != 3 {
		t.Errorf("IntN(4) = %d, want 3", got)
	}
	// Cycles back to the first value.
	if got := s.IntN(10); got != 1 {
		t.Errorf("IntN(10) = %d, want 1", got)
	}
}

func TestChanceAndPick(t *testing.T) {
	s := NewScript(0.2, 0.6, 0.5)
	if !Chance(s, 0.35) {
		t.Error("Chance(0.2 < 0.35) = false, want true")
	}
	if Chance(s, 0.35) {
		t.Error("Chance(0.6 < 0.35) = true, want false")
	}
	if got := Pick(s, []string{"a", "b", "c", "d"}); got != "c" {
		t.Errorf("Pick() = %q, want c", got)
	}
}

func TestRemote_NilKeyDisabled(t *testing.T) {
	if r := NewRemote(""); r != nil {
		t.Fatal("NewRemote(\"\") should return nil")
	}
	var r *Remote
	if v := r.Float64(); v < 0 || v >= 1 {
		t.Errorf("nil Remote Float64() = %v, want [0,1)", v)
	}
}

func TestRemote_UsesPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := make([]float64, 20)
		for i := range data {
			data[i] = 0.25
		}
		resp := map[string]any{"result": map[string]any{"random": map[string]any{"data": data}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r := NewRemote("key")
	r.url = srv.URL
	if got := r.Float64(); got != 0.25 {
		t.Errorf("Float64() = %v, want 0.25", got)
	}
	if got := r.IntN(8); got != 2 {
		t.Errorf("IntN(8) = %d, want 2", got)
	}
}

func TestRemote_FetchDropsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fractionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Params.N != 4 {
			t.Errorf("request = %+v, %v, want n=4", req, err)
		}
		resp := map[string]any{"result": map[string]any{"random": map[string]any{"data": []float64{0.1, 1.5, -0.2, 0.7}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r := NewRemote("key")
	r.url = srv.URL
	vals, err := r.fetch(context.Background(), 4)
	if err != nil {
		t.Fatalf("fetch() error: %v", err)
	}
	if len(vals) != 2 || vals[0] != 0.1 || vals[1] != 0.7 {
		t.Errorf("fetch() = %v, want [0.1 0.7]", vals)
	}
}

func TestRemote_RPCErrorFallsBack(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 401, "message": "bad key"}})
	}))
	defer srv.Close()

	r := NewRemote("key")
	r.url = srv.URL
	if _, err := r.fetch(context.Background(), 1); !errors.Is(err, ErrRemoteRPC) {
		t.Errorf("fetch() error = %v, want ErrRemoteRPC", err)
	}

	hits.Store(0)
	for range 5 {
		if v := r.Float64(); v < 0 || v >= 1 {
			t.Fatalf("Float64() = %v, want [0,1)", v)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests during outage = %d, want 1", n)
	}
}
