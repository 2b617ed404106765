// Package api provides the HTTP API for observing the simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/engine"
	"github.com/WestonVincze/utility-ai/internal/persistence"
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = engine.DefaultMaxEvents
	maxSpeed          = 1000
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; POST /snapshot needs it
	Metrics  http.Handler    // Optional; served at /metrics
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// DecisionsPerMinute limits /agent/{id}/decision per client IP.
	// 0 uses 60.
	DecisionsPerMinute float64

	srv *http.Server
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	perMinute := s.DecisionsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	decisionLimiter := NewRateLimiter(perMinute, 10)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgent)
	mux.HandleFunc("GET /api/v1/agent/{id}/decision", RateLimitMiddleware(decisionLimiter, s.handleDecision))
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "metrics", s.Metrics != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
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

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no WORLDSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	status := map[string]any{
		"tick":     st.Tick,
		"sim_time": st.SimTime,
		"stats":    st.Stats,
		"actions":  st.Actions,
		"events":   st.Events,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

type agentSummary struct {
	ID            agents.AgentID     `json:"id"`
	Name          string             `json:"name"`
	Position      world.HexCoord     `json:"position"`
	CurrentAction utility.ActionName `json:"current_action"`
	State         string             `json:"state"`
	Health        float64            `json:"health"`
	Alive         bool               `json:"alive"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	aliveOnly := r.URL.Query().Get("alive") == "true"
	action := r.URL.Query().Get("action")

	result := []agentSummary{}
	for _, a := range s.Sim.Agents() {
		if aliveOnly && !a.Alive {
			continue
		}
		if action != "" && string(a.CurrentAction) != action {
			continue
		}
		result = append(result, agentSummary{
			ID:            a.ID,
			Name:          a.Name,
			Position:      a.Position,
			CurrentAction: a.CurrentAction,
			State:         a.State().String(),
			Health:        a.Health,
			Alive:         a.Alive,
		})
	}
	writeJSON(w, result)
}

func agentID(w http.ResponseWriter, r *http.Request) (agents.AgentID, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return 0, false
	}
	return agents.AgentID(id), true
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}
	a, found := s.Sim.Agent(id)
	if !found {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

// handleDecision shows what the agent would choose right now and why.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(w, r)
	if !ok {
		return
	}
	d, found := s.Sim.Explain(id)
	if !found {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEventLimit {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(0)
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []engine.Event{}
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed *float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Speed == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if *req.Speed > maxSpeed {
		http.Error(w, fmt.Sprintf("speed must be 0-%d", maxSpeed), http.StatusBadRequest)
		return
	}
	if err := s.Eng.SetSpeed(*req.Speed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Info("speed changed", "speed", *req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	snap := s.Sim.Snapshot()
	id, err := s.DB.SaveWorldState(snap)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"snapshot": id,
		"tick":     snap.Tick,
		"message":  "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("write response", "error", err)
	}
}
