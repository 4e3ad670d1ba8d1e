// Package api provides the HTTP API for observing the homestead.
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
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/homestead/internal/config"
	"github.com/talgya/homestead/internal/engine"
	"github.com/talgya/homestead/internal/persistence"
	"github.com/talgya/homestead/internal/world"
)

const (
	maxStreamConns = 8
	streamPoll     = 50 * time.Millisecond
	writeTimeout   = 5 * time.Second
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; history endpoints return 503 without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Active stream connection count (atomic).
	streamConns int32

	upgrader websocket.Upgrader
	srv      *http.Server
}

// Handler builds the request multiplexer with all routes and middleware.
func (s *Server) Handler() http.Handler {
	streamLimiter := NewRateLimiter(30, time.Minute)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/humans", s.handleHumans)
	mux.HandleFunc("/api/v1/human/", s.handleHumanDetail)
	mux.HandleFunc("/api/v1/stores", s.handleStores)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)

	// Live snapshot feed over a websocket.
	mux.HandleFunc("/api/v1/stream", RateLimitMiddleware(streamLimiter, s.handleStream))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/resume", s.adminOnly(s.handleResume))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
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
			origin = strings.TrimSpace(origin)
			if origin != "" {
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
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no "+config.EnvAdminKey+" set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// snapshot returns the latest published snapshot or writes a 503.
func (s *Server) snapshot(w http.ResponseWriter) (*engine.Snapshot, bool) {
	snap := s.Sim.Snapshot()
	if snap == nil {
		http.Error(w, "world not ready", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"tick": snap.Tick,
		"date": snap.Date,
		"weather": map[string]any{
			"description": snap.Weather.Description(),
			"sun":         snap.Weather.Sun,
			"rain":        snap.Weather.Rain,
		},
		"speed":      s.Eng.Speed(),
		"paused":     s.Eng.Paused(),
		"workers":    s.Sim.Workers(),
		"population": len(snap.Humans),
		"stores":     len(snap.Stores),
		"activities": snap.Stats.Activities,
	})
}

func (s *Server) handleHumans(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	humans := snap.Humans
	if activity := r.URL.Query().Get("activity"); activity != "" {
		filtered := make([]engine.HumanView, 0, len(humans))
		for _, h := range humans {
			if strings.HasPrefix(h.Activity, activity) {
				filtered = append(filtered, h)
			}
		}
		humans = filtered
	}
	writeJSON(w, humans)
}

// handleHumanDetail serves GET /api/v1/human/:id with the human's own store
// and the containers it may use.
func (s *Server) handleHumanDetail(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/v1/human/"))
	if err != nil || id < 0 || id >= len(snap.Humans) {
		http.Error(w, "human not found", http.StatusNotFound)
		return
	}
	hv := snap.Humans[id]

	type containerEntry struct {
		ID       world.ContainerID `json:"id"`
		Location world.Vec2        `json:"location"`
		Store    engine.StoreView  `json:"store"`
	}
	// Container lists and locations are fixed after setup.
	var containers []containerEntry
	for _, cid := range s.Sim.World.Humans[id].Containers {
		c := s.Sim.World.Container(cid)
		if c == nil || int(c.Store) >= len(snap.Stores) {
			continue
		}
		containers = append(containers, containerEntry{ID: cid, Location: c.Location, Store: snap.Stores[c.Store]})
	}

	resp := map[string]any{
		"human":      hv,
		"containers": containers,
	}
	if int(hv.Store) < len(snap.Stores) {
		resp["store"] = snap.Stores[hv.Store]
	}
	writeJSON(w, resp)
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, snap.Stores)
}

// handleMap serves the grid in row-major order plus the fixed sites.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	g := s.Sim.World.Geography

	type siteEntry struct {
		Kind     string     `json:"kind"`
		ID       int        `json:"id"`
		Location world.Vec2 `json:"location"`
	}
	sites := make([]siteEntry, 0, len(s.Sim.World.Containers)+len(s.Sim.World.Crops))
	for i, c := range s.Sim.World.Containers {
		sites = append(sites, siteEntry{Kind: "container", ID: i, Location: c.Location})
	}
	for i, c := range s.Sim.World.Crops {
		sites = append(sites, siteEntry{Kind: "crop", ID: i, Location: c.Location})
	}

	writeJSON(w, map[string]any{
		"width":  g.Width,
		"height": g.Height,
		"tiles":  g.Tiles(),
		"sites":  sites,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(limit)
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	writeJSON(w, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, snap.Stats)
}

// handleStatsHistory serves the persisted daily reports.
func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history unavailable (no database)", http.StatusServiceUnavailable)
		return
	}
	reports, err := s.DB.DailyReports()
	if err != nil {
		slog.Error("daily reports query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []engine.DailyReport{}
	}
	writeJSON(w, reports)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > engine.MaxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%g", engine.MaxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Eng.Pause()
	writeJSON(w, map[string]any{"speed": s.Eng.Speed(), "paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	speed := s.Eng.Resume()
	writeJSON(w, map[string]any{"speed": speed, "paused": false})
}

// handleStream upgrades to a websocket and pushes every newly published
// snapshot as a JSON text frame until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&s.streamConns, 1) > maxStreamConns {
		atomic.AddInt32(&s.streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.streamConns, -1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: observers send nothing, but reading surfaces the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPoll)
	defer ticker.Stop()

	var last *engine.Snapshot
	for {
		if snap := s.Sim.Snapshot(); snap != nil && snap != last {
			last = snap
			b, err := json.Marshal(snap)
			if err != nil {
				slog.Error("stream marshal failed", "error", err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
