// Package api serves a live view of the growing tiling over HTTP.
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

	"github.com/talgya/goldgrow/internal/engine"
	"github.com/talgya/goldgrow/internal/ledger"
	"github.com/talgya/goldgrow/internal/render"
)

// Server serves the tiling state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *ledger.DB // Optional; run history endpoints answer 503 without it.
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	RunID   string         // Ledger ID of the current run, if any
	Seed    int64          // Seed of the current run
	Palette string         // Palette name of the current run
	Frame   render.Options // Surface used by the frame endpoints

	// FrameLimit caps frame renders per client per minute (0 = 60).
	FrameLimit int
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	limit := s.FrameLimit
	if limit <= 0 {
		limit = 60
	}
	// Frames are rendered on demand from a full snapshot.
	frameLimiter := NewRateLimiter(limit, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/vertices", s.handleVertices)
	mux.HandleFunc("GET /api/v1/triangles", s.handleTriangles)
	mux.HandleFunc("GET /api/v1/frame.svg", RateLimitMiddleware(frameLimiter, s.handleFrame(&render.SVGRenderer{})))
	mux.HandleFunc("GET /api/v1/frame.png", RateLimitMiddleware(frameLimiter, s.handleFrame(&render.PNGRenderer{})))
	mux.HandleFunc("GET /api/v1/runs", s.handleRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}/samples", s.handleSamples)

	// Admin endpoint (POST requires bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving in a goroutine. The returned server is shut down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
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
				http.Error(w, "admin endpoints disabled (no GOLDGROW_ADMIN_KEY set)", http.StatusForbidden)
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Stats()
	status := map[string]any{
		"name":       "goldgrow",
		"run":        s.RunID,
		"seed":       s.Seed,
		"palette":    s.Palette,
		"steps":      st.Steps,
		"vertices":   st.Vertices,
		"triangles":  st.Triangles,
		"open":       st.Open,
		"closed":     st.Closed,
		"halted":     st.Halted,
		"started_at": st.StartedAt,
		"uptime":     time.Since(st.StartedAt).Round(time.Second).String(),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleVertices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Vertices())
}

// handleTriangles returns triangles with ID >= since, so a viewer can poll
// for just the new ones.
func (s *Server) handleTriangles(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}

	tris := s.Sim.TrianglesSince(since)
	writeJSON(w, map[string]any{
		"since":     since,
		"next":      since + len(tris),
		"triangles": tris,
	})
}

func (s *Server) handleFrame(rd render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := s.frameOptions(r)
		if err := opts.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch rd.Name() {
		case "svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		case "png":
			w.Header().Set("Content-Type", "image/png")
		}
		if err := rd.Render(w, s.Sim.Snapshot(), opts); err != nil {
			slog.Error("frame render failed", "format", rd.Name(), "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
		}
	}
}

// frameOptions applies ?w= and ?h= overrides, capped at 4096 pixels.
func (s *Server) frameOptions(r *http.Request) render.Options {
	opts := s.Frame
	if opts.Width == 0 && opts.Height == 0 {
		opts = render.DefaultOptions()
	}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("w")); err == nil {
		opts.Width = min(v, 4096)
	}
	if v, err := strconv.Atoi(q.Get("h")); err == nil {
		opts.Height = min(v, 4096)
	}
	return opts
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	runs, err := s.DB.Runs(limit)
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	samples, err := s.DB.Samples(r.PathValue("id"))
	if err != nil {
		slog.Error("list samples", "run", r.PathValue("id"), "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, samples)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
