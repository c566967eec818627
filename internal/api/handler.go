// Package api exposes the agent, song database, comparison, and operations
// endpoints over REST.
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/cache"
	"github.com/nidhogg/echoes/internal/config"
	"github.com/nidhogg/echoes/internal/ratelimit"
	"github.com/nidhogg/echoes/internal/songdb"
	"github.com/nidhogg/echoes/internal/store"
)

const apiVersion = "1.0.0"

// ExecutorBuilder constructs an executor for one model and temperature.
// The server wires this to the provider-backed agent factory; tests swap in
// scripted agents.
type ExecutorBuilder func(model string, temperature float64) (*agent.Executor, error)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	cfg     *config.Config
	songs   *songdb.DB
	store   store.Store
	cache   cache.Cache
	limiter *ratelimit.Limiter
	build   ExecutorBuilder
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
	start time.Time

	queryMu    sync.Mutex
	queryCount int

	compMu      sync.Mutex
	comparisons map[string]*comparisonRecord
	compOrder   []string
}

// New creates the API handler. limiter may be nil to disable rate limiting.
func New(
	cfg *config.Config,
	songs *songdb.DB,
	st store.Store,
	c cache.Cache,
	limiter *ratelimit.Limiter,
	build ExecutorBuilder,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:         cfg,
		songs:       songs,
		store:       st,
		cache:       c,
		limiter:     limiter,
		build:       build,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		start:       time.Now(),
		comparisons: make(map[string]*comparisonRecord),
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	// Recoverer sits inside the timeout so panics in the handler goroutine
	// are still caught.
	r.Use(requestTimeout(time.Duration(h.cfg.Server.RequestTimeoutSeconds) * time.Second))
	r.Use(middleware.Recoverer)
	if h.limiter != nil {
		r.Use(h.limiter.Middleware)
	}

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Get("/health/live", h.healthLive)
	r.Get("/health/ready", h.healthReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Agent routes
		r.Post("/agent/query", h.agentQuery)
		r.Get("/agent/models", h.agentModels)
		r.Get("/agent/history", h.agentHistory)
		r.Get("/agent/history/{executionID}", h.agentHistoryDetail)
		r.Get("/agent/cache/stats", h.cacheStats)
		r.Delete("/agent/cache", h.cacheClear)

		// Database routes
		r.Get("/database/songs", h.databaseSongs)
		r.Post("/database/search", h.databaseSearch)
		r.Get("/database/stats", h.databaseStats)
		r.Get("/database/moods", h.databaseMoods)
		r.Get("/database/albums", h.databaseAlbums)

		// Comparison routes
		r.Post("/comparison/run", h.comparisonRun)
		r.Get("/comparison/list", h.comparisonList)
		r.Get("/comparison/{comparisonID}", h.comparisonDetail)

		// Metrics routes
		r.Get("/metrics/system", h.systemMetrics)
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Echoes Agent API",
		"version": apiVersion,
		"health":  "/health",
		"endpoints": map[string]string{
			"agent":      "/api/v1/agent/query",
			"database":   "/api/v1/database/songs",
			"comparison": "/api/v1/comparison/run",
		},
	})
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   apiVersion,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) healthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "alive",
		Version:   apiVersion,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) healthReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, 3)

	if _, err := h.songs.Count(); err != nil {
		checks["database"] = "error"
	} else {
		checks["database"] = "ok"
	}
	if _, err := h.store.Recent(r.Context(), 1); err != nil {
		checks["store"] = "error"
	} else {
		checks["store"] = "ok"
	}
	if h.cfg.OpenAI.APIKey != "" {
		checks["openai_key"] = "configured"
	} else {
		checks["openai_key"] = "missing"
	}

	status := "ready"
	for _, v := range checks {
		if v != "ok" && v != "configured" {
			status = "not_ready"
			break
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Version:   apiVersion,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (h *Handler) systemMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Metrics Unavailable",
			fmt.Sprintf("Failed to read storage statistics: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": round2(h.now().Sub(h.start).Seconds()),
		"storage":        stats,
		"cache":          h.cache.Stats(r.Context()),
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "Not Found",
		fmt.Sprintf("The requested resource was not found: %s", r.URL.Path))
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for %s", r.Method, r.URL.Path))
}

type errorResponse struct {
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, errorResponse{
		Error:      title,
		Detail:     detail,
		StatusCode: status,
		Timestamp:  h.now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
