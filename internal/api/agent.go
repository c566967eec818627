package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/store"
)

const (
	maxQueryLen         = 2000
	defaultHistoryLimit = 50
	cleanupEvery        = 100
)

type queryRequest struct {
	Query         string   `json:"query"`
	Model         string   `json:"model"`
	Temperature   *float64 `json:"temperature"`
	MaxIterations *int     `json:"max_iterations"`
}

func (h *Handler) agentQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" || len(req.Query) > maxQueryLen {
		h.writeError(w, http.StatusBadRequest, "Validation Error",
			"query must be between 1 and 2000 characters")
		return
	}

	model := req.Model
	if model == "" {
		model = h.cfg.Agent.DefaultModel
	}
	temperature := h.cfg.Agent.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		h.writeError(w, http.StatusBadRequest, "Validation Error",
			"temperature must be between 0.0 and 1.0")
		return
	}
	maxIterations := h.cfg.Agent.MaxIterations
	if req.MaxIterations != nil {
		maxIterations = *req.MaxIterations
	}
	if maxIterations < 1 || maxIterations > 10 {
		h.writeError(w, http.StatusBadRequest, "Validation Error",
			"max_iterations must be between 1 and 10")
		return
	}

	// A hit is re-identified so every response carries its own execution id
	// and timestamp; the stored entry is untouched.
	if exec, ok := h.cache.Get(r.Context(), req.Query, model, temperature); ok {
		exec.ExecutionID = h.newID()
		exec.Timestamp = h.now().UTC().Format(time.RFC3339)
		exec.FromCache = true
		writeJSON(w, http.StatusOK, exec)
		return
	}

	h.logger.Info("executing query",
		zap.String("model", model),
		zap.String("query", truncate(req.Query, 50)))

	executor, err := h.build(model, temperature)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Query Execution Failed",
			fmt.Sprintf("Failed to execute query: %s", err))
		return
	}
	exec, err := executor.Execute(r.Context(), req.Query, maxIterations)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Query Execution Failed",
			fmt.Sprintf("Failed to execute query: %s", err))
		return
	}

	h.cache.Set(r.Context(), req.Query, model, temperature, exec)
	if err := h.store.Save(r.Context(), exec); err != nil {
		h.logger.Warn("execution save failed",
			zap.String("execution_id", exec.ExecutionID),
			zap.Error(err))
	}
	h.maybeCleanup(r.Context())

	writeJSON(w, http.StatusOK, exec)
}

// maybeCleanup prunes executions past retention every cleanupEvery queries.
func (h *Handler) maybeCleanup(ctx context.Context) {
	h.queryMu.Lock()
	h.queryCount++
	due := h.queryCount%cleanupEvery == 0
	h.queryMu.Unlock()
	if !due {
		return
	}

	deleted, err := h.store.Cleanup(ctx)
	if err != nil {
		h.logger.Warn("execution cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		h.logger.Info("old executions cleaned up", zap.Int64("deleted", deleted))
	}
}

type modelInfo struct {
	Name            string             `json:"name"`
	DisplayName     string             `json:"display_name"`
	Description     string             `json:"description,omitempty"`
	MaxTokens       int                `json:"max_tokens"`
	CostPer1KTokens map[string]float64 `json:"cost_per_1k_tokens"`
}

var modelCatalog = map[string]modelInfo{
	"gpt-4o-mini": {
		Name:            "gpt-4o-mini",
		DisplayName:     "GPT-4o Mini",
		Description:     "Fast and cost-effective model for most tasks",
		MaxTokens:       128000,
		CostPer1KTokens: map[string]float64{"prompt": 0.00015, "completion": 0.0006},
	},
	"gpt-4o": {
		Name:            "gpt-4o",
		DisplayName:     "GPT-4o",
		Description:     "Most capable model for complex reasoning",
		MaxTokens:       128000,
		CostPer1KTokens: map[string]float64{"prompt": 0.0025, "completion": 0.01},
	},
	"gpt-5-nano": {
		Name:            "gpt-5-nano",
		DisplayName:     "GPT-5 Nano",
		Description:     "Experimental next-generation model",
		MaxTokens:       128000,
		CostPer1KTokens: map[string]float64{"prompt": 0.0001, "completion": 0.0004},
	},
}

func (h *Handler) agentModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelInfo, 0, len(agent.SupportedModels))
	for _, name := range agent.SupportedModels {
		if info, ok := modelCatalog[name]; ok {
			models = append(models, info)
		}
	}
	writeJSON(w, http.StatusOK, models)
}

func (h *Handler) agentHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	summaries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "History Unavailable",
			fmt.Sprintf("Failed to retrieve history: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":      len(summaries),
		"executions": summaries,
	})
}

func (h *Handler) agentHistoryDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "executionID")

	exec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Execution %s not found", id))
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "History Unavailable",
			fmt.Sprintf("Failed to retrieve execution: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, exec)
}

func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

func (h *Handler) cacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Cache Clear Failed",
			fmt.Sprintf("Failed to clear cache: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Cache cleared",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
