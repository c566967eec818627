package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/compare"
)

const (
	minComparisonModels = 2
	maxComparisonModels = 5
	maxAnswerPreview    = 200
)

type comparisonTestCase struct {
	Query        string `json:"query"`
	ExpectedTool string `json:"expected_tool,omitempty"`
	Category     string `json:"category,omitempty"`
}

type comparisonRequest struct {
	Models    []string             `json:"models"`
	TestCases []comparisonTestCase `json:"test_cases"`
	Verbose   bool                 `json:"verbose"`
}

type modelSummary struct {
	Model            string         `json:"model"`
	TotalQueries     int            `json:"total_queries"`
	SuccessRate      float64        `json:"success_rate"`
	AvgExecutionTime float64        `json:"avg_execution_time"`
	TotalCostUSD     float64        `json:"total_cost_usd"`
	AvgSteps         float64        `json:"avg_steps"`
	ToolUsage        map[string]int `json:"tool_usage"`
}

type comparisonModelResult struct {
	Success       bool    `json:"success"`
	ExecutionTime float64 `json:"execution_time"`
	Cost          float64 `json:"cost"`
	Answer        string  `json:"answer"`
}

type comparisonCaseResult struct {
	TestCase string                           `json:"test_case"`
	Results  map[string]comparisonModelResult `json:"results"`
}

type comparisonRecord struct {
	ComparisonID    string                  `json:"comparison_id"`
	Models          []string                `json:"models"`
	Summary         map[string]modelSummary `json:"summary"`
	DetailedResults []comparisonCaseResult  `json:"detailed_results,omitempty"`
	Timestamp       string                  `json:"timestamp"`
	TotalDuration   float64                 `json:"total_duration"`
}

func (h *Handler) comparisonRun(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}
	if len(req.Models) < minComparisonModels || len(req.Models) > maxComparisonModels {
		h.writeError(w, http.StatusBadRequest, "Validation Error",
			fmt.Sprintf("models must list between %d and %d models", minComparisonModels, maxComparisonModels))
		return
	}

	cases := compare.AllCases()
	if len(req.TestCases) > 0 {
		cases = make([]compare.TestCase, 0, len(req.TestCases))
		for i, tc := range req.TestCases {
			if strings.TrimSpace(tc.Query) == "" {
				h.writeError(w, http.StatusBadRequest, "Validation Error",
					"test case query must not be empty")
				return
			}
			cases = append(cases, compare.TestCase{
				ID:           i + 1,
				Query:        tc.Query,
				Category:     tc.Category,
				ExpectedTool: tc.ExpectedTool,
			})
		}
	}

	comparisonID := h.newID()
	h.logger.Info("starting comparison",
		zap.String("comparison_id", comparisonID),
		zap.Strings("models", req.Models),
		zap.Int("cases", len(cases)))

	ev := compare.NewEvaluator(req.Models, h.compareBuilder(), h.logger)
	ev.SetMaxIterations(h.cfg.Agent.MaxIterations)

	start := h.now()
	results := ev.Run(r.Context(), cases)
	duration := h.now().Sub(start).Seconds()
	cmp := ev.Comparison()

	record := &comparisonRecord{
		ComparisonID:  comparisonID,
		Models:        req.Models,
		Summary:       buildComparisonSummary(req.Models, cmp, results),
		Timestamp:     h.now().UTC().Format(time.RFC3339),
		TotalDuration: round2(duration),
	}
	if req.Verbose {
		record.DetailedResults = buildComparisonDetails(req.Models, cases, results)
	}

	h.compMu.Lock()
	h.comparisons[comparisonID] = record
	h.compOrder = append(h.compOrder, comparisonID)
	h.compMu.Unlock()

	h.logger.Info("comparison complete",
		zap.String("comparison_id", comparisonID),
		zap.Float64("seconds", record.TotalDuration))

	writeJSON(w, http.StatusOK, record)
}

// compareBuilder adapts the executor builder to the evaluator, pinning the
// configured temperature.
func (h *Handler) compareBuilder() compare.AgentBuilder {
	return func(model string) (*agent.Executor, error) {
		return h.build(model, h.cfg.Agent.Temperature)
	}
}

func buildComparisonSummary(models []string, cmp *compare.Comparison, results map[string][]compare.Result) map[string]modelSummary {
	summary := make(map[string]modelSummary, len(models))
	for _, model := range models {
		s, ok := cmp.Models[model]
		if !ok {
			continue
		}

		usage := make(map[string]int)
		for _, res := range results[model] {
			for _, tool := range res.Metrics.ToolsUsed {
				usage[tool]++
			}
		}

		entry := modelSummary{
			Model:        model,
			TotalQueries: s.NumQueries,
			SuccessRate:  s.SuccessRate / 100.0,
			ToolUsage:    usage,
		}
		if s.Metrics != nil {
			entry.AvgExecutionTime = s.Metrics.ExecutionTime.Mean
			entry.TotalCostUSD = s.Metrics.Cost.Total
			entry.AvgSteps = s.Metrics.Steps.Mean
		}
		summary[model] = entry
	}
	return summary
}

func buildComparisonDetails(models []string, cases []compare.TestCase, results map[string][]compare.Result) []comparisonCaseResult {
	details := make([]comparisonCaseResult, 0, len(cases))
	for i, tc := range cases {
		entry := comparisonCaseResult{
			TestCase: tc.Query,
			Results:  make(map[string]comparisonModelResult, len(models)),
		}
		for _, model := range models {
			rs := results[model]
			if i >= len(rs) {
				continue
			}
			res := rs[i]
			entry.Results[model] = comparisonModelResult{
				Success:       !strings.Contains(res.Answer, "Error"),
				ExecutionTime: res.Metrics.ExecutionTimeSeconds,
				Cost:          res.Metrics.EstimatedCostUSD,
				Answer:        truncate(res.Answer, maxAnswerPreview),
			}
		}
		details = append(details, entry)
	}
	return details
}

func (h *Handler) comparisonDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparisonID")

	h.compMu.Lock()
	record, ok := h.comparisons[id]
	h.compMu.Unlock()
	if !ok {
		h.writeError(w, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Comparison %s not found", id))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

type comparisonListEntry struct {
	ComparisonID  string   `json:"comparison_id"`
	Models        []string `json:"models"`
	Timestamp     string   `json:"timestamp"`
	TotalDuration float64  `json:"total_duration"`
}

func (h *Handler) comparisonList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	h.compMu.Lock()
	total := len(h.compOrder)
	ids := h.compOrder
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	// Newest first.
	entries := make([]comparisonListEntry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		rec := h.comparisons[ids[i]]
		entries = append(entries, comparisonListEntry{
			ComparisonID:  rec.ComparisonID,
			Models:        rec.Models,
			Timestamp:     rec.Timestamp,
			TotalDuration: rec.TotalDuration,
		})
	}
	h.compMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"comparisons": entries,
	})
}
