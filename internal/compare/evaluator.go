package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

const defaultMaxIterations = 5

// AgentBuilder constructs a fresh executor for one model.
type AgentBuilder func(model string) (*agent.Executor, error)

// Evaluator runs a query set across models and keeps the results for
// aggregation and export.
type Evaluator struct {
	models        []string
	maxIterations int
	build         AgentBuilder
	logger        *zap.Logger
	now           func() time.Time
	results       map[string][]Result
}

// NewEvaluator creates an evaluator over the given models.
func NewEvaluator(models []string, build AgentBuilder, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		models:        models,
		maxIterations: defaultMaxIterations,
		build:         build,
		logger:        logger,
		now:           time.Now,
		results:       make(map[string][]Result),
	}
}

// SetMaxIterations overrides the per-query reasoning iteration cap.
func (e *Evaluator) SetMaxIterations(n int) {
	if n > 0 {
		e.maxIterations = n
	}
}

// Run executes every test case against every model and returns the results
// keyed by model. A model whose executor cannot be built gets an empty
// result list; a failed query gets an error record with zeroed metrics so it
// counts against the model's success rate.
func (e *Evaluator) Run(ctx context.Context, cases []TestCase) map[string][]Result {
	e.results = make(map[string][]Result, len(e.models))
	for _, model := range e.models {
		e.logger.Info("evaluating model",
			zap.String("model", model),
			zap.Int("cases", len(cases)))

		exec, err := e.build(model)
		if err != nil {
			e.logger.Error("executor unavailable",
				zap.String("model", model),
				zap.Error(err))
			e.results[model] = []Result{}
			continue
		}

		results := make([]Result, 0, len(cases))
		for _, tc := range cases {
			results = append(results, e.runCase(ctx, exec, model, tc))
		}
		e.results[model] = results
	}
	return e.results
}

func (e *Evaluator) runCase(ctx context.Context, exec *agent.Executor, model string, tc TestCase) Result {
	run, err := exec.Execute(ctx, tc.Query, e.maxIterations)
	if err != nil {
		e.logger.Warn("query failed",
			zap.String("model", model),
			zap.Int("case", tc.ID),
			zap.Error(err))
		return Result{
			Query:    tc.Query,
			Answer:   fmt.Sprintf("Error: %s", err),
			Metrics:  agent.Metrics{Model: model},
			TestCase: tc,
		}
	}

	e.logger.Info("query complete",
		zap.String("model", model),
		zap.Int("case", tc.ID),
		zap.Float64("seconds", run.Metrics.ExecutionTimeSeconds),
		zap.Int("steps", run.Metrics.NumSteps))

	return Result{
		Query:          tc.Query,
		Answer:         run.Answer,
		Metrics:        run.Metrics,
		TestCase:       tc,
		ReasoningTrace: run.ReasoningTrace,
	}
}

// Results returns the most recent run keyed by model.
func (e *Evaluator) Results() map[string][]Result { return e.results }

// Comparison aggregates the most recent run across models.
func (e *Evaluator) Comparison() *Comparison {
	return CompareModels(e.models, e.results)
}

type artifact struct {
	Timestamp  string              `json:"timestamp"`
	Models     []string            `json:"models"`
	Results    map[string][]Result `json:"results"`
	Comparison *Comparison         `json:"comparison"`
}

// SaveResults writes the run plus its comparison as indented JSON, creating
// parent directories as needed.
func (e *Evaluator) SaveResults(path string) error {
	art := artifact{
		Timestamp:  e.now().UTC().Format(time.RFC3339),
		Models:     e.models,
		Results:    e.results,
		Comparison: e.Comparison(),
	}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	e.logger.Info("results saved", zap.String("path", path))
	return nil
}

// WriteSummary renders a human-readable comparison table for the most
// recent run.
func (e *Evaluator) WriteSummary(w io.Writer) {
	cmp := e.Comparison()
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "MODEL COMPARISON SUMMARY")
	fmt.Fprintln(w, rule)

	for _, model := range e.models {
		s, ok := cmp.Models[model]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", model)
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintf(w, "  Queries run:   %d\n", s.NumQueries)
		fmt.Fprintf(w, "  Success rate:  %.1f%%\n", s.SuccessRate)
		if s.Metrics != nil {
			fmt.Fprintf(w, "  Avg time:      %.2fs\n", s.Metrics.ExecutionTime.Mean)
			fmt.Fprintf(w, "  Median time:   %.2fs\n", s.Metrics.ExecutionTime.Median)
			fmt.Fprintf(w, "  Total cost:    $%.6f\n", s.Metrics.Cost.Total)
			fmt.Fprintf(w, "  Avg tokens:    %d\n", s.Metrics.Tokens.Mean)
			fmt.Fprintf(w, "  Avg steps:     %.1f\n", s.Metrics.Steps.Mean)
		}
	}

	if cmp.Best != nil {
		fmt.Fprintf(w, "\nBest performers\n")
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintf(w, "  Fastest:          %s\n", cmp.Best.Fastest)
		fmt.Fprintf(w, "  Cheapest:         %s\n", cmp.Best.Cheapest)
		fmt.Fprintf(w, "  Most successful:  %s\n", cmp.Best.MostSuccessful)
	}
	fmt.Fprintln(w, rule)
}
