package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

// scriptedAgent answers from a fixed table and fails for queries listed in
// failures.
type scriptedAgent struct {
	answers  map[string]string
	failures map[string]error
}

func (s *scriptedAgent) Run(_ context.Context, query string, _ int) (*agent.RunResult, error) {
	if err, ok := s.failures[query]; ok {
		return nil, err
	}
	answer, ok := s.answers[query]
	if !ok {
		answer = "no script for query"
	}
	return &agent.RunResult{
		Answer: answer,
		Steps: []agent.Step{
			{Step: 1, Type: agent.StepQuery, Content: query},
			{Step: 2, Type: agent.StepSynthesis, Content: answer},
		},
		Metadata: agent.Metadata{Model: "scripted", Iterations: 1, TotalSteps: 2},
	}, nil
}

func (s *scriptedAgent) Variant() string { return agent.VariantReAct }

func scriptedBuilder(script *scriptedAgent, broken string) AgentBuilder {
	return func(model string) (*agent.Executor, error) {
		if model == broken {
			return nil, fmt.Errorf("build agent: %w", agent.ErrUnsupportedModel)
		}
		return agent.NewExecutor(script, model, zap.NewNop()), nil
	}
}

func TestEvaluatorRun(t *testing.T) {
	cases := AllCases()[:2]
	script := &scriptedAgent{
		answers:  map[string]string{cases[0].Query: "Found 7 song(s) in a melancholic mood."},
		failures: map[string]error{cases[1].Query: errors.New("model unavailable")},
	}
	ev := NewEvaluator([]string{"gpt-4o-mini", "bad-model"}, scriptedBuilder(script, "bad-model"), zap.NewNop())

	results := ev.Run(context.Background(), cases)

	good := results["gpt-4o-mini"]
	if got, want := len(good), 2; got != want {
		t.Fatalf("len(good) = %d, want %d", got, want)
	}
	if got, want := good[0].Answer, "Found 7 song(s) in a melancholic mood."; got != want {
		t.Errorf("answer = %q, want %q", got, want)
	}
	if got, want := good[0].Metrics.NumSteps, 2; got != want {
		t.Errorf("NumSteps = %d, want %d", got, want)
	}
	if got, want := good[0].TestCase.ID, cases[0].ID; got != want {
		t.Errorf("TestCase.ID = %d, want %d", got, want)
	}
	if len(good[0].ReasoningTrace) != 2 {
		t.Errorf("len(ReasoningTrace) = %d, want 2", len(good[0].ReasoningTrace))
	}

	failed := good[1]
	if got, want := failed.Answer, "Error: model unavailable"; got != want {
		t.Errorf("failed answer = %q, want %q", got, want)
	}
	if got, want := failed.Metrics.Model, "gpt-4o-mini"; got != want {
		t.Errorf("failed Metrics.Model = %q, want %q", got, want)
	}
	if failed.Metrics.NumSteps != 0 || failed.Metrics.EstimatedCostUSD != 0 {
		t.Errorf("failed metrics not zeroed: %+v", failed.Metrics)
	}
	if failed.ReasoningTrace != nil {
		t.Errorf("failed ReasoningTrace = %v, want nil", failed.ReasoningTrace)
	}

	bad, ok := results["bad-model"]
	if !ok {
		t.Fatal("bad-model missing from results")
	}
	if len(bad) != 0 {
		t.Errorf("len(bad) = %d, want 0", len(bad))
	}
}

func TestEvaluatorComparisonSkipsBrokenModel(t *testing.T) {
	cases := AllCases()[:1]
	script := &scriptedAgent{
		answers: map[string]string{cases[0].Query: "Found 7 song(s)."},
	}
	ev := NewEvaluator([]string{"gpt-4o-mini", "bad-model"}, scriptedBuilder(script, "bad-model"), zap.NewNop())
	ev.Run(context.Background(), cases)

	cmp := ev.Comparison()
	if cmp.Best == nil {
		t.Fatal("Best is nil")
	}
	if got, want := cmp.Best.Fastest, "gpt-4o-mini"; got != want {
		t.Errorf("Fastest = %q, want %q", got, want)
	}
	if got := cmp.Models["bad-model"]; got.Metrics != nil {
		t.Errorf("bad-model metrics = %+v, want nil", got.Metrics)
	}
}

func TestEvaluatorSaveResults(t *testing.T) {
	cases := AllCases()[:1]
	script := &scriptedAgent{
		answers: map[string]string{cases[0].Query: "Found 7 song(s)."},
	}
	ev := NewEvaluator([]string{"gpt-4o-mini"}, scriptedBuilder(script, ""), zap.NewNop())
	ev.Run(context.Background(), cases)

	path := filepath.Join(t.TempDir(), "results", "comparison.json")
	if err := ev.SaveResults(path); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var art struct {
		Timestamp  string                     `json:"timestamp"`
		Models     []string                   `json:"models"`
		Results    map[string][]Result        `json:"results"`
		Comparison map[string]json.RawMessage `json:"comparison"`
	}
	if err := json.Unmarshal(data, &art); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if art.Timestamp == "" {
		t.Error("artifact timestamp is empty")
	}
	if got, want := len(art.Models), 1; got != want {
		t.Errorf("len(models) = %d, want %d", got, want)
	}
	if got, want := len(art.Results["gpt-4o-mini"]), 1; got != want {
		t.Errorf("len(results) = %d, want %d", got, want)
	}
	if _, ok := art.Comparison["gpt-4o-mini"]; !ok {
		t.Error("comparison missing model entry")
	}
	if _, ok := art.Comparison["best"]; !ok {
		t.Error("comparison missing best entry")
	}
}

func TestEvaluatorWriteSummary(t *testing.T) {
	cases := AllCases()[:2]
	script := &scriptedAgent{
		answers:  map[string]string{cases[0].Query: "Found 7 song(s)."},
		failures: map[string]error{cases[1].Query: errors.New("model unavailable")},
	}
	ev := NewEvaluator([]string{"gpt-4o-mini"}, scriptedBuilder(script, ""), zap.NewNop())
	ev.Run(context.Background(), cases)

	var buf bytes.Buffer
	ev.WriteSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"MODEL COMPARISON SUMMARY",
		"gpt-4o-mini",
		"Queries run:   2",
		"Success rate:  50.0%",
		"Total cost:",
		"Fastest:          gpt-4o-mini",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluatorSetMaxIterations(t *testing.T) {
	ev := NewEvaluator(nil, nil, nil)
	if got, want := ev.maxIterations, defaultMaxIterations; got != want {
		t.Fatalf("default maxIterations = %d, want %d", got, want)
	}
	ev.SetMaxIterations(3)
	if got, want := ev.maxIterations, 3; got != want {
		t.Errorf("maxIterations = %d, want %d", got, want)
	}
	ev.SetMaxIterations(0)
	if got, want := ev.maxIterations, 3; got != want {
		t.Errorf("maxIterations after invalid set = %d, want %d", got, want)
	}
}
