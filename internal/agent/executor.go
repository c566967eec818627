package agent

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Approximate pricing per one million tokens. Models missing from the table
// cost zero rather than erroring.
var modelPricing = map[string]struct {
	Input  float64
	Output float64
}{
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-5-nano":  {Input: 0.10, Output: 0.40},
}

// TokenEstimate is the rough token count for one execution. The estimate is
// four characters per token with integer division, not a real tokenizer.
type TokenEstimate struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Metrics summarizes one execution.
type Metrics struct {
	Model                string        `json:"model"`
	ExecutionTimeSeconds float64       `json:"execution_time_seconds"`
	EstimatedTokens      TokenEstimate `json:"estimated_tokens"`
	EstimatedCostUSD     float64       `json:"estimated_cost_usd"`
	NumSteps             int           `json:"num_steps"`
	ToolsUsed            []string      `json:"tools_used"`
	AgentType            string        `json:"agent_type"`
}

// Execution is one query run with its trace, metrics, and identity.
type Execution struct {
	ExecutionID    string    `json:"execution_id"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	ReasoningTrace []Step    `json:"reasoning_trace"`
	Metrics        Metrics   `json:"metrics"`
	Metadata       *Metadata `json:"metadata,omitempty"`
	Timestamp      string    `json:"timestamp"`
	FromCache      bool      `json:"from_cache"`
}

// Executor runs an agent and wraps the result with timing, token, and cost
// estimates.
type Executor struct {
	agent  Agent
	model  string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewExecutor creates an executor for the given agent.
func NewExecutor(a Agent, model string, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		agent:  a,
		model:  model,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Execute runs one query through the agent and assembles the execution
// record. Model invocation failures propagate; everything else resolves to
// a (possibly degraded) execution.
func (e *Executor) Execute(ctx context.Context, query string, maxIterations int) (*Execution, error) {
	start := e.now()
	res, err := e.agent.Run(ctx, query, maxIterations)
	if err != nil {
		return nil, err
	}
	elapsed := e.now().Sub(start).Seconds()

	tokens := estimateTokens(query, res.Answer, res.Steps)
	meta := res.Metadata

	exec := &Execution{
		ExecutionID:    e.newID(),
		Query:          query,
		Answer:         res.Answer,
		ReasoningTrace: res.Steps,
		Metrics: Metrics{
			Model:                e.model,
			ExecutionTimeSeconds: round2(elapsed),
			EstimatedTokens:      tokens,
			EstimatedCostUSD:     estimateCost(e.model, tokens),
			NumSteps:             len(res.Steps),
			ToolsUsed:            ToolsUsed(res.Steps),
			AgentType:            e.agent.Variant(),
		},
		Metadata:  &meta,
		Timestamp: e.now().UTC().Format(time.RFC3339),
	}

	e.logger.Debug("execution complete",
		zap.String("execution_id", exec.ExecutionID),
		zap.Float64("seconds", exec.Metrics.ExecutionTimeSeconds),
		zap.Int("steps", exec.Metrics.NumSteps),
		zap.String("agent_type", exec.Metrics.AgentType))

	return exec, nil
}

// estimateTokens approximates token usage from character counts. Input
// counts the query plus the contents of query, action, and observation
// steps; output counts the answer.
func estimateTokens(query, answer string, steps []Step) TokenEstimate {
	inputChars := len(query)
	for _, s := range steps {
		switch s.Type {
		case StepQuery, StepAction, StepObservation:
			inputChars += len(s.Content)
		}
	}

	in := inputChars / 4
	out := len(answer) / 4
	return TokenEstimate{Input: in, Output: out, Total: in + out}
}

// estimateCost prices an execution from the per-million token table.
func estimateCost(model string, tokens TokenEstimate) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	cost := float64(tokens.Input)/1e6*pricing.Input + float64(tokens.Output)/1e6*pricing.Output
	return round6(cost)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
