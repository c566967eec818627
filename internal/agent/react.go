package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/provider"
)

// reactMaxIterAnswer is returned when the simple loop runs out of iterations.
const reactMaxIterAnswer = "Max iterations reached without final answer"

// ReAct is the minimal loop variant: think, act, observe, answer. It carries
// no confidence bookkeeping and no structured reasoning sections.
type ReAct struct {
	model       string
	temperature float64
	maxTokens   int
	provider    provider.Provider
	tools       *ToolRegistry
	logger      *zap.Logger
}

// NewReAct builds the simple loop variant.
func NewReAct(cfg Config) *ReAct {
	return &ReAct{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		tools:       cfg.Tools,
		logger:      cfg.Logger,
	}
}

// Variant identifies the loop implementation.
func (a *ReAct) Variant() string { return VariantReAct }

// Run executes the loop for one query.
func (a *ReAct) Run(ctx context.Context, query string, maxIterations int) (*RunResult, error) {
	trace := NewTrace()
	trace.Append(Step{Type: StepQuery, Content: query})

	req := &provider.ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages: []provider.Message{
			{Role: "system", Content: reactPrompt},
			{Role: "user", Content: query},
		},
	}
	if a.tools.Len() > 0 {
		req.Tools = a.tools.Definitions()
		req.ToolChoice = "auto"
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		resp, err := a.provider.Chat(ctx, req)
		if err != nil {
			return nil, newModelError(a.model, query, err)
		}

		if len(resp.ToolCalls) == 0 {
			trace.Append(Step{Type: StepThought, Content: resp.Content})
			return &RunResult{
				Answer: resp.Content,
				Steps:  trace.Steps(),
				Metadata: Metadata{
					Model:       a.model,
					Temperature: a.temperature,
					Iterations:  iteration,
					TotalSteps:  trace.Len(),
				},
			}, nil
		}

		req.Messages = append(req.Messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			trace.Append(Step{
				Type:  StepAction,
				Tool:  tc.Function.Name,
				Input: decodeArgs(tc.Function.Arguments),
			})

			observation := a.tools.Run(ctx, tc.Function.Name, tc.Function.Arguments)
			trace.Append(Step{Type: StepObservation, Content: observation})

			req.Messages = append(req.Messages, provider.Message{
				Role:       "tool",
				Name:       tc.Function.Name,
				Content:    observation,
				ToolCallID: tc.ID,
			})
		}

		a.logger.Debug("tool round complete",
			zap.Int("iteration", iteration),
			zap.Int("tool_calls", len(resp.ToolCalls)))
	}

	return &RunResult{
		Answer: reactMaxIterAnswer,
		Steps:  trace.Steps(),
		Metadata: Metadata{
			Model:                a.model,
			Temperature:          a.temperature,
			Iterations:           maxIterations,
			TotalSteps:           trace.Len(),
			Confidence:           ConfidenceLow,
			MaxIterationsReached: true,
		},
	}, nil
}
