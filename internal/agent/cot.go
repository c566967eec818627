package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/provider"
)

// cotMaxIterAnswer is returned when the structured loop runs out of iterations.
const cotMaxIterAnswer = "Maximum iterations reached without final answer. Please refine your query."

// CoT is the structured loop variant. On top of the plain loop it parses
// explicit reasoning sections out of model responses, labels steps with
// confidence, and appends advisory reflection steps after observations.
type CoT struct {
	model             string
	temperature       float64
	maxTokens         int
	useAdaptivePrompt bool
	enableReflection  bool
	provider          provider.Provider
	tools             *ToolRegistry
	prompts           *PromptRegistry
	logger            *zap.Logger
}

// NewCoT builds the structured loop variant.
func NewCoT(cfg Config) *CoT {
	return &CoT{
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		maxTokens:         cfg.MaxTokens,
		useAdaptivePrompt: cfg.UseAdaptivePrompt,
		enableReflection:  cfg.EnableReflection,
		provider:          cfg.Provider,
		tools:             cfg.Tools,
		prompts:           cfg.Prompts,
		logger:            cfg.Logger,
	}
}

// Variant identifies the loop implementation.
func (a *CoT) Variant() string { return VariantCoT }

// Run executes the loop for one query.
func (a *CoT) Run(ctx context.Context, query string, maxIterations int) (*RunResult, error) {
	trace := NewTrace()
	trace.Append(Step{Type: StepQuery, Content: query})

	req := &provider.ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages: []provider.Message{
			{Role: "system", Content: a.systemPrompt(query)},
			{Role: "user", Content: query},
		},
	}
	if a.tools.Len() > 0 {
		req.Tools = a.tools.Definitions()
		req.ToolChoice = "auto"
	}

	iterations := 0
	for iterations < maxIterations {
		iterations++

		resp, err := a.provider.Chat(ctx, req)
		if err != nil {
			return nil, newModelError(a.model, query, err)
		}

		reasoning := ParseReasoning(resp.Content)
		if reasoning.Understanding != "" || reasoning.Plan != "" {
			trace.Append(Step{
				Type:          StepThinking,
				Content:       resp.Content,
				Understanding: reasoning.Understanding,
				Plan:          reasoning.Plan,
				Confidence:    reasoning.Confidence,
				Alternatives:  reasoning.Alternatives,
			})
		}

		if len(resp.ToolCalls) > 0 {
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

				if a.enableReflection {
					trace.Append(a.reflectStep(tc.Function.Name, observation, query))
				}
			}

			a.logger.Debug("tool round complete",
				zap.Int("iteration", iterations),
				zap.Int("tool_calls", len(resp.ToolCalls)))
			continue
		}

		trace.Append(Step{
			Type:        StepSynthesis,
			Content:     resp.Content,
			Confidence:  reasoning.Confidence,
			Assumptions: reasoning.Assumptions,
			Limitations: reasoning.Limitations,
		})

		return &RunResult{
			Answer: resp.Content,
			Steps:  trace.Steps(),
			Metadata: Metadata{
				Model:             a.model,
				Temperature:       a.temperature,
				Iterations:        iterations,
				TotalSteps:        trace.Len(),
				Confidence:        reasoning.Confidence,
				UseAdaptivePrompt: a.useAdaptivePrompt,
			},
		}, nil
	}

	return &RunResult{
		Answer: cotMaxIterAnswer,
		Steps:  trace.Steps(),
		Metadata: Metadata{
			Model:                a.model,
			Temperature:          a.temperature,
			Iterations:           iterations,
			TotalSteps:           trace.Len(),
			Confidence:           ConfidenceLow,
			MaxIterationsReached: true,
		},
	}, nil
}

func (a *CoT) systemPrompt(query string) string {
	defs := a.tools.Definitions()
	if a.useAdaptivePrompt {
		return a.prompts.RenderAdaptive(query, defs)
	}
	prompt, _ := a.prompts.Render(TemplateStandard, defs)
	return prompt
}

// reflectStep runs the tool-result heuristics and records the verdict as a
// reflection trace entry. Advisory only, the loop never retries on it.
func (a *CoT) reflectStep(tool, observation, query string) Step {
	content := fmt.Sprintf("Tool result received. Assessing if this addresses the query: '%s...'",
		truncate(query, 50))
	if verdict := ReflectOnToolResult(tool, observation, ""); verdict.IssueDetected != "" {
		content = fmt.Sprintf("%s. %s", verdict.IssueDetected, verdict.CorrectionNeeded)
	}
	return Step{Type: StepReflection, Content: content}
}
