package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/provider"
)

// Loop variant names accepted by the factory.
const (
	VariantReAct = "react"
	VariantCoT   = "cot"
)

// SupportedModels lists the model names agents may be built for.
var SupportedModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-5-nano"}

// ErrUnsupportedModel is returned when a model name is not in SupportedModels.
var ErrUnsupportedModel = errors.New("unsupported model")

// ModelError reports a failed model invocation. It carries the model name
// and a truncated copy of the query for diagnostics.
type ModelError struct {
	Model string
	Query string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func newModelError(model, query string, err error) *ModelError {
	return &ModelError{Model: model, Query: truncate(query, 100), Err: err}
}

// Metadata describes how a run unfolded.
type Metadata struct {
	Model                string  `json:"model"`
	Temperature          float64 `json:"temperature"`
	Iterations           int     `json:"iterations"`
	TotalSteps           int     `json:"total_steps"`
	Confidence           string  `json:"confidence,omitempty"`
	UseAdaptivePrompt    bool    `json:"use_adaptive_prompt,omitempty"`
	MaxIterationsReached bool    `json:"max_iterations_reached,omitempty"`
}

// RunResult is the outcome of one reasoning loop execution.
type RunResult struct {
	Answer   string
	Steps    []Step
	Metadata Metadata
}

// Agent is a reasoning loop over a model and a set of tools. Both variants
// share the contract: think, optionally call tools and observe, and either
// finish with an answer or run out of iterations.
type Agent interface {
	// Run executes the loop for one query. maxIterations bounds the number
	// of model round-trips; callers validate it to [1,10] upstream.
	Run(ctx context.Context, query string, maxIterations int) (*RunResult, error)
	// Variant identifies the loop implementation, "react" or "cot".
	Variant() string
}

// Config carries the collaborators and knobs for agent construction.
type Config struct {
	Model             string
	Variant           string
	Temperature       float64
	MaxTokens         int
	UseAdaptivePrompt bool
	EnableReflection  bool

	Provider provider.Provider
	Tools    *ToolRegistry
	Prompts  *PromptRegistry
	Logger   *zap.Logger
}

// New builds the configured agent variant. Unknown models and variants are
// rejected; an empty variant defaults to CoT.
func New(cfg Config) (Agent, error) {
	if !ModelSupported(cfg.Model) {
		return nil, fmt.Errorf("%w: %q, available: %s",
			ErrUnsupportedModel, cfg.Model, strings.Join(SupportedModels, ", "))
	}
	if cfg.Tools == nil {
		cfg.Tools = NewToolRegistry()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = NewPromptRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	switch cfg.Variant {
	case VariantReAct:
		return NewReAct(cfg), nil
	case VariantCoT, "":
		return NewCoT(cfg), nil
	default:
		return nil, fmt.Errorf("unknown agent variant %q", cfg.Variant)
	}
}

// ModelSupported reports whether the model name is in SupportedModels.
func ModelSupported(model string) bool {
	for _, m := range SupportedModels {
		if m == model {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
