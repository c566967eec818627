package agent

import (
	"time"
)

// StepType identifies the kind of reasoning step.
type StepType string

const (
	StepQuery       StepType = "query"
	StepThinking    StepType = "thinking"
	StepAction      StepType = "action"
	StepObservation StepType = "observation"
	StepReflection  StepType = "reflection"
	StepSynthesis   StepType = "synthesis"
	StepThought     StepType = "thought"
)

// Confidence labels attached to reasoning steps and run metadata.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Step is a single entry in the reasoning trace of one execution.
type Step struct {
	Step    int                    `json:"step"`
	Type    StepType               `json:"type"`
	Content string                 `json:"content,omitempty"`
	Tool    string                 `json:"tool,omitempty"`
	Input   map[string]interface{} `json:"input,omitempty"`
	Output  string                 `json:"output,omitempty"`

	// Structured reasoning fields, populated by the CoT variant.
	Understanding string   `json:"understanding,omitempty"`
	Plan          string   `json:"plan,omitempty"`
	Confidence    string   `json:"confidence,omitempty"`
	Alternatives  []string `json:"alternatives,omitempty"`
	Assumptions   []string `json:"assumptions,omitempty"`
	Limitations   []string `json:"limitations,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`
}

// Trace is the ordered step log of one execution. Append assigns the 1-based
// sequence index; indexes are contiguous and immutable after append.
type Trace struct {
	steps []Step
	now   func() time.Time
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{now: time.Now}
}

// Append stamps the step with its 1-based position and timestamp and adds it
// to the trace.
func (t *Trace) Append(s Step) {
	s.Step = len(t.steps) + 1
	if s.Timestamp == "" {
		s.Timestamp = t.now().UTC().Format(time.RFC3339)
	}
	t.steps = append(t.steps, s)
}

// Steps returns the recorded steps in order.
func (t *Trace) Steps() []Step {
	return t.steps
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.steps)
}

// Last returns the most recent step, or nil for an empty trace.
func (t *Trace) Last() *Step {
	if len(t.steps) == 0 {
		return nil
	}
	return &t.steps[len(t.steps)-1]
}

// ToolsUsed returns the distinct tool names of action steps in first-seen
// order.
func ToolsUsed(steps []Step) []string {
	seen := make(map[string]bool)
	var tools []string
	for _, s := range steps {
		if s.Type != StepAction || s.Tool == "" || seen[s.Tool] {
			continue
		}
		seen[s.Tool] = true
		tools = append(tools, s.Tool)
	}
	return tools
}
