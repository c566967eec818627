package agent

import (
	"fmt"
	"strings"
)

// MaxCorrections caps how many self-correction attempts a caller may take.
const MaxCorrections = 2

// Next actions suggested by the reflection checks.
const (
	ActionProceed            = "proceed"
	ActionFinalize           = "finalize"
	ActionTryAlternativeTool = "try_alternative_tool"
	ActionGatherMoreInfo     = "gather_more_information"
	ActionReconsiderApproach = "reconsider_approach"
	ActionElaborateReasoning = "elaborate_reasoning"
	ActionRefocusOnQuery     = "refocus_on_query"
	ActionMakeExplicit       = "make_reasoning_explicit"
	ActionElaborateAnswer    = "elaborate_answer"
	ActionIntegrateResults   = "integrate_tool_results"
	ActionAddressAllAspects  = "address_all_query_aspects"
	ActionReassessConfidence = "reassess_confidence"
	ActionOptimizeToolUsage  = "optimize_tool_usage"
)

// AdjustDecrease is the only confidence adjustment the checks emit.
const AdjustDecrease = "decrease"

// Reflection is the advisory verdict of a self-assessment check. It never
// forces the loop to retry; callers decide what to do with it.
type Reflection struct {
	ShouldContinue       bool   `json:"should_continue"`
	IssueDetected        string `json:"issue_detected,omitempty"`
	CorrectionNeeded     string `json:"correction_needed,omitempty"`
	ConfidenceAdjustment string `json:"confidence_adjustment,omitempty"`
	NextAction           string `json:"next_action"`
}

func proceed(action string) Reflection {
	return Reflection{NextAction: action}
}

// ReflectOnToolResult validates a tool result against basic expectations.
// expected is an optional description whose keywords should appear in the
// output; pass "" to skip that check.
func ReflectOnToolResult(toolName, output, expected string) Reflection {
	lower := strings.ToLower(output)
	if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        fmt.Sprintf("Tool '%s' returned an error", toolName),
			CorrectionNeeded:     "Consider alternative tool or approach",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionTryAlternativeTool,
		}
	}

	if len(strings.TrimSpace(output)) < 10 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        fmt.Sprintf("Tool '%s' returned insufficient data", toolName),
			CorrectionNeeded:     "May need to refine tool input or use additional tools",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionGatherMoreInfo,
		}
	}

	if expected != "" {
		keywords := strings.Fields(strings.ToLower(expected))
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if len(keywords) > 0 && float64(matches)/float64(len(keywords)) < 0.3 {
			return Reflection{
				ShouldContinue:       true,
				IssueDetected:        "Tool result doesn't match expectations",
				CorrectionNeeded:     "Result may not be relevant - consider different approach",
				ConfidenceAdjustment: AdjustDecrease,
				NextAction:           ActionReconsiderApproach,
			}
		}
	}

	return proceed(ActionProceed)
}

// ReflectOnReasoning checks a reasoning passage for length, relevance to
// the query, and explicit thinking language.
func ReflectOnReasoning(reasoning, query string) Reflection {
	if len(reasoning) < 50 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Reasoning is too brief",
			CorrectionNeeded:     "Provide more detailed explanation of your thinking",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionElaborateReasoning,
		}
	}

	lower := strings.ToLower(reasoning)
	relevance := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 3 && strings.Contains(lower, word) {
			relevance++
		}
	}
	if relevance == 0 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Reasoning doesn't seem to address the query",
			CorrectionNeeded:     "Ensure reasoning directly addresses the user's question",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionRefocusOnQuery,
		}
	}

	indicators := []string{"because", "since", "therefore", "reasoning", "consider", "need to", "should"}
	hasThinking := false
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			hasThinking = true
			break
		}
	}
	if !hasThinking {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Reasoning lacks explicit thinking process",
			CorrectionNeeded:     "Show your thinking: WHY this approach, WHAT alternatives considered",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionMakeExplicit,
		}
	}

	return proceed(ActionProceed)
}

// ReflectOnAnswer checks a proposed final answer for completeness against
// the query and the tool results gathered along the way.
func ReflectOnAnswer(query, answer string, toolResults []string) Reflection {
	if len(answer) < 30 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Answer is too brief",
			CorrectionNeeded:     "Provide a more comprehensive answer",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionElaborateAnswer,
		}
	}

	answerWords := wordSet(answer)
	hasReferences := false
	for _, result := range toolResults {
		overlap := 0
		for word := range wordSet(result) {
			if answerWords[word] {
				overlap++
			}
		}
		if overlap > 5 {
			hasReferences = true
			break
		}
	}
	if !hasReferences && len(toolResults) > 0 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Answer doesn't reference tool results",
			CorrectionNeeded:     "Ensure answer incorporates information from tools used",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionIntegrateResults,
		}
	}

	lower := strings.ToLower(answer)
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 4 {
			keywords = append(keywords, word)
		}
	}
	addressed := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			addressed++
		}
	}
	if len(keywords) > 0 && float64(addressed)/float64(len(keywords)) < 0.3 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Answer may not fully address the query",
			CorrectionNeeded:     "Ensure all aspects of the query are addressed",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionAddressAllAspects,
		}
	}

	return proceed(ActionFinalize)
}

// CheckConsistency scans a trace for contradictory confidence levels and
// repeated tool use.
func CheckConsistency(steps []Step) Reflection {
	high, low := 0, 0
	for _, s := range steps {
		switch s.Confidence {
		case ConfidenceHigh:
			high++
		case ConfidenceLow:
			low++
		}
	}
	if high > 0 && low > 0 {
		return Reflection{
			ShouldContinue:       true,
			IssueDetected:        "Inconsistent confidence levels across reasoning",
			CorrectionNeeded:     "Resolve confidence inconsistency - reassess overall confidence",
			ConfidenceAdjustment: AdjustDecrease,
			NextAction:           ActionReassessConfidence,
		}
	}

	counts := make(map[string]int)
	for _, s := range steps {
		if s.Type != StepAction || s.Tool == "" {
			continue
		}
		counts[s.Tool]++
		if counts[s.Tool] > 2 {
			return Reflection{
				ShouldContinue:   true,
				IssueDetected:    fmt.Sprintf("Tool '%s' used %d times - may be inefficient", s.Tool, counts[s.Tool]),
				CorrectionNeeded: "Consider if tool is being used optimally",
				NextAction:       ActionOptimizeToolUsage,
			}
		}
	}

	return proceed(ActionProceed)
}

// Corrections tracks self-correction attempts against MaxCorrections.
type Corrections struct {
	n int
}

// Allowed reports whether another correction attempt may be made.
func (c *Corrections) Allowed() bool { return c.n < MaxCorrections }

// Record counts one correction attempt.
func (c *Corrections) Record() { c.n++ }

// Reset clears the attempt counter.
func (c *Corrections) Reset() { c.n = 0 }

// CorrectionPrompt renders a self-correction instruction from a verdict.
// Verdicts without a detected issue render to the empty string.
func CorrectionPrompt(r Reflection) string {
	if r.IssueDetected == "" {
		return ""
	}
	parts := []string{
		"SELF-REFLECTION: An issue was detected in your reasoning.",
		"\nIssue: " + r.IssueDetected,
		"\nCorrection needed: " + r.CorrectionNeeded,
	}
	if r.ConfidenceAdjustment != "" {
		parts = append(parts, "\nNote: Your confidence should be adjusted "+r.ConfidenceAdjustment+".")
	}
	parts = append(parts, "\nPlease address this issue and continue with improved reasoning.")
	return strings.Join(parts, "\n")
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		set[word] = true
	}
	return set
}
