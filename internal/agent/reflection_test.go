package agent

import (
	"strings"
	"testing"
)

func TestReflectOnToolResultError(t *testing.T) {
	r := ReflectOnToolResult("pink_floyd_database", "Error executing tool 'pink_floyd_database': boom", "")
	if !r.ShouldContinue {
		t.Error("error output should flag continuation")
	}
	if r.NextAction != ActionTryAlternativeTool {
		t.Errorf("got action %q, want %q", r.NextAction, ActionTryAlternativeTool)
	}
	if r.ConfidenceAdjustment != AdjustDecrease {
		t.Errorf("got adjustment %q, want decrease", r.ConfidenceAdjustment)
	}
}

func TestReflectOnToolResultInsufficient(t *testing.T) {
	r := ReflectOnToolResult("currency_price_checker", "ok", "")
	if r.NextAction != ActionGatherMoreInfo {
		t.Errorf("got action %q, want %q", r.NextAction, ActionGatherMoreInfo)
	}
}

func TestReflectOnToolResultExpectationMismatch(t *testing.T) {
	output := "The quick brown fox jumps over the lazy dog again and again"
	r := ReflectOnToolResult("currency_price_checker", output, "currency exchange rate euros dollars")
	if r.NextAction != ActionReconsiderApproach {
		t.Errorf("got action %q, want %q", r.NextAction, ActionReconsiderApproach)
	}
}

func TestReflectOnToolResultClean(t *testing.T) {
	output := "Found 3 song(s) matching the melancholic mood filter"
	r := ReflectOnToolResult("pink_floyd_database", output, "melancholic song")
	if r.ShouldContinue {
		t.Errorf("clean result flagged: %+v", r)
	}
	if r.NextAction != ActionProceed {
		t.Errorf("got action %q, want %q", r.NextAction, ActionProceed)
	}
}

func TestReflectOnReasoning(t *testing.T) {
	query := "Find melancholic Pink Floyd songs"

	if r := ReflectOnReasoning("too short", query); r.NextAction != ActionElaborateReasoning {
		t.Errorf("short reasoning: got %q", r.NextAction)
	}

	offTopic := "Let us talk about currency conversion and exchange rates today, because markets move."
	if r := ReflectOnReasoning(offTopic, query); r.NextAction != ActionRefocusOnQuery {
		t.Errorf("off-topic reasoning: got %q", r.NextAction)
	}

	noThinking := "Melancholic music by Pink Floyd appears across several album eras in the catalog."
	if r := ReflectOnReasoning(noThinking, query); r.NextAction != ActionMakeExplicit {
		t.Errorf("implicit reasoning: got %q", r.NextAction)
	}

	good := "I should query the database for melancholic songs because the user wants mood-filtered results."
	if r := ReflectOnReasoning(good, query); r.ShouldContinue {
		t.Errorf("good reasoning flagged: %+v", r)
	}
}

func TestReflectOnAnswer(t *testing.T) {
	query := "Find melancholic Pink Floyd songs from the seventies"

	if r := ReflectOnAnswer(query, "Time.", nil); r.NextAction != ActionElaborateAnswer {
		t.Errorf("brief answer: got %q", r.NextAction)
	}

	detached := "Apples bananas cherries dates elderberries figs grapes honeydew kiwi lemons."
	toolResults := []string{"Melancholic picks: Time, Breathe, Us and Them from Dark Side of the Moon"}
	if r := ReflectOnAnswer(query, detached, toolResults); r.NextAction != ActionIntegrateResults {
		t.Errorf("detached answer: got %q", r.NextAction)
	}

	offTopic := "Here is some text that is long enough to pass the brevity check easily."
	if r := ReflectOnAnswer(query, offTopic, nil); r.NextAction != ActionAddressAllAspects {
		t.Errorf("off-topic answer: got %q", r.NextAction)
	}

	good := "The melancholic Pink Floyd songs from the seventies include Time, Breathe, and Us and Them."
	if r := ReflectOnAnswer(query, good, nil); r.ShouldContinue {
		t.Errorf("good answer flagged: %+v", r)
	} else if r.NextAction != ActionFinalize {
		t.Errorf("got action %q, want %q", r.NextAction, ActionFinalize)
	}
}

func TestCheckConsistencyConfidenceMix(t *testing.T) {
	steps := []Step{
		{Type: StepThinking, Confidence: ConfidenceHigh},
		{Type: StepSynthesis, Confidence: ConfidenceLow},
	}
	r := CheckConsistency(steps)
	if r.NextAction != ActionReassessConfidence {
		t.Errorf("got action %q, want %q", r.NextAction, ActionReassessConfidence)
	}
}

func TestCheckConsistencyRepeatedTool(t *testing.T) {
	steps := []Step{
		{Type: StepAction, Tool: "pink_floyd_database"},
		{Type: StepAction, Tool: "pink_floyd_database"},
		{Type: StepAction, Tool: "pink_floyd_database"},
	}
	r := CheckConsistency(steps)
	if r.NextAction != ActionOptimizeToolUsage {
		t.Errorf("got action %q, want %q", r.NextAction, ActionOptimizeToolUsage)
	}
	if !strings.Contains(r.IssueDetected, "pink_floyd_database") {
		t.Errorf("issue should name the tool: %q", r.IssueDetected)
	}
	if r.ConfidenceAdjustment != "" {
		t.Errorf("repeated tool use should not adjust confidence, got %q", r.ConfidenceAdjustment)
	}
}

func TestCheckConsistencyClean(t *testing.T) {
	steps := []Step{
		{Type: StepQuery, Content: "q"},
		{Type: StepAction, Tool: "pink_floyd_database"},
		{Type: StepAction, Tool: "currency_price_checker"},
		{Type: StepSynthesis, Confidence: ConfidenceHigh},
	}
	r := CheckConsistency(steps)
	if r.ShouldContinue {
		t.Errorf("clean trace flagged: %+v", r)
	}
}

func TestCorrections(t *testing.T) {
	var c Corrections
	if !c.Allowed() {
		t.Error("fresh counter should allow corrections")
	}
	c.Record()
	c.Record()
	if c.Allowed() {
		t.Error("counter at cap should deny corrections")
	}
	c.Reset()
	if !c.Allowed() {
		t.Error("reset counter should allow corrections")
	}
}

func TestCorrectionPrompt(t *testing.T) {
	r := Reflection{
		ShouldContinue:       true,
		IssueDetected:        "Reasoning is too brief",
		CorrectionNeeded:     "Provide more detailed explanation of your thinking",
		ConfidenceAdjustment: AdjustDecrease,
		NextAction:           ActionElaborateReasoning,
	}
	prompt := CorrectionPrompt(r)
	if !strings.Contains(prompt, "SELF-REFLECTION") {
		t.Errorf("got %q", prompt)
	}
	if !strings.Contains(prompt, "Reasoning is too brief") {
		t.Errorf("got %q", prompt)
	}
	if !strings.Contains(prompt, "adjusted decrease") {
		t.Errorf("got %q", prompt)
	}

	if got := CorrectionPrompt(Reflection{NextAction: ActionProceed}); got != "" {
		t.Errorf("clean verdict should render empty, got %q", got)
	}
}
