package agent

import (
	"strings"
	"testing"
)

func TestParseReasoningStructuredResponse(t *testing.T) {
	response := `**UNDERSTANDING:**
The user wants melancholic Pink Floyd songs.

**PLAN:**
Query the song database filtered by mood.
- Confidence: HIGH

**REFLECTION:**
The results cover the request.

**FINAL ANSWER:**
Time, Breathe, and Us and Them.`

	r := ParseReasoning(response)

	if r.Confidence != ConfidenceHigh {
		t.Errorf("got confidence %q, want HIGH", r.Confidence)
	}
	if !strings.Contains(r.Understanding, "melancholic Pink Floyd songs") {
		t.Errorf("understanding not extracted: %q", r.Understanding)
	}
	if !strings.Contains(r.Plan, "song database") {
		t.Errorf("plan not extracted: %q", r.Plan)
	}
	if !strings.Contains(r.Reflection, "cover the request") {
		t.Errorf("reflection not extracted: %q", r.Reflection)
	}
	if !strings.Contains(r.FinalAnswer, "Us and Them") {
		t.Errorf("final answer not extracted: %q", r.FinalAnswer)
	}
}

func TestParseReasoningStepHeadings(t *testing.T) {
	response := `Step 1 is simple: the query asks for rock songs.
Step 2 will use the database tool.`

	r := ParseReasoning(response)
	if !strings.Contains(strings.ToLower(r.Understanding), "rock songs") {
		t.Errorf("understanding not extracted from step heading: %q", r.Understanding)
	}
	if !strings.Contains(strings.ToLower(r.Plan), "database tool") {
		t.Errorf("plan not extracted from step heading: %q", r.Plan)
	}
}

func TestParseReasoningUnstructuredDegradesGracefully(t *testing.T) {
	r := ParseReasoning("Sure! The capital of France is Paris.")

	if r.Understanding != "" || r.Plan != "" || r.FinalAnswer != "" {
		t.Errorf("expected empty sections, got %+v", r)
	}
	if r.Confidence != ConfidenceMedium {
		t.Errorf("got confidence %q, want MEDIUM default", r.Confidence)
	}
}

func TestParseReasoningLowConfidence(t *testing.T) {
	r := ParseReasoning("I am not sure about this.\nConfidence: LOW")
	if r.Confidence != ConfidenceLow {
		t.Errorf("got confidence %q, want LOW", r.Confidence)
	}
}

func TestExtractConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Confidence is HIGH here", ConfidenceHigh},
		{"pretty low certainty", ConfidenceLow},
		{"somewhere in between", ConfidenceMedium},
		{"", ConfidenceMedium},
	}
	for _, c := range cases {
		if got := ExtractConfidence(c.in); got != c.want {
			t.Errorf("ExtractConfidence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
