package agent

import (
	"strings"
	"testing"

	"github.com/nidhogg/echoes/internal/provider"
)

func testToolDefs() []provider.Tool {
	return []provider.Tool{{
		Type: "function",
		Function: provider.ToolFunction{
			Name:        "pink_floyd_database",
			Description: "Query Pink Floyd songs",
			Parameters:  map[string]interface{}{"type": "object"},
		},
	}}
}

func TestAssessComplexity(t *testing.T) {
	cases := []struct {
		query string
		want  Complexity
	}{
		{"Compare the moods of The Wall and Wish You Were Here", ComplexityHigh},
		{"Analyze the lyrics of Time", ComplexityHigh},
		{"Please tell me everything you know about every single Pink Floyd album that was released during the nineteen seventies and also the eighties", ComplexityHigh},
		{"find sad songs", ComplexityLow},
		{"what is the USD to EUR rate", ComplexityLow},
		{"Tell me about the moon and its phases tonight", ComplexityMedium},
	}
	for _, c := range cases {
		if got := AssessComplexity(c.query); got != c.want {
			t.Errorf("AssessComplexity(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestRenderFillsToolDescriptions(t *testing.T) {
	reg := NewPromptRegistry()
	prompt, err := reg.Render(TemplateStandard, testToolDefs())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(prompt, toolSlot) {
		t.Error("tool slot not substituted")
	}
	if !strings.Contains(prompt, "pink_floyd_database") {
		t.Error("tool name missing from prompt")
	}
	if !strings.Contains(prompt, "Query Pink Floyd songs") {
		t.Error("tool description missing from prompt")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	reg := NewPromptRegistry()
	_, err := reg.Render("haiku", nil)
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	if !strings.Contains(err.Error(), "standard") {
		t.Errorf("error should list available templates, got %q", err)
	}
}

func TestRenderMemoizes(t *testing.T) {
	reg := NewPromptRegistry()
	first, err := reg.Render(TemplateConcise, testToolDefs())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := reg.Render(TemplateConcise, testToolDefs())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first != second {
		t.Error("repeated renders should be identical")
	}
}

func TestRegisterReplacesTemplate(t *testing.T) {
	reg := NewPromptRegistry()
	if _, err := reg.Render(TemplateStandard, testToolDefs()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	reg.Register(TemplateStandard, "custom prompt with {tool_descriptions}")
	prompt, err := reg.Render(TemplateStandard, testToolDefs())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(prompt, "custom prompt with") {
		t.Errorf("stale cache served after Register: %q", truncate(prompt, 40))
	}
	if !strings.Contains(prompt, "pink_floyd_database") {
		t.Error("custom template should still get tool descriptions")
	}
}

func TestRenderAdaptiveSelectsByComplexity(t *testing.T) {
	reg := NewPromptRegistry()
	defs := testToolDefs()

	verbose := reg.RenderAdaptive("Compare and analyze multiple complex albums", defs)
	if !strings.Contains(verbose, "EXTREMELY DETAILED") {
		t.Error("high complexity should select the verbose template")
	}

	concise := reg.RenderAdaptive("find sad songs", defs)
	if !strings.Contains(concise, "concise Chain of Thought") {
		t.Error("low complexity should select the concise template")
	}

	standard := reg.RenderAdaptive("Tell me about the moon and its phases tonight", defs)
	if !strings.Contains(standard, "CRITICAL: You MUST follow this Chain of Thought") {
		t.Error("medium complexity should select the standard template")
	}
}

func TestNamesIncludesBuiltins(t *testing.T) {
	names := NewPromptRegistry().Names()
	want := []string{"concise", "default", "standard", "verbose"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("got %v, want %v", names, want)
			break
		}
	}
}
