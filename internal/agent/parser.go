package agent

import "strings"

// Reasoning holds the structured sections pulled out of a model response.
// Sections that are missing stay empty; Confidence defaults to MEDIUM.
type Reasoning struct {
	Understanding string
	Plan          string
	Reflection    string
	FinalAnswer   string
	Confidence    string
	Alternatives  []string
	Assumptions   []string
	Limitations   []string
}

// Section markers in priority order. "step N" headings are accepted as
// fallbacks for responses that follow the numbered process instead of the
// bold response format.
var sectionMarkers = map[string][]string{
	"understanding": {"understanding:", "step 1"},
	"plan":          {"plan:", "step 2"},
	"reflection":    {"reflection:", "step 4"},
	"final_answer":  {"final answer:", "step 5"},
}

// ParseReasoning extracts the structured sections from a response. The
// parser is a plain substring scan: it finds the first occurrence of a
// section marker and slices up to the nearest following marker of any
// other section. Unstructured responses yield an empty Reasoning with
// MEDIUM confidence rather than an error.
func ParseReasoning(response string) Reasoning {
	r := Reasoning{Confidence: ConfidenceMedium}
	lower := strings.ToLower(response)

	if strings.Contains(lower, "confidence: high") {
		r.Confidence = ConfidenceHigh
	} else if strings.Contains(lower, "confidence: low") {
		r.Confidence = ConfidenceLow
	}

	r.Understanding = extractSection(response, lower, "understanding")
	r.Plan = extractSection(response, lower, "plan")
	r.Reflection = extractSection(response, lower, "reflection")
	r.FinalAnswer = extractSection(response, lower, "final_answer")
	return r
}

func extractSection(response, lower, key string) string {
	for _, marker := range sectionMarkers[key] {
		start := strings.Index(lower, marker)
		if start == -1 {
			continue
		}
		end := len(response)
		for other, markers := range sectionMarkers {
			if other == key {
				continue
			}
			for _, om := range markers {
				if idx := indexFrom(lower, om, start+len(marker)); idx != -1 && idx < end {
					end = idx
				}
			}
		}
		return strings.TrimSpace(response[start:end])
	}
	return ""
}

func indexFrom(s, substr string, from int) int {
	if from >= len(s) {
		return -1
	}
	idx := strings.Index(s[from:], substr)
	if idx == -1 {
		return -1
	}
	return from + idx
}

// ExtractConfidence grades a free-form confidence mention. Any "high"
// wins over "low"; text mentioning neither is MEDIUM.
func ExtractConfidence(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "high"):
		return ConfidenceHigh
	case strings.Contains(t, "low"):
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}
