package tools

import (
	"strings"
	"testing"
)

func wantContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func wantNotContains(t *testing.T, out string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(out, u) {
			t.Errorf("output should not contain %q:\n%s", u, out)
		}
	}
}

func TestQueryFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"query key", `{"query": "find melancholic songs"}`, "find melancholic songs"},
		{"alternate key", `{"mood": "melancholic"}`, "melancholic"},
		{"multiple keys joined in key order", `{"currency": "USD", "amount": 100}`, "100 USD"},
		{"plain text payload", "  USD to EUR  ", "USD to EUR"},
		{"empty payload", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryFromArgs(tt.args); got != tt.want {
				t.Errorf("queryFromArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
