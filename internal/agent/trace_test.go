package agent

import (
	"testing"
	"time"
)

func TestTraceAppendAssignsContiguousIndexes(t *testing.T) {
	tr := NewTrace()
	tr.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	tr.Append(Step{Type: StepQuery, Content: "q"})
	tr.Append(Step{Type: StepAction, Tool: "db", Step: 99}) // caller index is ignored
	tr.Append(Step{Type: StepObservation, Content: "obs"})

	steps := tr.Steps()
	for i, s := range steps {
		if s.Step != i+1 {
			t.Errorf("step %d has index %d, want %d", i, s.Step, i+1)
		}
	}
	if steps[0].Timestamp != "2025-06-01T00:00:00Z" {
		t.Errorf("got timestamp %q", steps[0].Timestamp)
	}
}

func TestTraceLast(t *testing.T) {
	tr := NewTrace()
	if tr.Last() != nil {
		t.Error("empty trace should have no last step")
	}
	tr.Append(Step{Type: StepQuery})
	tr.Append(Step{Type: StepSynthesis, Content: "done"})
	if last := tr.Last(); last == nil || last.Type != StepSynthesis {
		t.Errorf("got %+v", last)
	}
}
