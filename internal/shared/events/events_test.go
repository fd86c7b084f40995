package events

import (
	"context"
	"testing"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeSeverityAssessed, "safety-pipeline", map[string]any{"level": "URGENT"})

	if event.ID == "" {
		t.Error("event must get a generated ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("event must get a timestamp")
	}
	if event.Type != TypeSeverityAssessed {
		t.Errorf("type = %q", event.Type)
	}

	tagged := event.WithRun("run-1", "session-1").WithCorrelation("corr-1")
	if tagged.RunID != "run-1" || tagged.SessionID != "session-1" || tagged.CorrelationID != "corr-1" {
		t.Errorf("tagging lost fields: %+v", tagged)
	}
	// The original is unchanged; With* returns copies.
	if event.RunID != "" {
		t.Error("WithRun mutated the original event")
	}
}

func TestMemoryRecorder(t *testing.T) {
	recorder := NewMemoryRecorder()

	for i := 0; i < 3; i++ {
		if err := recorder.Publish(context.Background(), NewEvent(TypeSafetyChecked, "test", nil)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := recorder.Publish(context.Background(), NewEvent(TypeVerdictProduced, "test", nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if got := len(recorder.Events()); got != 4 {
		t.Errorf("Events() = %d, want 4", got)
	}
	if got := len(recorder.ByType(TypeSafetyChecked)); got != 3 {
		t.Errorf("ByType(safety) = %d, want 3", got)
	}
	if got := len(recorder.ByType(TypeCascadeBlocked)); got != 0 {
		t.Errorf("ByType(blocked) = %d, want 0", got)
	}
}
