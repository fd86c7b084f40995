package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pipeline event types
const (
	TypeSeverityAssessed  = "pipeline.severity.assessed"
	TypeSafetyChecked     = "pipeline.safety.checked"
	TypeCascadeBlocked    = "pipeline.cascade.blocked"
	TypeCascadeCompleted  = "pipeline.cascade.completed"
	TypeGroundingVerified = "pipeline.grounding.verified"
	TypePHIDeidentified   = "pipeline.phi.deidentified"
	TypePHIReidentified   = "pipeline.phi.reidentified"
	TypeVerdictProduced   = "pipeline.verdict.produced"
)

// Event represents a pipeline domain event. Events carry no patient
// identifiers; clinical text is de-identified before anything is published.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`

	Data any `json:"data"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithRun tags the event with the pipeline run and PHI session
func (e Event) WithRun(runID, sessionID string) Event {
	e.RunID = runID
	e.SessionID = sessionID
	return e
}

// WithCorrelation sets the correlation ID for request tracing
func (e Event) WithCorrelation(correlationID string) Event {
	e.CorrelationID = correlationID
	return e
}

// Publisher is the sink for pipeline events. Publishing is fire-and-forget
// from the pipeline's point of view; a failed publish never fails a run.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Health() error
	Close()
}

// MemoryRecorder is an in-process Publisher used in tests and when no
// event store is configured.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryRecorder creates an empty in-memory event recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of all recorded events
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByType returns recorded events of the given type
func (m *MemoryRecorder) ByType(eventType string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryRecorder) Health() error { return nil }

func (m *MemoryRecorder) Close() {}
