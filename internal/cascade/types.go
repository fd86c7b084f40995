package cascade

import (
	"github.com/clinsafe/platform/internal/severity"
)

// Confidence constants. The numeric values are tuned, not derived; change
// them only alongside the clinical review board.
const (
	// ConfidenceApproved is reported by a source that fully validated a
	// medication.
	ConfidenceApproved = 90

	// ConfidenceNotFound is the provisional confidence when a drug has no
	// entry in the label database.
	ConfidenceNotFound = 50

	// ConfidenceUnavailable is reported when a source failed or timed out
	// and was degraded rather than blocking the run.
	ConfidenceUnavailable = 40

	// ConfidenceWeak is reported for thin guideline or literature support.
	ConfidenceWeak = 70

	// PenaltyMajorInteraction applies per non-contraindicated major
	// interaction pair.
	PenaltyMajorInteraction = -10

	// PenaltyWeakSupport applies when a non-blocking source finds no
	// supporting evidence.
	PenaltyWeakSupport = -5

	// PenaltyUnavailable applies when a source had to be skipped.
	PenaltyUnavailable = -5

	// ModifierFloor clamps the accumulated confidence modifier.
	ModifierFloor = -50
)

// Manual-review thresholds.
const (
	manualReviewWarningCount      = 3
	manualReviewModifierThreshold = -30
)

// SourceResult is the outcome of one (medication, source) attempt.
type SourceResult struct {
	Source     severity.ValidationSource `json:"source"`
	Medication string                    `json:"medication"`
	IsApproved bool                      `json:"is_approved"`
	Reason     string                    `json:"reason,omitempty"`
	Confidence int                       `json:"confidence"`
	Data       map[string]any            `json:"data,omitempty"`
}

// Outcome is what a validation source reports back to the runner.
type Outcome struct {
	Result SourceResult

	// Blocking stops the whole run at this medication and source.
	Blocking bool

	// Warnings are surfaced to the clinician but do not block.
	Warnings []string

	// ConfidenceDelta adjusts the run's accumulated confidence modifier.
	ConfidenceDelta int
}

// Result is the verdict of one cascade run over a medication list.
// BlockedBy is set at most once: the first source, in priority order, that
// returned a hard block.
type Result struct {
	IsApproved           bool                      `json:"is_approved"`
	BlockedBy            severity.ValidationSource `json:"blocked_by,omitempty"`
	BlockedMedication    string                    `json:"blocked_medication,omitempty"`
	BlockReason          string                    `json:"block_reason,omitempty"`
	Warnings             []string                  `json:"warnings"`
	ConfidenceModifier   int                       `json:"confidence_modifier"`
	Sources              []SourceResult            `json:"sources"`
	RequiresManualReview bool                      `json:"requires_manual_review"`
}
