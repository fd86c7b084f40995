package pipeline

import (
	"github.com/clinsafe/platform/internal/cascade"
	"github.com/clinsafe/platform/internal/grounding"
	"github.com/clinsafe/platform/internal/safety"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// AnalyzeRequest is a full pipeline run: a patient, the AI-generated
// recommendation to validate, and an optional PHI session to tokenize
// under. A missing session ID gets a generated one, returned in the
// verdict.
type AnalyzeRequest struct {
	SessionID      string               `json:"session_id,omitempty"`
	Patient        types.PatientContext `json:"patient"`
	Recommendation types.Recommendation `json:"recommendation"`
}

// Verdict is the pipeline's final answer. ApprovedMedications is the
// recommendation's medication list with every blocked entry removed;
// Confidence starts at 100 and absorbs the severity, cascade and
// grounding modifiers, clamped to [0, 100].
type Verdict struct {
	RunID                string             `json:"run_id"`
	SessionID            string             `json:"session_id"`
	IsApproved           bool               `json:"is_approved"`
	RiskLevel            safety.RiskLevel   `json:"risk_level"`
	Confidence           int                `json:"confidence"`
	ApprovedMedications  []types.Medication `json:"approved_medications"`
	Warnings             []string           `json:"warnings"`
	RequiresManualReview bool               `json:"requires_manual_review"`

	Severity  *severity.Assessment `json:"severity"`
	Safety    *safety.CheckResult  `json:"safety,omitempty"`
	Cascade   *cascade.Result      `json:"cascade,omitempty"`
	Grounding *grounding.Result    `json:"grounding,omitempty"`
}
