package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/adapters/knowledge"
	"github.com/clinsafe/platform/internal/cascade"
	"github.com/clinsafe/platform/internal/grounding"
	"github.com/clinsafe/platform/internal/phi"
	"github.com/clinsafe/platform/internal/safety"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/errors"
	"github.com/clinsafe/platform/internal/shared/events"
	"github.com/clinsafe/platform/internal/shared/metrics"
	"github.com/clinsafe/platform/internal/shared/types"
)

const eventSource = "safety-pipeline"

// Orchestrator sequences the pipeline stages: de-identification,
// severity assessment, the deterministic safety check, the validation
// cascade, and grounding verification. Each stage sees only what the
// previous stage let through.
type Orchestrator struct {
	tokenizer  *phi.Tokenizer
	classifier *severity.Classifier
	engine     *safety.Engine
	cascade    *cascade.Validator
	verifier   *grounding.Verifier
	knowledge  knowledge.Adapter
	publisher  events.Publisher
	logger     zerolog.Logger
}

func NewOrchestrator(
	tokenizer *phi.Tokenizer,
	classifier *severity.Classifier,
	engine *safety.Engine,
	cascadeValidator *cascade.Validator,
	verifier *grounding.Verifier,
	knowledgeAdapter knowledge.Adapter,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		tokenizer:  tokenizer,
		classifier: classifier,
		engine:     engine,
		cascade:    cascadeValidator,
		verifier:   verifier,
		knowledge:  knowledgeAdapter,
		publisher:  publisher,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Analyze runs the full pipeline. A recommendation that cannot be
// trusted structurally never reaches validation: it gets the zero-trust
// verdict immediately. Cancellation mid-run clears any PHI session the
// run created.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (*Verdict, error) {
	started := time.Now()
	runID := uuid.NewString()

	sessionID := req.SessionID
	ownSession := sessionID == ""
	if ownSession {
		sessionID = uuid.NewString()
	}

	logger := o.logger.With().Str("run_id", runID).Logger()

	if err := validateRecommendation(req.Recommendation); err != nil {
		logger.Warn().Err(err).Msg("malformed recommendation, applying zero-trust verdict")
		verdict := o.zeroTrustVerdict(runID, sessionID, err)
		o.publish(ctx, events.NewEvent(events.TypeVerdictProduced, eventSource, verdict).WithRun(runID, sessionID))
		metrics.RecordPipelineRun("rejected", string(severity.LevelStandard), time.Since(started))
		return verdict, nil
	}

	patient := req.Patient
	detections := o.tokenizer.DeidentifyPatient(sessionID, &patient)
	o.publish(ctx, events.NewEvent(events.TypePHIDeidentified, eventSource, map[string]any{
		"detections": len(detections),
	}).WithRun(runID, sessionID))

	assessment := o.classifier.Assess(ctx, patient)
	o.publish(ctx, events.NewEvent(events.TypeSeverityAssessed, eventSource, assessment).WithRun(runID, sessionID))

	safetyResult := o.engine.Check(req.Recommendation.Medications, patient)
	o.publish(ctx, events.NewEvent(events.TypeSafetyChecked, eventSource, safetyResult).WithRun(runID, sessionID))

	remaining := safety.FilterApproved(req.Recommendation.Medications, safetyResult)

	cascadeResult, err := o.cascade.Validate(ctx, remaining, patient, assessment)
	if err != nil {
		if ownSession {
			o.tokenizer.ClearSession(sessionID)
		}
		return nil, err
	}
	if cascadeResult.IsApproved {
		o.publish(ctx, events.NewEvent(events.TypeCascadeCompleted, eventSource, cascadeResult).WithRun(runID, sessionID))
	} else {
		o.publish(ctx, events.NewEvent(events.TypeCascadeBlocked, eventSource, cascadeResult).WithRun(runID, sessionID))
	}

	evidence := o.gatherEvidence(ctx, patient, remaining)
	groundingResult := o.verifier.Verify(req.Recommendation, patient, evidence)
	o.publish(ctx, events.NewEvent(events.TypeGroundingVerified, eventSource, groundingResult).WithRun(runID, sessionID))

	verdict := o.buildVerdict(runID, sessionID, remaining, assessment, safetyResult, cascadeResult, &groundingResult)
	o.publish(ctx, events.NewEvent(events.TypeVerdictProduced, eventSource, verdict).WithRun(runID, sessionID))

	outcome := "approved"
	if !verdict.IsApproved {
		outcome = "rejected"
	}
	metrics.RecordPipelineRun(outcome, string(assessment.Level), time.Since(started))
	if verdict.RequiresManualReview {
		metrics.RecordManualReview()
	}

	logger.Info().
		Bool("approved", verdict.IsApproved).
		Str("severity", string(assessment.Level)).
		Str("risk", string(verdict.RiskLevel)).
		Int("confidence", verdict.Confidence).
		Int("medications", len(verdict.ApprovedMedications)).
		Dur("duration", time.Since(started)).
		Msg("pipeline run complete")
	return verdict, nil
}

// validateRecommendation rejects structurally untrustworthy input
// before any clinical logic runs.
func validateRecommendation(rec types.Recommendation) error {
	if len(rec.Medications) == 0 && rec.Rationale == "" {
		return errors.MalformedRecommendation("no medications and no rationale")
	}
	for i, med := range rec.Medications {
		if strings.TrimSpace(med.Name) == "" {
			return errors.MalformedRecommendation(fmt.Sprintf("medication %d has no name", i))
		}
	}
	return nil
}

// zeroTrustVerdict is the response to unparseable or structurally
// invalid recommendations: nothing approved, high risk, zero
// confidence, human review required.
func (o *Orchestrator) zeroTrustVerdict(runID, sessionID string, cause error) *Verdict {
	return &Verdict{
		RunID:                runID,
		SessionID:            sessionID,
		IsApproved:           false,
		RiskLevel:            safety.RiskHigh,
		Confidence:           0,
		ApprovedMedications:  []types.Medication{},
		Warnings:             []string{cause.Error()},
		RequiresManualReview: true,
	}
}

func (o *Orchestrator) buildVerdict(
	runID, sessionID string,
	remaining []types.Medication,
	assessment *severity.Assessment,
	safetyResult *safety.CheckResult,
	cascadeResult *cascade.Result,
	groundingResult *grounding.Result,
) *Verdict {
	confidence := 100 + assessment.ConfidenceModifier + cascadeResult.ConfidenceModifier + groundingResult.ConfidencePenalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	approved := remaining
	if !cascadeResult.IsApproved {
		approved = removeMedication(remaining, cascadeResult.BlockedMedication)
	}

	risk := safetyResult.RiskLevel
	if !cascadeResult.IsApproved {
		risk = safety.MaxRisk(risk, safety.RiskHigh)
	}

	warnings := make([]string, 0, len(safetyResult.Warnings)+len(cascadeResult.Warnings))
	warnings = append(warnings, safetyResult.Warnings...)
	warnings = append(warnings, cascadeResult.Warnings...)

	return &Verdict{
		RunID:                runID,
		SessionID:            sessionID,
		IsApproved:           safetyResult.IsApproved && cascadeResult.IsApproved && groundingResult.ContradictionCount == 0,
		RiskLevel:            risk,
		Confidence:           confidence,
		ApprovedMedications:  approved,
		Warnings:             warnings,
		RequiresManualReview: cascadeResult.RequiresManualReview || groundingResult.ContradictionCount > 0,
		Severity:             assessment,
		Safety:               safetyResult,
		Cascade:              cascadeResult,
		Grounding:            groundingResult,
	}
}

// gatherEvidence pulls knowledge chunks per medication for the
// grounding check. Retrieval failures degrade to less evidence, never
// to a pipeline error.
func (o *Orchestrator) gatherEvidence(ctx context.Context, patient types.PatientContext, medications []types.Medication) []knowledge.Document {
	if o.knowledge == nil {
		return nil
	}

	var evidence []knowledge.Document
	for _, med := range medications {
		docs, err := o.knowledge.SearchKnowledge(ctx, knowledge.SearchRequest{
			Query: fmt.Sprintf("%s for %s", med.Name, patient.ChiefComplaint),
		})
		if err != nil {
			o.logger.Warn().Err(err).Str("medication", med.Name).Msg("evidence retrieval failed")
			continue
		}
		evidence = append(evidence, docs...)
	}
	return evidence
}

func removeMedication(medications []types.Medication, name string) []types.Medication {
	kept := make([]types.Medication, 0, len(medications))
	for _, med := range medications {
		if !strings.EqualFold(med.Name, name) {
			kept = append(kept, med)
		}
	}
	return kept
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn().Err(err).Str("event_type", event.Type).Msg("event publish failed")
	}
}
