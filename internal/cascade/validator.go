package cascade

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/metrics"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Validator runs the ordered validation cascade over a medication list.
// The per-medication, per-source loop is intentionally sequential: a hard
// block from an earlier source makes later calls pointless, and safety wins
// over latency here.
type Validator struct {
	sources       []Source
	sourceTimeout time.Duration
	logger        zerolog.Logger
}

// NewValidator creates a validator over the given sources. Source order is
// priority order; the first blocking source ends the run.
func NewValidator(sources []Source, sourceTimeout time.Duration, logger zerolog.Logger) *Validator {
	if sourceTimeout <= 0 {
		sourceTimeout = 10 * time.Second
	}
	return &Validator{
		sources:       sources,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

// Validate runs the cascade. A hard block at medication i stops the run:
// no further source is invoked for medication i or any later medication.
// The only error return is caller cancellation.
func (v *Validator) Validate(ctx context.Context, medications []types.Medication, patient types.PatientContext, assessment *severity.Assessment) (*Result, error) {
	result := &Result{
		IsApproved: true,
		Warnings:   []string{},
		Sources:    []SourceResult{},
	}

medLoop:
	for _, med := range medications {
		for _, source := range v.sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !source.Applies(patient, assessment) {
				continue
			}

			outcome := v.runSource(ctx, source, med, patient)

			result.Sources = append(result.Sources, outcome.Result)
			result.Warnings = append(result.Warnings, outcome.Warnings...)
			result.ConfidenceModifier += outcome.ConfidenceDelta

			if outcome.Blocking {
				result.IsApproved = false
				result.BlockedBy = source.Name()
				result.BlockedMedication = med.Name
				result.BlockReason = outcome.Result.Reason
				metrics.RecordCascadeBlock(string(source.Name()))
				v.logger.Info().
					Str("medication", med.Name).
					Str("source", string(source.Name())).
					Str("reason", outcome.Result.Reason).
					Msg("cascade blocked")
				break medLoop
			}
		}
	}

	if result.ConfidenceModifier < ModifierFloor {
		result.ConfidenceModifier = ModifierFloor
	}

	result.RequiresManualReview = v.needsManualReview(result, assessment)

	return result, nil
}

// runSource invokes one source under the per-call timeout.
func (v *Validator) runSource(ctx context.Context, source Source, med types.Medication, patient types.PatientContext) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, v.sourceTimeout)
	defer cancel()

	start := time.Now()
	outcome := source.Validate(callCtx, med, patient)
	metrics.RecordValidationSourceCall(string(source.Name()), time.Since(start))

	// A deadline on the per-call context must degrade, never block.
	if callCtx.Err() != nil && ctx.Err() == nil {
		metrics.RecordValidationSourceUnavailable(string(source.Name()))
		return unavailable(source.Name(), med, string(source.Name())+" timed out")
	}
	if !outcome.Result.IsApproved && !outcome.Blocking {
		// Non-blocking disapproval is not a valid state; downgrade to a warning.
		outcome.Result.IsApproved = true
		outcome.Warnings = append(outcome.Warnings, outcome.Result.Reason)
	}
	if outcome.Result.Confidence == ConfidenceUnavailable {
		metrics.RecordValidationSourceUnavailable(string(source.Name()))
	}
	return outcome
}

func (v *Validator) needsManualReview(result *Result, assessment *severity.Assessment) bool {
	if assessment != nil && (assessment.AutoEscalate || assessment.Level == severity.LevelCritical) {
		return true
	}
	if len(result.Warnings) >= manualReviewWarningCount {
		return true
	}
	return result.ConfidenceModifier <= manualReviewModifierThreshold
}
