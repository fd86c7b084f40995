package cascade

import (
	"context"

	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Source is one validation authority in the cascade. Implementations must
// convert their own failures into unavailable outcomes; only the runner
// decides what blocks a run.
type Source interface {
	// Name identifies the source for results and metrics.
	Name() severity.ValidationSource

	// Applies reports whether this source should run for the given patient
	// and assessment. The runner skips sources that do not apply.
	Applies(patient types.PatientContext, assessment *severity.Assessment) bool

	// Validate checks one proposed medication.
	Validate(ctx context.Context, med types.Medication, patient types.PatientContext) Outcome
}

// approved builds a passing outcome.
func approved(source severity.ValidationSource, med types.Medication, confidence int, reason string) Outcome {
	return Outcome{
		Result: SourceResult{
			Source:     source,
			Medication: med.Name,
			IsApproved: true,
			Reason:     reason,
			Confidence: confidence,
		},
	}
}

// blocked builds a hard-block outcome.
func blocked(source severity.ValidationSource, med types.Medication, reason string) Outcome {
	return Outcome{
		Result: SourceResult{
			Source:     source,
			Medication: med.Name,
			IsApproved: false,
			Reason:     reason,
			Confidence: 0,
		},
		Blocking: true,
	}
}

// unavailable builds the degraded outcome used for any lookup failure. It
// never blocks; the run continues at reduced confidence.
func unavailable(source severity.ValidationSource, med types.Medication, reason string) Outcome {
	return Outcome{
		Result: SourceResult{
			Source:     source,
			Medication: med.Name,
			IsApproved: true,
			Reason:     reason,
			Confidence: ConfidenceUnavailable,
		},
		Warnings:        []string{reason},
		ConfidenceDelta: PenaltyUnavailable,
	}
}
