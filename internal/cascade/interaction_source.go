package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinsafe/platform/internal/adapters/interactions"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// InteractionSource checks the proposed medication for pairwise
// interactions against everything the patient already takes.
type InteractionSource struct {
	checker interactions.Adapter
}

// NewInteractionSource creates the interaction validation source.
func NewInteractionSource(checker interactions.Adapter) *InteractionSource {
	return &InteractionSource{checker: checker}
}

func (s *InteractionSource) Name() severity.ValidationSource {
	return severity.SourceInteraction
}

// Applies only when the patient takes at least one current medication;
// there is nothing to interact with otherwise.
func (s *InteractionSource) Applies(patient types.PatientContext, _ *severity.Assessment) bool {
	return len(patient.CurrentMedications) > 0
}

func (s *InteractionSource) Validate(ctx context.Context, med types.Medication, patient types.PatientContext) Outcome {
	ids, unresolved, err := s.resolveAll(ctx, med, patient.CurrentMedications)
	if err != nil {
		return unavailable(s.Name(), med, fmt.Sprintf("interaction check unavailable for %s", med.Name))
	}
	if len(ids) < 2 {
		// The proposed drug or every current medication was unknown to the
		// terminology service; nothing to check pairwise.
		reason := "no resolvable medication pair for interaction check"
		outcome := approved(s.Name(), med, ConfidenceNotFound, reason)
		if len(unresolved) > 0 {
			outcome.Warnings = []string{fmt.Sprintf("could not resolve for interaction check: %s", strings.Join(unresolved, ", "))}
			outcome.ConfidenceDelta = PenaltyWeakSupport
		}
		return outcome
	}

	found, err := s.checker.CheckInteractions(ctx, ids)
	if err != nil {
		return unavailable(s.Name(), med, fmt.Sprintf("interaction check unavailable for %s", med.Name))
	}

	outcome := approved(s.Name(), med, ConfidenceApproved, "no blocking interactions")
	for _, inter := range found {
		switch inter.Severity {
		case interactions.SeverityContraindicated:
			return blocked(s.Name(), med,
				fmt.Sprintf("contraindicated interaction between %s and %s: %s", inter.Drug1, inter.Drug2, inter.Description))
		case interactions.SeverityMajor:
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("major interaction between %s and %s: %s", inter.Drug1, inter.Drug2, inter.Description))
			outcome.ConfidenceDelta += PenaltyMajorInteraction
			outcome.Result.Confidence = ConfidenceWeak
		}
	}
	if len(outcome.Warnings) > 0 {
		outcome.Result.Reason = fmt.Sprintf("%d major interaction(s), review advised", len(outcome.Warnings))
	}
	return outcome
}

// resolveAll maps the proposed medication plus every current medication to
// canonical identifiers. Unknown names are reported, not fatal; a
// transport failure is.
func (s *InteractionSource) resolveAll(ctx context.Context, med types.Medication, current []string) ([]string, []string, error) {
	var ids, unresolved []string

	names := append([]string{med.Name}, current...)
	for _, name := range names {
		id, err := s.checker.ResolveDrugIdentifier(ctx, name)
		if errors.Is(err, interactions.ErrNotFound) {
			unresolved = append(unresolved, name)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}
	return ids, unresolved, nil
}
