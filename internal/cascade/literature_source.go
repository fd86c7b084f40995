package cascade

import (
	"context"
	"fmt"

	"github.com/clinsafe/platform/internal/adapters/literature"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// LiteratureSource checks published evidence for the medication. Like the
// guideline source it never blocks.
type LiteratureSource struct {
	search     literature.Adapter
	maxResults int
}

// NewLiteratureSource creates the literature validation source.
func NewLiteratureSource(search literature.Adapter, maxResults int) *LiteratureSource {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &LiteratureSource{search: search, maxResults: maxResults}
}

func (s *LiteratureSource) Name() severity.ValidationSource {
	return severity.SourcePubMed
}

// Applies only when the severity assessment mandates literature validation.
func (s *LiteratureSource) Applies(_ types.PatientContext, assessment *severity.Assessment) bool {
	return assessment != nil && assessment.RequiresSource(severity.SourcePubMed)
}

func (s *LiteratureSource) Validate(ctx context.Context, med types.Medication, patient types.PatientContext) Outcome {
	articles, err := s.search.SearchLiterature(ctx, patient.ChiefComplaint, med.Name, s.maxResults)
	if err != nil {
		return unavailable(s.Name(), med, fmt.Sprintf("literature search unavailable for %s", med.Name))
	}

	if len(articles) == 0 {
		outcome := approved(s.Name(), med, ConfidenceWeak, "no published evidence found")
		outcome.Warnings = []string{fmt.Sprintf("no literature evidence found for %s", med.Name)}
		outcome.ConfidenceDelta = PenaltyWeakSupport
		return outcome
	}

	best := literature.TierD
	for _, a := range articles {
		if a.EvidenceTier < best {
			best = a.EvidenceTier
		}
	}

	switch best {
	case literature.TierA, literature.TierB:
		outcome := approved(s.Name(), med, ConfidenceApproved,
			fmt.Sprintf("tier %s evidence across %d article(s)", best, len(articles)))
		outcome.Result.Data = map[string]any{"evidence_tier": string(best), "articles": len(articles)}
		return outcome
	default:
		outcome := approved(s.Name(), med, ConfidenceWeak,
			fmt.Sprintf("only tier %s evidence available", best))
		outcome.Warnings = []string{fmt.Sprintf("evidence for %s is tier %s, review advised", med.Name, best)}
		outcome.ConfidenceDelta = PenaltyWeakSupport
		outcome.Result.Data = map[string]any{"evidence_tier": string(best), "articles": len(articles)}
		return outcome
	}
}
