package cascade

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinsafe/platform/internal/adapters/knowledge"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// GuidelineSource checks whether clinical guidelines support prescribing
// the medication for the patient's presentation. It can never block; it
// only adds warnings and confidence penalties.
type GuidelineSource struct {
	search knowledge.Adapter
}

// NewGuidelineSource creates the guideline validation source.
func NewGuidelineSource(search knowledge.Adapter) *GuidelineSource {
	return &GuidelineSource{search: search}
}

func (s *GuidelineSource) Name() severity.ValidationSource {
	return severity.SourceGuideline
}

// Applies only when the severity assessment mandates guideline validation.
func (s *GuidelineSource) Applies(_ types.PatientContext, assessment *severity.Assessment) bool {
	return assessment != nil && assessment.RequiresSource(severity.SourceGuideline)
}

func (s *GuidelineSource) Validate(ctx context.Context, med types.Medication, patient types.PatientContext) Outcome {
	query := fmt.Sprintf("%s treatment %s", patient.ChiefComplaint, med.Name)

	docs, err := s.search.SearchKnowledge(ctx, knowledge.SearchRequest{
		Query:            query,
		SourceTypeFilter: knowledge.SourceClinicalGuideline,
	})
	if err != nil {
		return unavailable(s.Name(), med, fmt.Sprintf("guideline search unavailable for %s", med.Name))
	}

	medLower := strings.ToLower(med.Name)
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Content), medLower) {
			outcome := approved(s.Name(), med, ConfidenceApproved,
				fmt.Sprintf("guideline support found in %s", doc.SourceName))
			outcome.Result.Data = map[string]any{"source_name": doc.SourceName, "similarity": doc.Similarity}
			return outcome
		}
	}

	outcome := approved(s.Name(), med, ConfidenceWeak, "no guideline match")
	outcome.Warnings = []string{fmt.Sprintf("no guideline support found for %s", med.Name)}
	outcome.ConfidenceDelta = PenaltyWeakSupport
	return outcome
}
