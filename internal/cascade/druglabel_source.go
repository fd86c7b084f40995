package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinsafe/platform/internal/adapters/druglabel"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// DrugLabelSource validates medications against the structured drug-label
// database. It is the highest-priority source and the only one besides the
// interaction check that can block.
type DrugLabelSource struct {
	labels druglabel.Adapter
}

// NewDrugLabelSource creates the structured-label validation source.
func NewDrugLabelSource(labels druglabel.Adapter) *DrugLabelSource {
	return &DrugLabelSource{labels: labels}
}

func (s *DrugLabelSource) Name() severity.ValidationSource {
	return severity.SourceFDA
}

// Applies always; the label check is mandatory at every severity tier.
func (s *DrugLabelSource) Applies(types.PatientContext, *severity.Assessment) bool {
	return true
}

func (s *DrugLabelSource) Validate(ctx context.Context, med types.Medication, patient types.PatientContext) Outcome {
	label, err := s.lookup(ctx, med)
	if errors.Is(err, druglabel.ErrNotFound) {
		// Unknown drugs pass provisionally at reduced confidence; absence
		// of a label is not evidence of danger.
		return approved(s.Name(), med, ConfidenceNotFound, "no label on record, provisional approval")
	}
	if err != nil {
		return unavailable(s.Name(), med, fmt.Sprintf("drug label lookup failed for %s", med.Name))
	}

	if label.HasBoxedWarning() {
		return blocked(s.Name(), med, fmt.Sprintf("boxed warning on label: %s", truncate(label.BoxedWarning, 200)))
	}

	// Scan contraindication and warning text against the patient's
	// allergies and chronic conditions.
	sections := make([]string, 0, len(label.Contraindications)+len(label.Warnings))
	sections = append(sections, label.Contraindications...)
	sections = append(sections, label.Warnings...)

	var patientTerms []string
	patientTerms = append(patientTerms, patient.Allergies...)
	patientTerms = append(patientTerms, patient.ChronicConditions...)

	for _, section := range sections {
		ls := strings.ToLower(section)
		for _, term := range patientTerms {
			lt := strings.ToLower(strings.TrimSpace(term))
			if lt == "" {
				continue
			}
			if strings.Contains(ls, lt) {
				return blocked(s.Name(), med,
					fmt.Sprintf("label lists %q in contraindications/warnings", term))
			}
		}
	}

	outcome := approved(s.Name(), med, ConfidenceApproved, "label check passed")
	outcome.Result.Data = map[string]any{
		"brand_name":   label.BrandName,
		"generic_name": label.GenericName,
	}
	return outcome
}

func (s *DrugLabelSource) lookup(ctx context.Context, med types.Medication) (*druglabel.Label, error) {
	label, err := s.labels.LookupDrugLabel(ctx, med.Name)
	if err == nil {
		return label, nil
	}
	if errors.Is(err, druglabel.ErrNotFound) && med.GenericName != "" && !strings.EqualFold(med.Name, med.GenericName) {
		return s.labels.LookupDrugLabel(ctx, med.GenericName)
	}
	return nil, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
