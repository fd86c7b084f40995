package cascade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clinsafe/platform/internal/adapters/druglabel"
	"github.com/clinsafe/platform/internal/shared/types"
)

type fakeLabelAdapter struct {
	labels map[string]*druglabel.Label
	err    error
}

func (f *fakeLabelAdapter) LookupDrugLabel(_ context.Context, name string) (*druglabel.Label, error) {
	if f.err != nil {
		return nil, f.err
	}
	if label, ok := f.labels[strings.ToLower(name)]; ok {
		return label, nil
	}
	return nil, druglabel.ErrNotFound
}

func TestDrugLabelSourceBoxedWarningBlocks(t *testing.T) {
	source := NewDrugLabelSource(&fakeLabelAdapter{labels: map[string]*druglabel.Label{
		"warfarin": {
			BrandName:    "Coumadin",
			GenericName:  "warfarin",
			BoxedWarning: "bleeding risk",
		},
	}})

	outcome := source.Validate(context.Background(), types.Medication{Name: "Warfarin"}, types.PatientContext{})
	if !outcome.Blocking {
		t.Fatal("boxed warning must block")
	}
	if !strings.Contains(outcome.Result.Reason, "boxed warning") {
		t.Errorf("reason = %q", outcome.Result.Reason)
	}
}

func TestDrugLabelSourceContraindicationMatch(t *testing.T) {
	source := NewDrugLabelSource(&fakeLabelAdapter{labels: map[string]*druglabel.Label{
		"metformin": {
			GenericName:       "metformin",
			Contraindications: []string{"Contraindicated in severe renal impairment"},
		},
	}})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Metformin"},
		types.PatientContext{ChronicConditions: []string{"renal impairment"}})
	if !outcome.Blocking {
		t.Fatal("contraindication matching a chronic condition must block")
	}

	clean := source.Validate(context.Background(),
		types.Medication{Name: "Metformin"},
		types.PatientContext{ChronicConditions: []string{"asthma"}})
	if clean.Blocking {
		t.Error("unrelated condition must not block")
	}
	if clean.Result.Confidence != ConfidenceApproved {
		t.Errorf("confidence = %d, want %d", clean.Result.Confidence, ConfidenceApproved)
	}
}

func TestDrugLabelSourceNotFoundIsProvisional(t *testing.T) {
	source := NewDrugLabelSource(&fakeLabelAdapter{labels: map[string]*druglabel.Label{}})

	outcome := source.Validate(context.Background(), types.Medication{Name: "Obscuredrug"}, types.PatientContext{})
	if outcome.Blocking {
		t.Fatal("missing label must not block")
	}
	if !outcome.Result.IsApproved {
		t.Error("missing label approves provisionally")
	}
	if outcome.Result.Confidence != ConfidenceNotFound {
		t.Errorf("confidence = %d, want %d", outcome.Result.Confidence, ConfidenceNotFound)
	}
}

func TestDrugLabelSourceGenericNameFallback(t *testing.T) {
	source := NewDrugLabelSource(&fakeLabelAdapter{labels: map[string]*druglabel.Label{
		"ibuprofen": {GenericName: "ibuprofen"},
	}})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Advil", GenericName: "ibuprofen"},
		types.PatientContext{})
	if outcome.Result.Confidence != ConfidenceApproved {
		t.Errorf("confidence = %d, want full approval via generic name", outcome.Result.Confidence)
	}
}

func TestDrugLabelSourceLookupFailureDegrades(t *testing.T) {
	source := NewDrugLabelSource(&fakeLabelAdapter{err: errors.New("connection refused")})

	outcome := source.Validate(context.Background(), types.Medication{Name: "Lisinopril"}, types.PatientContext{})
	if outcome.Blocking {
		t.Fatal("transport failure must not block")
	}
	if outcome.Result.Confidence != ConfidenceUnavailable {
		t.Errorf("confidence = %d, want %d", outcome.Result.Confidence, ConfidenceUnavailable)
	}
	if outcome.ConfidenceDelta != PenaltyUnavailable {
		t.Errorf("delta = %d, want %d", outcome.ConfidenceDelta, PenaltyUnavailable)
	}
}
