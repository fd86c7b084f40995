package cascade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clinsafe/platform/internal/adapters/interactions"
	"github.com/clinsafe/platform/internal/shared/types"
)

type fakeInteractionAdapter struct {
	ids          map[string]string
	interactions []interactions.Interaction
	resolveErr   error
	checkErr     error
}

func (f *fakeInteractionAdapter) ResolveDrugIdentifier(_ context.Context, name string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if id, ok := f.ids[strings.ToLower(name)]; ok {
		return id, nil
	}
	return "", interactions.ErrNotFound
}

func (f *fakeInteractionAdapter) CheckInteractions(_ context.Context, _ []string) ([]interactions.Interaction, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.interactions, nil
}

func TestInteractionSourceApplies(t *testing.T) {
	source := NewInteractionSource(&fakeInteractionAdapter{})

	if source.Applies(types.PatientContext{}, nil) {
		t.Error("no current medications means nothing to interact with")
	}
	if !source.Applies(types.PatientContext{CurrentMedications: []string{"warfarin"}}, nil) {
		t.Error("current medications must enable the source")
	}
}

func TestInteractionSourceContraindicatedBlocks(t *testing.T) {
	source := NewInteractionSource(&fakeInteractionAdapter{
		ids: map[string]string{"fluconazole": "1", "warfarin": "2"},
		interactions: []interactions.Interaction{{
			Drug1:       "fluconazole",
			Drug2:       "warfarin",
			Severity:    interactions.SeverityContraindicated,
			Description: "severe bleeding risk",
		}},
	})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Fluconazole"},
		types.PatientContext{CurrentMedications: []string{"warfarin"}})

	if !outcome.Blocking {
		t.Fatal("contraindicated interaction must block")
	}
	if !strings.Contains(outcome.Result.Reason, "contraindicated interaction") {
		t.Errorf("reason = %q", outcome.Result.Reason)
	}
}

func TestInteractionSourceMajorWarns(t *testing.T) {
	source := NewInteractionSource(&fakeInteractionAdapter{
		ids: map[string]string{"amiodarone": "1", "simvastatin": "2"},
		interactions: []interactions.Interaction{{
			Drug1:       "amiodarone",
			Drug2:       "simvastatin",
			Severity:    interactions.SeverityMajor,
			Description: "myopathy risk",
		}},
	})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Amiodarone"},
		types.PatientContext{CurrentMedications: []string{"simvastatin"}})

	if outcome.Blocking {
		t.Fatal("major interaction warns, it does not block")
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", outcome.Warnings)
	}
	if outcome.ConfidenceDelta != PenaltyMajorInteraction {
		t.Errorf("delta = %d, want %d", outcome.ConfidenceDelta, PenaltyMajorInteraction)
	}
	if outcome.Result.Confidence != ConfidenceWeak {
		t.Errorf("confidence = %d, want %d", outcome.Result.Confidence, ConfidenceWeak)
	}
}

func TestInteractionSourceUnresolvedNames(t *testing.T) {
	source := NewInteractionSource(&fakeInteractionAdapter{
		ids: map[string]string{"warfarin": "2"},
	})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Homeopathicum"},
		types.PatientContext{CurrentMedications: []string{"warfarin"}})

	if outcome.Blocking {
		t.Fatal("unresolved names must not block")
	}
	if outcome.Result.Confidence != ConfidenceNotFound {
		t.Errorf("confidence = %d, want %d", outcome.Result.Confidence, ConfidenceNotFound)
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("warnings = %v, want the unresolved warning", outcome.Warnings)
	}
}

func TestInteractionSourceTransportFailureDegrades(t *testing.T) {
	source := NewInteractionSource(&fakeInteractionAdapter{
		resolveErr: errors.New("connection refused"),
	})

	outcome := source.Validate(context.Background(),
		types.Medication{Name: "Fluconazole"},
		types.PatientContext{CurrentMedications: []string{"warfarin"}})

	if outcome.Blocking {
		t.Fatal("transport failure must not block")
	}
	if outcome.Result.Confidence != ConfidenceUnavailable {
		t.Errorf("confidence = %d, want %d", outcome.Result.Confidence, ConfidenceUnavailable)
	}
}
