package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/types"
)

// fakeSource is a scripted Source: it returns a fixed outcome per
// medication name and counts its calls.
type fakeSource struct {
	name     severity.ValidationSource
	applies  bool
	outcomes map[string]Outcome
	calls    int
}

func (f *fakeSource) Name() severity.ValidationSource { return f.name }

func (f *fakeSource) Applies(types.PatientContext, *severity.Assessment) bool { return f.applies }

func (f *fakeSource) Validate(_ context.Context, med types.Medication, _ types.PatientContext) Outcome {
	f.calls++
	if outcome, ok := f.outcomes[med.Name]; ok {
		return outcome
	}
	return approved(f.name, med, ConfidenceApproved, "validated")
}

func approvingSource(name severity.ValidationSource) *fakeSource {
	return &fakeSource{name: name, applies: true, outcomes: map[string]Outcome{}}
}

func criticalAssessment() *severity.Assessment {
	return &severity.Assessment{
		IsSevere: true,
		Level:    severity.LevelCritical,
		RequiredValidations: []severity.ValidationSource{
			severity.SourceFDA, severity.SourceInteraction,
			severity.SourceGuideline, severity.SourcePubMed,
		},
	}
}

func standardAssessment() *severity.Assessment {
	return &severity.Assessment{
		Level:               severity.LevelStandard,
		RequiredValidations: []severity.ValidationSource{severity.SourceFDA},
	}
}

func meds(names ...string) []types.Medication {
	out := make([]types.Medication, len(names))
	for i, n := range names {
		out[i] = types.Medication{Name: n}
	}
	return out
}

func TestValidateAllSourcesApprove(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	interaction := approvingSource(severity.SourceInteraction)
	validator := NewValidator([]Source{fda, interaction}, time.Second, zerolog.Nop())

	result, err := validator.Validate(context.Background(), meds("Lisinopril", "Metformin"), types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !result.IsApproved {
		t.Error("all-approving run must be approved")
	}
	if len(result.Sources) != 4 {
		t.Errorf("source results = %d, want 4 (2 meds x 2 sources)", len(result.Sources))
	}
	if fda.calls != 2 || interaction.calls != 2 {
		t.Errorf("calls = %d/%d, want 2/2", fda.calls, interaction.calls)
	}
	if result.RequiresManualReview {
		t.Error("clean standard run should not need manual review")
	}
}

// A hard block stops the run: no further source runs for the blocked
// medication or any later one.
func TestValidateFailFast(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	fda.outcomes["Warfarin"] = blocked(severity.SourceFDA, types.Medication{Name: "Warfarin"}, "boxed warning")
	interaction := approvingSource(severity.SourceInteraction)
	guideline := approvingSource(severity.SourceGuideline)

	validator := NewValidator([]Source{fda, interaction, guideline}, time.Second, zerolog.Nop())

	result, err := validator.Validate(context.Background(),
		meds("Lisinopril", "Warfarin", "Metformin"),
		types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if result.IsApproved {
		t.Fatal("blocked run must not be approved")
	}
	if result.BlockedBy != severity.SourceFDA {
		t.Errorf("BlockedBy = %s, want %s", result.BlockedBy, severity.SourceFDA)
	}
	if result.BlockedMedication != "Warfarin" {
		t.Errorf("BlockedMedication = %q, want Warfarin", result.BlockedMedication)
	}
	if result.BlockReason != "boxed warning" {
		t.Errorf("BlockReason = %q", result.BlockReason)
	}

	// Lisinopril ran everywhere; Warfarin stopped at the first source;
	// Metformin never ran.
	if fda.calls != 2 {
		t.Errorf("fda calls = %d, want 2", fda.calls)
	}
	if interaction.calls != 1 {
		t.Errorf("interaction calls = %d, want 1", interaction.calls)
	}
	if guideline.calls != 1 {
		t.Errorf("guideline calls = %d, want 1", guideline.calls)
	}
}

func TestValidateSkipsNonApplicableSources(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	pubmed := approvingSource(severity.SourcePubMed)
	pubmed.applies = false

	validator := NewValidator([]Source{fda, pubmed}, time.Second, zerolog.Nop())

	_, err := validator.Validate(context.Background(), meds("Lisinopril"), types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if pubmed.calls != 0 {
		t.Errorf("non-applicable source was called %d times", pubmed.calls)
	}
	if fda.calls != 1 {
		t.Errorf("fda calls = %d, want 1", fda.calls)
	}
}

func TestValidateUnavailableSourceDegrades(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	fda.outcomes["Lisinopril"] = unavailable(severity.SourceFDA, types.Medication{Name: "Lisinopril"}, "FDA lookup unavailable")

	validator := NewValidator([]Source{fda}, time.Second, zerolog.Nop())

	result, err := validator.Validate(context.Background(), meds("Lisinopril"), types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !result.IsApproved {
		t.Error("unavailable source must degrade, not block")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v, want the unavailability warning", result.Warnings)
	}
	if result.ConfidenceModifier != PenaltyUnavailable {
		t.Errorf("modifier = %d, want %d", result.ConfidenceModifier, PenaltyUnavailable)
	}
}

func TestValidateConfidenceFloor(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"} {
		fda.outcomes[name] = unavailable(severity.SourceFDA, types.Medication{Name: name}, name+" unavailable")
	}

	validator := NewValidator([]Source{fda}, time.Second, zerolog.Nop())

	result, err := validator.Validate(context.Background(),
		meds("A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"),
		types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if result.ConfidenceModifier != ModifierFloor {
		t.Errorf("modifier = %d, want floor %d", result.ConfidenceModifier, ModifierFloor)
	}
}

func TestValidateManualReview(t *testing.T) {
	t.Run("critical severity forces review", func(t *testing.T) {
		validator := NewValidator([]Source{approvingSource(severity.SourceFDA)}, time.Second, zerolog.Nop())
		result, err := validator.Validate(context.Background(), meds("Lisinopril"), types.PatientContext{}, criticalAssessment())
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !result.RequiresManualReview {
			t.Error("critical assessment must force manual review")
		}
	})

	t.Run("auto escalate forces review", func(t *testing.T) {
		assessment := standardAssessment()
		assessment.AutoEscalate = true
		validator := NewValidator([]Source{approvingSource(severity.SourceFDA)}, time.Second, zerolog.Nop())
		result, err := validator.Validate(context.Background(), meds("Lisinopril"), types.PatientContext{}, assessment)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !result.RequiresManualReview {
			t.Error("auto-escalate must force manual review")
		}
	})

	t.Run("accumulated warnings force review", func(t *testing.T) {
		fda := approvingSource(severity.SourceFDA)
		for _, name := range []string{"A", "B", "C"} {
			fda.outcomes[name] = unavailable(severity.SourceFDA, types.Medication{Name: name}, name+" unavailable")
		}
		validator := NewValidator([]Source{fda}, time.Second, zerolog.Nop())
		result, err := validator.Validate(context.Background(), meds("A", "B", "C"), types.PatientContext{}, standardAssessment())
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !result.RequiresManualReview {
			t.Errorf("three warnings must force manual review, got %v", result.Warnings)
		}
	})
}

func TestValidateCancellation(t *testing.T) {
	validator := NewValidator([]Source{approvingSource(severity.SourceFDA)}, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := validator.Validate(ctx, meds("Lisinopril"), types.PatientContext{}, standardAssessment())
	if err == nil {
		t.Fatal("cancelled context must abort the run with an error")
	}
}

// A source that reports disapproval without blocking is normalized to an
// approved outcome with a warning.
func TestValidateNormalizesNonBlockingDisapproval(t *testing.T) {
	fda := approvingSource(severity.SourceFDA)
	fda.outcomes["Lisinopril"] = Outcome{
		Result: SourceResult{
			Source:     severity.SourceFDA,
			Medication: "Lisinopril",
			IsApproved: false,
			Reason:     "ambiguous label",
			Confidence: ConfidenceWeak,
		},
	}

	validator := NewValidator([]Source{fda}, time.Second, zerolog.Nop())
	result, err := validator.Validate(context.Background(), meds("Lisinopril"), types.PatientContext{}, standardAssessment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !result.IsApproved {
		t.Error("non-blocking disapproval must not fail the run")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v, want the normalized warning", result.Warnings)
	}
}
