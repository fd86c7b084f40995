package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/adapters/knowledge"
	"github.com/clinsafe/platform/internal/cascade"
	"github.com/clinsafe/platform/internal/grounding"
	"github.com/clinsafe/platform/internal/phi"
	"github.com/clinsafe/platform/internal/safety"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/events"
	"github.com/clinsafe/platform/internal/shared/types"
)

type fakeKnowledge struct {
	docs []knowledge.Document
}

func (f *fakeKnowledge) SearchKnowledge(_ context.Context, _ knowledge.SearchRequest) ([]knowledge.Document, error) {
	return f.docs, nil
}

// passSource approves every medication at full confidence.
type passSource struct {
	name severity.ValidationSource
}

func (s *passSource) Name() severity.ValidationSource { return s.name }

func (s *passSource) Applies(types.PatientContext, *severity.Assessment) bool { return true }

func (s *passSource) Validate(_ context.Context, med types.Medication, _ types.PatientContext) cascade.Outcome {
	return cascade.Outcome{Result: cascade.SourceResult{
		Source:     s.name,
		Medication: med.Name,
		IsApproved: true,
		Confidence: cascade.ConfidenceApproved,
	}}
}

func newTestOrchestrator(t *testing.T, recorder *events.MemoryRecorder, docs []knowledge.Document) *Orchestrator {
	t.Helper()

	repo := severity.NewStaticConditionRepository(severity.DefaultSevereConditions())
	cache := severity.NewConditionCache(repo, time.Minute, zerolog.Nop())
	classifier, err := severity.NewClassifier(cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}

	engine := safety.NewEngine(zerolog.Nop())

	validator := cascade.NewValidator(
		[]cascade.Source{&passSource{name: severity.SourceFDA}},
		time.Second, zerolog.Nop(),
	)

	verifier := grounding.NewVerifier(zerolog.Nop())

	tokenizer, err := phi.NewTokenizer(config.PHIConfig{}, phi.NewMemoryTokenStore(0), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}

	return NewOrchestrator(
		tokenizer, classifier, engine, validator, verifier,
		&fakeKnowledge{docs: docs}, recorder, zerolog.Nop(),
	)
}

func TestAnalyzeHappyPath(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, []knowledge.Document{
		{Content: "Lisinopril is recommended for hypertension.", SourceName: "JNC-8", SourceType: knowledge.SourceClinicalGuideline},
	})

	verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
		Patient: types.PatientContext{
			Age:            52,
			ChiefComplaint: "hypertension follow-up",
		},
		Recommendation: types.Recommendation{
			Medications: []types.Medication{{Name: "Lisinopril"}},
			Rationale:   "Lisinopril is effective for hypertension",
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !verdict.IsApproved {
		t.Errorf("clean case not approved: %+v", verdict)
	}
	if len(verdict.ApprovedMedications) != 1 {
		t.Errorf("approved medications = %d, want 1", len(verdict.ApprovedMedications))
	}
	if verdict.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", verdict.Confidence)
	}
	if verdict.SessionID == "" || verdict.RunID == "" {
		t.Error("verdict must carry run and session identifiers")
	}

	// Every stage published its event.
	for _, eventType := range []string{
		events.TypePHIDeidentified,
		events.TypeSeverityAssessed,
		events.TypeSafetyChecked,
		events.TypeCascadeCompleted,
		events.TypeGroundingVerified,
		events.TypeVerdictProduced,
	} {
		if len(recorder.ByType(eventType)) != 1 {
			t.Errorf("event %s published %d times, want 1", eventType, len(recorder.ByType(eventType)))
		}
	}
}

func TestAnalyzeMalformedRecommendationZeroTrust(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	tests := []struct {
		name string
		rec  types.Recommendation
	}{
		{"empty recommendation", types.Recommendation{}},
		{"nameless medication", types.Recommendation{Medications: []types.Medication{{Dosage: "10 mg"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
				Patient:        types.PatientContext{Age: 30, ChiefComplaint: "cough"},
				Recommendation: tt.rec,
			})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}

			if verdict.IsApproved {
				t.Error("malformed recommendation must be rejected")
			}
			if verdict.Confidence != 0 {
				t.Errorf("confidence = %d, want 0", verdict.Confidence)
			}
			if verdict.RiskLevel != safety.RiskHigh {
				t.Errorf("risk = %s, want %s", verdict.RiskLevel, safety.RiskHigh)
			}
			if !verdict.RequiresManualReview {
				t.Error("zero-trust verdict must require manual review")
			}
			if len(verdict.ApprovedMedications) != 0 {
				t.Errorf("approved medications = %v, want none", verdict.ApprovedMedications)
			}
		})
	}
}

func TestAnalyzeRationaleOnlyRecommendationPenalized(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
		Patient: types.PatientContext{Age: 30, ChiefComplaint: "mild sore throat"},
		Recommendation: types.Recommendation{
			Rationale: "Take fluids and rest",
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// No medications means nothing to block, but the unsupported
	// rationale still counts as an ungrounded claim.
	if verdict.Grounding == nil || verdict.Grounding.IsFullyGrounded {
		t.Errorf("grounding = %+v, unsupported rationale must not be fully grounded", verdict.Grounding)
	}
	if verdict.Confidence != 50 {
		t.Errorf("confidence = %d, want 50 after the grounding penalty", verdict.Confidence)
	}
}

func TestAnalyzeSafetyBlockRemovesMedication(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
		Patient: types.PatientContext{
			Age:       30,
			Allergies: []string{"penicillin"},

			ChiefComplaint: "sinus infection",
		},
		Recommendation: types.Recommendation{
			Medications: []types.Medication{{Name: "Amoxicillin"}, {Name: "Acetaminophen"}},
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if verdict.IsApproved {
		t.Error("safety block must fail approval")
	}
	if len(verdict.ApprovedMedications) != 1 || verdict.ApprovedMedications[0].Name != "Acetaminophen" {
		t.Errorf("approved medications = %+v, want Acetaminophen only", verdict.ApprovedMedications)
	}
	if verdict.Safety == nil || len(verdict.Safety.BlockedMedications) != 1 {
		t.Errorf("safety result = %+v", verdict.Safety)
	}
}

func TestAnalyzeCriticalCaseEscalates(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
		Patient: types.PatientContext{
			Age:            60,
			ChiefComplaint: "severe chest pain",
		},
		Recommendation: types.Recommendation{
			Medications: []types.Medication{{Name: "Nitroglycerin"}},
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if verdict.Severity.Level != severity.LevelCritical {
		t.Errorf("severity = %s, want %s", verdict.Severity.Level, severity.LevelCritical)
	}
	if !verdict.RequiresManualReview {
		t.Error("critical case must require manual review")
	}
	if verdict.Confidence >= 100 {
		t.Errorf("confidence = %d, critical modifier must lower it", verdict.Confidence)
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.Analyze(ctx, AnalyzeRequest{
		Patient:        types.PatientContext{Age: 30, ChiefComplaint: "cough"},
		Recommendation: types.Recommendation{Medications: []types.Medication{{Name: "Dextromethorphan"}}},
	})
	if err == nil {
		t.Fatal("cancelled context must abort the run")
	}
}

func TestAnalyzeReusesCallerSession(t *testing.T) {
	recorder := events.NewMemoryRecorder()
	orchestrator := newTestOrchestrator(t, recorder, nil)

	verdict, err := orchestrator.Analyze(context.Background(), AnalyzeRequest{
		SessionID:      "caller-session",
		Patient:        types.PatientContext{Age: 30, ChiefComplaint: "cough"},
		Recommendation: types.Recommendation{Medications: []types.Medication{{Name: "Dextromethorphan"}}},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if verdict.SessionID != "caller-session" {
		t.Errorf("session = %q, want caller-session", verdict.SessionID)
	}
}
