package severity

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/shared/types"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	repo := NewStaticConditionRepository(DefaultSevereConditions())
	cache := NewConditionCache(repo, time.Minute, zerolog.Nop())
	classifier, err := NewClassifier(cache, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	return classifier
}

func TestLoadKeywordTiers(t *testing.T) {
	tiers, err := loadKeywordTiers()
	if err != nil {
		t.Fatalf("loadKeywordTiers() error = %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(tiers))
	}
	if tiers[0].Level != LevelCritical {
		t.Errorf("first tier = %s, want %s", tiers[0].Level, LevelCritical)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Level.Rank() >= tiers[i-1].Level.Rank() {
			t.Errorf("tier %d (%s) not below tier %d (%s)", i, tiers[i].Level, i-1, tiers[i-1].Level)
		}
	}
}

func TestAssessKeywordTiers(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name      string
		complaint string
		symptoms  []string
		want      Level
	}{
		{"chest pain is critical", "crushing chest pain radiating to left arm", nil, LevelCritical},
		{"symptom list is scanned too", "feeling unwell", []string{"difficulty breathing"}, LevelCritical},
		{"worst headache is urgent", "worst headache of my life", nil, LevelUrgent},
		{"high fever is urgent", "high fever for two days", nil, LevelUrgent},
		{"night sweats are high risk", "night sweats and fatigue", nil, LevelHighRisk},
		{"mild complaint is standard", "mild sore throat", nil, LevelStandard},
		{"matching is case insensitive", "CHEST PAIN", nil, LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := classifier.Assess(context.Background(), types.PatientContext{
				ChiefComplaint: tt.complaint,
				Symptoms:       tt.symptoms,
			})
			if assessment.Level != tt.want {
				t.Errorf("Assess() level = %s, want %s", assessment.Level, tt.want)
			}
			if wantSevere := tt.want != LevelStandard; assessment.IsSevere != wantSevere {
				t.Errorf("Assess() is_severe = %v, want %v", assessment.IsSevere, wantSevere)
			}
		})
	}
}

func TestAssessVitalBands(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name   string
		vitals types.VitalSigns
		want   Level
	}{
		{"normal vitals", types.VitalSigns{BloodPressureSystolic: 120, HeartRate: 72, OxygenSaturation: 98}, LevelStandard},
		{"low oxygen is urgent", types.VitalSigns{OxygenSaturation: 90}, LevelUrgent},
		{"very low oxygen is critical", types.VitalSigns{OxygenSaturation: 85}, LevelCritical},
		{"hypotension is urgent", types.VitalSigns{BloodPressureSystolic: 85}, LevelUrgent},
		{"severe hypotension is critical", types.VitalSigns{BloodPressureSystolic: 75}, LevelCritical},
		{"tachycardia is urgent", types.VitalSigns{HeartRate: 130}, LevelUrgent},
		{"extreme tachycardia is critical", types.VitalSigns{HeartRate: 150}, LevelCritical},
		{"high fever is urgent", types.VitalSigns{Temperature: 39.8}, LevelUrgent},
		{"hyperpyrexia is critical", types.VitalSigns{Temperature: 41.0}, LevelCritical},
		{"unmeasured vitals are skipped", types.VitalSigns{}, LevelStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vitals := tt.vitals
			assessment := classifier.Assess(context.Background(), types.PatientContext{
				ChiefComplaint: "follow-up visit",
				Vitals:         &vitals,
			})
			if assessment.Level != tt.want {
				t.Errorf("Assess() level = %s, want %s", assessment.Level, tt.want)
			}
		})
	}
}

func TestAssessChronicConditions(t *testing.T) {
	classifier := newTestClassifier(t)

	assessment := classifier.Assess(context.Background(), types.PatientContext{
		ChiefComplaint:    "medication review",
		ChronicConditions: []string{"stage 3 CKD"},
	})

	if assessment.Level != LevelHighRisk {
		t.Fatalf("Assess() level = %s, want %s", assessment.Level, LevelHighRisk)
	}
	if len(assessment.Triggers) != 1 {
		t.Fatalf("Assess() triggers = %d, want 1", len(assessment.Triggers))
	}
	if assessment.Triggers[0].Value != "Chronic Kidney Disease" {
		t.Errorf("trigger value = %q, want catalog condition name", assessment.Triggers[0].Value)
	}
}

func TestAssessAutoEscalateFromCatalog(t *testing.T) {
	classifier := newTestClassifier(t)

	assessment := classifier.Assess(context.Background(), types.PatientContext{
		ChiefComplaint:    "routine check",
		ChronicConditions: []string{"history of stroke"},
	})

	if !assessment.AutoEscalate {
		t.Error("catalog entry with auto_escalate should force escalation")
	}
	if len(assessment.RequiredValidations) != 4 {
		t.Errorf("required validations = %d, want all 4", len(assessment.RequiredValidations))
	}
}

func TestAssessRequiredValidationsScale(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		complaint string
		want      int
	}{
		{"mild rash", 1},
		{"night sweats", 2},
		{"high fever", 3},
		{"chest pain", 4},
	}

	for _, tt := range tests {
		t.Run(tt.complaint, func(t *testing.T) {
			assessment := classifier.Assess(context.Background(), types.PatientContext{ChiefComplaint: tt.complaint})
			if got := len(assessment.RequiredValidations); got != tt.want {
				t.Errorf("required validations for %q = %d, want %d", tt.complaint, got, tt.want)
			}
		})
	}
}

func TestAssessConfidenceModifiers(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		complaint string
		want      int
	}{
		{"mild rash", 0},
		{"night sweats", ModifierHighRisk},
		{"high fever", ModifierUrgent},
		{"chest pain", ModifierCritical},
	}

	for _, tt := range tests {
		t.Run(tt.complaint, func(t *testing.T) {
			assessment := classifier.Assess(context.Background(), types.PatientContext{ChiefComplaint: tt.complaint})
			if assessment.ConfidenceModifier != tt.want {
				t.Errorf("modifier for %q = %d, want %d", tt.complaint, assessment.ConfidenceModifier, tt.want)
			}
		})
	}
}

// Adding a higher-severity trigger must never lower the assessed level.
func TestAssessLevelMonotonicity(t *testing.T) {
	classifier := newTestClassifier(t)

	base := classifier.Assess(context.Background(), types.PatientContext{
		ChiefComplaint: "night sweats",
	})
	escalated := classifier.Assess(context.Background(), types.PatientContext{
		ChiefComplaint: "night sweats and chest pain",
	})

	if escalated.Level.Rank() < base.Level.Rank() {
		t.Errorf("adding a critical trigger lowered level: %s -> %s", base.Level, escalated.Level)
	}
	if escalated.Level != LevelCritical {
		t.Errorf("level = %s, want %s", escalated.Level, LevelCritical)
	}
}

func TestLevelMax(t *testing.T) {
	if got := Max(LevelUrgent, LevelHighRisk); got != LevelUrgent {
		t.Errorf("Max(URGENT, HIGH_RISK) = %s", got)
	}
	if got := Max(LevelStandard, LevelCritical); got != LevelCritical {
		t.Errorf("Max(STANDARD, CRITICAL) = %s", got)
	}
}
