package severity

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/shared/metrics"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Classifier scores clinical cases. It owns the keyword tiers, the vital
// threshold bands, and the severe-condition cache. Safe for concurrent use.
type Classifier struct {
	tiers              []keywordTier
	defaultThresholds  VitalThresholds
	criticalThresholds VitalThresholds
	conditions         *ConditionCache
	logger             zerolog.Logger
}

// NewClassifier creates a classifier over the given condition cache. An
// error means the embedded keyword tier file does not parse.
func NewClassifier(conditions *ConditionCache, logger zerolog.Logger) (*Classifier, error) {
	tiers, err := loadKeywordTiers()
	if err != nil {
		return nil, err
	}
	return &Classifier{
		tiers:              tiers,
		defaultThresholds:  DefaultVitalThresholds(),
		criticalThresholds: CriticalVitalThresholds(),
		conditions:         conditions,
		logger:             logger,
	}, nil
}

// Assess classifies one case. The result is immutable once returned.
func (c *Classifier) Assess(ctx context.Context, patient types.PatientContext) *Assessment {
	var triggers []Trigger

	triggers = append(triggers, c.scanKeywords(patient)...)
	if patient.Vitals != nil {
		triggers = append(triggers, c.scanVitals(*patient.Vitals)...)
	}
	triggers = append(triggers, c.scanConditions(ctx, patient.ChronicConditions)...)

	level := LevelStandard
	for _, t := range triggers {
		level = Max(level, t.Severity)
	}

	assessment := &Assessment{
		IsSevere:            level != LevelStandard,
		Level:               level,
		Triggers:            triggers,
		RequiredValidations: requiredValidationsFor(level),
		AutoEscalate:        level == LevelCritical,
		ConfidenceModifier:  modifierFor(level),
	}

	// Catalog entries can demand more sources or escalation than the tier
	// default, never fewer.
	for _, t := range triggers {
		if t.Type != TriggerCondition {
			continue
		}
		if cond := c.lookupCondition(ctx, t.Value); cond != nil {
			assessment.RequiredValidations = mergeSources(assessment.RequiredValidations, cond.RequiredValidations)
			if cond.AutoEscalate {
				assessment.AutoEscalate = true
			}
		}
	}

	metrics.RecordSeverityAssessment(string(level))
	c.logger.Debug().
		Str("level", string(level)).
		Int("triggers", len(triggers)).
		Bool("auto_escalate", assessment.AutoEscalate).
		Msg("severity assessed")

	return assessment
}

// scanKeywords matches complaint and symptoms against the embedded tiers.
func (c *Classifier) scanKeywords(patient types.PatientContext) []Trigger {
	text := strings.ToLower(patient.ChiefComplaint)
	for _, s := range patient.Symptoms {
		text += " " + strings.ToLower(s)
	}

	var triggers []Trigger
	for _, tier := range c.tiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(text, kw) {
				triggers = append(triggers, Trigger{
					Type:     TriggerKeyword,
					Value:    kw,
					Severity: tier.Level,
				})
			}
		}
	}
	return triggers
}

// scanVitals checks each measured vital against the two nested bands.
// Violating the critical band triggers CRITICAL; violating only the default
// band triggers URGENT.
func (c *Classifier) scanVitals(v types.VitalSigns) []Trigger {
	var triggers []Trigger

	check := func(desc string, critical, abnormal bool) {
		switch {
		case critical:
			triggers = append(triggers, Trigger{Type: TriggerVitalSign, Value: desc, Severity: LevelCritical})
		case abnormal:
			triggers = append(triggers, Trigger{Type: TriggerVitalSign, Value: desc, Severity: LevelUrgent})
		}
	}

	d, cr := c.defaultThresholds, c.criticalThresholds

	if v.BloodPressureSystolic > 0 {
		check(fmt.Sprintf("systolic blood pressure %d", v.BloodPressureSystolic),
			v.BloodPressureSystolic > cr.SystolicMax || v.BloodPressureSystolic < cr.SystolicMin,
			v.BloodPressureSystolic > d.SystolicMax || v.BloodPressureSystolic < d.SystolicMin)
	}
	if v.BloodPressureDiastolic > 0 {
		check(fmt.Sprintf("diastolic blood pressure %d", v.BloodPressureDiastolic),
			v.BloodPressureDiastolic > cr.DiastolicMax,
			v.BloodPressureDiastolic > d.DiastolicMax)
	}
	if v.HeartRate > 0 {
		check(fmt.Sprintf("heart rate %d", v.HeartRate),
			v.HeartRate > cr.HeartRateMax || v.HeartRate < cr.HeartRateMin,
			v.HeartRate > d.HeartRateMax || v.HeartRate < d.HeartRateMin)
	}
	if v.Temperature > 0 {
		check(fmt.Sprintf("temperature %.1f", v.Temperature),
			v.Temperature > cr.TempMax,
			v.Temperature > d.TempMax)
	}
	if v.RespiratoryRate > 0 {
		check(fmt.Sprintf("respiratory rate %d", v.RespiratoryRate),
			v.RespiratoryRate > cr.RespRateMax || v.RespiratoryRate < cr.RespRateMin,
			v.RespiratoryRate > d.RespRateMax || v.RespiratoryRate < d.RespRateMin)
	}
	if v.OxygenSaturation > 0 {
		check(fmt.Sprintf("oxygen saturation %d", v.OxygenSaturation),
			v.OxygenSaturation < cr.OxygenSatMin,
			v.OxygenSaturation < d.OxygenSatMin)
	}

	return triggers
}

// scanConditions matches the patient's chronic conditions against the
// severe-condition catalog.
func (c *Classifier) scanConditions(ctx context.Context, chronicConditions []string) []Trigger {
	if len(chronicConditions) == 0 {
		return nil
	}

	catalog := c.conditions.Conditions(ctx)
	var triggers []Trigger
	for _, patientCond := range chronicConditions {
		lc := strings.ToLower(patientCond)
		for _, severe := range catalog {
			for _, kw := range severe.Keywords {
				if strings.Contains(lc, strings.ToLower(kw)) {
					triggers = append(triggers, Trigger{
						Type:     TriggerCondition,
						Value:    severe.ConditionName,
						Severity: severe.RiskCategory,
					})
					break
				}
			}
		}
	}
	return triggers
}

func (c *Classifier) lookupCondition(ctx context.Context, name string) *SevereCondition {
	for _, cond := range c.conditions.Conditions(ctx) {
		if cond.ConditionName == name {
			return &cond
		}
	}
	return nil
}

func mergeSources(base, extra []ValidationSource) []ValidationSource {
	seen := make(map[ValidationSource]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			base = append(base, s)
			seen[s] = true
		}
	}
	return base
}
