package severity

import "time"

// Level represents case severity. Levels form a total order:
// STANDARD < HIGH_RISK < URGENT < CRITICAL.
type Level string

const (
	LevelStandard Level = "STANDARD"
	LevelHighRisk Level = "HIGH_RISK"
	LevelUrgent   Level = "URGENT"
	LevelCritical Level = "CRITICAL"
)

var levelRank = map[Level]int{
	LevelStandard: 0,
	LevelHighRisk: 1,
	LevelUrgent:   2,
	LevelCritical: 3,
}

// Rank returns the ordinal position of the level; unknown levels rank lowest.
func (l Level) Rank() int {
	return levelRank[l]
}

// AtLeast reports whether l is at or above other in the severity order.
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// Max returns the higher of two levels.
func Max(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ValidationSource identifies an external validation authority consulted by
// the cascade validator.
type ValidationSource string

const (
	SourceFDA         ValidationSource = "FDA"
	SourceInteraction ValidationSource = "INTERACTION"
	SourceGuideline   ValidationSource = "GUIDELINE"
	SourcePubMed      ValidationSource = "PUBMED"
)

// TriggerType classifies what produced a severity trigger.
type TriggerType string

const (
	TriggerKeyword   TriggerType = "keyword"
	TriggerVitalSign TriggerType = "vital_sign"
	TriggerCondition TriggerType = "condition"
)

// Trigger is a single signal contributing to a case's severity.
type Trigger struct {
	Type     TriggerType `json:"type"`
	Value    string      `json:"value"`
	Severity Level       `json:"severity"`
}

// Assessment is the immutable result of classifying one case. It is created
// once per run and consumed by the cascade validator and retrieval.
type Assessment struct {
	IsSevere            bool               `json:"is_severe"`
	Level               Level              `json:"severity_level"`
	Triggers            []Trigger          `json:"triggers"`
	RequiredValidations []ValidationSource `json:"required_validations"`
	AutoEscalate        bool               `json:"auto_escalate"`
	ConfidenceModifier  int                `json:"confidence_modifier"`
}

// RequiresSource reports whether the assessment mandates the given source.
func (a *Assessment) RequiresSource(s ValidationSource) bool {
	for _, rv := range a.RequiredValidations {
		if rv == s {
			return true
		}
	}
	return false
}

// SevereCondition is one entry in the configurable severe-condition catalog.
type SevereCondition struct {
	ConditionName       string             `json:"condition_name"`
	Keywords            []string           `json:"keywords"`
	RiskCategory        Level              `json:"risk_category"`
	RequiredValidations []ValidationSource `json:"required_validations"`
	AutoEscalate        bool               `json:"auto_escalate"`
	UpdatedAt           time.Time          `json:"updated_at,omitempty"`
}

// Confidence modifiers per tier. Empirically tuned; keep as named constants.
const (
	ModifierStandard = 0
	ModifierHighRisk = -5
	ModifierUrgent   = -10
	ModifierCritical = -20
)

func modifierFor(level Level) int {
	switch level {
	case LevelCritical:
		return ModifierCritical
	case LevelUrgent:
		return ModifierUrgent
	case LevelHighRisk:
		return ModifierHighRisk
	default:
		return ModifierStandard
	}
}

// requiredValidationsFor scales the mandatory source list with severity:
// STANDARD gets the structured lookup only, CRITICAL gets all four.
func requiredValidationsFor(level Level) []ValidationSource {
	all := []ValidationSource{SourceFDA, SourceInteraction, SourceGuideline, SourcePubMed}
	switch level {
	case LevelCritical:
		return all
	case LevelUrgent:
		return all[:3]
	case LevelHighRisk:
		return all[:2]
	default:
		return all[:1]
	}
}
