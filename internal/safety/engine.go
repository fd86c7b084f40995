package safety

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/shared/metrics"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Age bounds for the pediatric and geriatric rules.
const (
	pediatricAgeLimit = 18
	geriatricAgeFloor = 65
)

// Keyword classes for the hard rules. Matching is case-insensitive
// substring on both the brand and the generic name.
var (
	penicillinClassKeywords = []string{"amoxicillin", "ampicillin", "penicillin"}

	nsaidKeywords = []string{"ibuprofen", "naproxen", "diclofenac", "ketorolac", "aspirin", "indomethacin", "meloxicam", "celecoxib"}

	nsaidRiskConditions = []string{"kidney", "renal", "ckd", "hypertension", "diabetes"}

	pediatricRestricted = []string{"aspirin", "ciprofloxacin", "levofloxacin", "moxifloxacin", "ofloxacin", "fluoroquinolone"}

	benzodiazepineKeywords = []string{"diazepam", "lorazepam", "alprazolam", "clonazepam", "temazepam", "midazolam"}
)

// Engine applies the deterministic clinical safety rules. It runs after any
// AI generation step and its verdict cannot be overridden downstream.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a new safety rule engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Check applies every rule to every medication and aggregates the verdict.
func (e *Engine) Check(medications []types.Medication, patient types.PatientContext) *CheckResult {
	result := &CheckResult{
		IsApproved:         true,
		RiskLevel:          RiskLow,
		Issues:             []Issue{},
		BlockedMedications: []string{},
		Warnings:           []string{},
		Recommendations:    []string{},
	}

	for _, med := range medications {
		e.checkAllergies(med, patient.Allergies, result)
		e.checkNSAIDContraindications(med, patient.ChronicConditions, result)
		e.checkAgeRestrictions(med, patient.Age, result)
	}

	blocked := len(result.BlockedMedications)
	switch {
	case blocked > 1:
		result.RiskLevel = RiskCritical
	case blocked == 1:
		result.RiskLevel = RiskHigh
	case len(result.Warnings) > 0:
		result.RiskLevel = RiskMedium
	}
	result.IsApproved = blocked == 0

	e.logger.Debug().
		Int("medications", len(medications)).
		Int("blocked", blocked).
		Str("risk", string(result.RiskLevel)).
		Msg("safety check complete")

	return result
}

// FilterApproved returns the medication list with blocked entries removed.
func FilterApproved(medications []types.Medication, result *CheckResult) []types.Medication {
	if len(result.BlockedMedications) == 0 {
		return medications
	}

	blocked := make(map[string]bool, len(result.BlockedMedications))
	for _, name := range result.BlockedMedications {
		blocked[strings.ToLower(name)] = true
	}

	approved := make([]types.Medication, 0, len(medications))
	for _, med := range medications {
		if blocked[strings.ToLower(med.Name)] {
			continue
		}
		approved = append(approved, med)
	}
	return approved
}

// checkAllergies blocks any medication whose name overlaps a recorded
// allergy, in either direction, plus the penicillin cross-reactivity rule.
func (e *Engine) checkAllergies(med types.Medication, allergies []string, result *CheckResult) {
	for _, allergy := range allergies {
		la := strings.ToLower(strings.TrimSpace(allergy))
		if la == "" {
			continue
		}

		if nameMatches(med, la) {
			e.block(result, Issue{
				Type:        IssueAllergy,
				Severity:    SeverityBlocked,
				Medication:  med.Name,
				Description: fmt.Sprintf("%s matches recorded allergy %q", med.Name, allergy),
			}, "allergy")
			continue
		}

		// Cross-reactivity: a penicillin allergy blocks the whole
		// aminopenicillin class even without literal name overlap.
		if strings.Contains(la, "penicillin") && matchesAny(med, penicillinClassKeywords) {
			e.block(result, Issue{
				Type:           IssueAllergy,
				Severity:       SeverityBlocked,
				Medication:     med.Name,
				Description:    fmt.Sprintf("%s is contraindicated with a penicillin allergy (cross-reactivity)", med.Name),
				Recommendation: "consider a macrolide or cephalosporin after allergy review",
			}, "allergy_cross_reactivity")
		}
	}
}

// checkNSAIDContraindications blocks NSAIDs for patients with renal disease,
// hypertension or diabetes.
func (e *Engine) checkNSAIDContraindications(med types.Medication, conditions []string, result *CheckResult) {
	if !matchesAny(med, nsaidKeywords) {
		return
	}

	for _, condition := range conditions {
		lc := strings.ToLower(condition)
		for _, risk := range nsaidRiskConditions {
			if strings.Contains(lc, risk) {
				e.block(result, Issue{
					Type:           IssueContraindication,
					Severity:       SeverityBlocked,
					Medication:     med.Name,
					Description:    fmt.Sprintf("NSAID %s is contraindicated with %s", med.Name, condition),
					Recommendation: "consider acetaminophen for analgesia",
				}, "nsaid_contraindication")
				return
			}
		}
	}
}

// checkAgeRestrictions applies the pediatric block and the geriatric
// caution. The geriatric rule warns, it never blocks.
func (e *Engine) checkAgeRestrictions(med types.Medication, age int, result *CheckResult) {
	if age < pediatricAgeLimit && matchesAny(med, pediatricRestricted) {
		e.block(result, Issue{
			Type:           IssueAgeRelated,
			Severity:       SeverityBlocked,
			Medication:     med.Name,
			Description:    fmt.Sprintf("%s is restricted under age %d", med.Name, pediatricAgeLimit),
			Recommendation: "select a pediatric-appropriate alternative",
		}, "pediatric_restriction")
		return
	}

	if age >= geriatricAgeFloor && matchesAny(med, benzodiazepineKeywords) {
		issue := Issue{
			Type:           IssueAgeRelated,
			Severity:       SeverityWarning,
			Medication:     med.Name,
			Description:    fmt.Sprintf("benzodiazepine %s carries elevated fall and sedation risk at age %d", med.Name, age),
			Recommendation: "use the lowest effective dose for the shortest duration",
		}
		result.Issues = append(result.Issues, issue)
		result.Warnings = append(result.Warnings, issue.Description)
		if issue.Recommendation != "" {
			result.Recommendations = append(result.Recommendations, issue.Recommendation)
		}
	}
}

func (e *Engine) block(result *CheckResult, issue Issue, rule string) {
	result.Issues = append(result.Issues, issue)
	if !contains(result.BlockedMedications, issue.Medication) {
		result.BlockedMedications = append(result.BlockedMedications, issue.Medication)
	}
	if issue.Recommendation != "" {
		result.Recommendations = append(result.Recommendations, issue.Recommendation)
	}
	metrics.RecordSafetyBlock(rule)
}

// nameMatches reports whether the allergy string and the medication's brand
// or generic name are substrings of each other, in either direction.
func nameMatches(med types.Medication, allergy string) bool {
	for _, name := range medNames(med) {
		if name == "" {
			continue
		}
		if strings.Contains(name, allergy) || strings.Contains(allergy, name) {
			return true
		}
	}
	return false
}

func matchesAny(med types.Medication, keywords []string) bool {
	for _, name := range medNames(med) {
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

func medNames(med types.Medication) [2]string {
	return [2]string{
		strings.ToLower(med.Name),
		strings.ToLower(med.GenericName),
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
