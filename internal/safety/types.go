package safety

// IssueType classifies a safety finding.
type IssueType string

const (
	IssueAllergy          IssueType = "allergy"
	IssueInteraction      IssueType = "interaction"
	IssueContraindication IssueType = "contraindication"
	IssueDosage           IssueType = "dosage"
	IssueAgeRelated       IssueType = "age_related"
)

// IssueSeverity grades a safety finding. Only SeverityBlocked removes a
// medication from the plan.
type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityCaution IssueSeverity = "caution"
	SeverityBlocked IssueSeverity = "blocked"
)

// RiskLevel is the aggregate risk of a medication list.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal position of the risk level.
func (r RiskLevel) Rank() int {
	return riskRank[r]
}

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Issue is a single safety finding for one medication.
type Issue struct {
	Type           IssueType     `json:"type"`
	Severity       IssueSeverity `json:"severity"`
	Medication     string        `json:"medication"`
	Description    string        `json:"description"`
	Recommendation string        `json:"recommendation,omitempty"`
}

// CheckResult is the aggregate verdict for one medication list. The caller
// must remove every BlockedMedications entry from the final plan and must
// surface Warnings even when approved.
type CheckResult struct {
	IsApproved         bool      `json:"is_approved"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Issues             []Issue   `json:"issues"`
	BlockedMedications []string  `json:"blocked_medications"`
	Warnings           []string  `json:"warnings"`
	Recommendations    []string  `json:"recommendations"`
}
