package grounding

// Claim is a single verifiable statement extracted from an AI
// recommendation. Claims are computed per run and never persisted.
type Claim struct {
	Claim            string   `json:"claim"`
	MedicationName   string   `json:"medication_name,omitempty"`
	Dosage           string   `json:"dosage,omitempty"`
	Frequency        string   `json:"frequency,omitempty"`
	IsGrounded       bool     `json:"is_grounded"`
	GroundingSources []string `json:"grounding_sources,omitempty"`
	Contradictions   []string `json:"contradictions,omitempty"`
}

// Result is the verdict of checking every claim against the retrieved
// evidence. IsFullyGrounded holds only when at least one claim exists,
// every claim is grounded, and nothing was contradicted.
type Result struct {
	IsFullyGrounded    bool    `json:"is_fully_grounded"`
	Claims             []Claim `json:"claims"`
	GroundedRatio      float64 `json:"grounded_ratio"`
	ContradictionCount int     `json:"contradiction_count"`
	ConfidencePenalty  int     `json:"confidence_penalty"`
}

// Tuned constants for the grounding verdict.
const (
	// groundedRatioThreshold is the share of grounded claims below which a
	// proportional penalty applies.
	groundedRatioThreshold = 0.6

	// ratioPenaltyScale converts the grounding shortfall into a penalty.
	ratioPenaltyScale = 50

	// contradictionPenalty applies per contradicted claim.
	contradictionPenalty = -15

	// PenaltyFloor clamps the total penalty.
	PenaltyFloor = -50

	// maxRationaleClaims caps how many indicator sentences are extracted
	// from the rationale.
	maxRationaleClaims = 5

	// overlapThreshold is the token-overlap ratio that grounds a claim
	// when no direct medication match exists.
	overlapThreshold = 0.5

	// contradictionWindow is the character span around a medication name
	// scanned for contraindication phrasing.
	contradictionWindow = 200
)
