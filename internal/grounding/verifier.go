package grounding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/adapters/knowledge"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Verifier checks extracted claims against retrieved evidence documents.
// It is a pure text check with no network calls; the evidence is whatever
// the cascade already fetched.
type Verifier struct {
	logger zerolog.Logger
}

func NewVerifier(logger zerolog.Logger) *Verifier {
	return &Verifier{logger: logger.With().Str("component", "grounding").Logger()}
}

var (
	doseRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml)\b`)
	maxDoseRe = regexp.MustCompile(`(?i)(?:maximum|max(?:imum)?\s+dose|not\s+(?:to\s+)?exceed|do\s+not\s+exceed)[^.]*?(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml)\b`)
)

var contradictionPhrases = []string{
	"contraindicated",
	"should not be used",
	"should not be given",
	"do not use",
	"avoid use",
	"not recommended",
}

// Verify extracts claims from the recommendation and checks each one
// against the evidence. The returned penalty is zero or negative and
// already clamped at PenaltyFloor. A recommendation that yields no
// claims at all is treated as fully ungrounded; full grounding requires
// at least one claim.
func (v *Verifier) Verify(rec types.Recommendation, patient types.PatientContext, evidence []knowledge.Document) Result {
	claims := ExtractClaims(rec, patient)
	for i := range claims {
		v.verifyClaim(&claims[i], evidence)
	}

	result := Result{Claims: claims}
	if len(claims) == 0 {
		result.ConfidencePenalty = penalty(0, 0)
		v.logger.Debug().Msg("no claims extracted, nothing to ground")
		return result
	}

	grounded := 0
	for _, c := range claims {
		if c.IsGrounded {
			grounded++
		}
		result.ContradictionCount += len(c.Contradictions)
	}
	result.GroundedRatio = float64(grounded) / float64(len(claims))
	result.IsFullyGrounded = grounded == len(claims) && result.ContradictionCount == 0
	result.ConfidencePenalty = penalty(result.GroundedRatio, result.ContradictionCount)

	v.logger.Debug().
		Int("claims", len(claims)).
		Int("grounded", grounded).
		Int("contradictions", result.ContradictionCount).
		Int("penalty", result.ConfidencePenalty).
		Msg("grounding verification complete")
	return result
}

func penalty(ratio float64, contradictions int) int {
	p := 0
	if ratio < groundedRatioThreshold {
		p = -int((groundedRatioThreshold - ratio) / groundedRatioThreshold * ratioPenaltyScale)
	}
	p += contradictions * contradictionPenalty
	if p < PenaltyFloor {
		p = PenaltyFloor
	}
	return p
}

func (v *Verifier) verifyClaim(claim *Claim, evidence []knowledge.Document) {
	claimLower := strings.ToLower(claim.Claim)
	medLower := strings.ToLower(claim.MedicationName)

	for _, doc := range evidence {
		docLower := strings.ToLower(doc.Content)

		if medLower != "" && strings.Contains(docLower, medLower) {
			if contra := findContradiction(docLower, medLower); contra != "" {
				claim.Contradictions = append(claim.Contradictions,
					fmt.Sprintf("%s: %s", doc.SourceName, contra))
				continue
			}
			if claim.Dosage != "" {
				if exceeded, limit := exceedsMaxDose(claim.Dosage, docLower); exceeded {
					claim.Contradictions = append(claim.Contradictions,
						fmt.Sprintf("%s states a maximum of %s", doc.SourceName, limit))
					continue
				}
			}
			claim.IsGrounded = true
			claim.GroundingSources = append(claim.GroundingSources, doc.SourceName)
			continue
		}

		if tokenOverlap(claimLower, docLower) > overlapThreshold {
			claim.IsGrounded = true
			claim.GroundingSources = append(claim.GroundingSources, doc.SourceName)
		}
	}
}

// findContradiction looks for contraindication phrasing near any
// occurrence of the medication name.
func findContradiction(docLower, medLower string) string {
	for idx := 0; ; {
		rel := strings.Index(docLower[idx:], medLower)
		if rel < 0 {
			return ""
		}
		pos := idx + rel
		start := pos - contradictionWindow
		if start < 0 {
			start = 0
		}
		end := pos + len(medLower) + contradictionWindow
		if end > len(docLower) {
			end = len(docLower)
		}
		window := docLower[start:end]
		for _, phrase := range contradictionPhrases {
			if strings.Contains(window, phrase) {
				return phrase
			}
		}
		idx = pos + len(medLower)
	}
}

// exceedsMaxDose reports whether the claimed dose is above a
// same-unit maximum stated by the document.
func exceedsMaxDose(dosage, docLower string) (bool, string) {
	m := doseRe.FindStringSubmatch(strings.ToLower(dosage))
	if m == nil {
		return false, ""
	}
	claimed, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return false, ""
	}
	unit := m[2]

	for _, max := range maxDoseRe.FindAllStringSubmatch(docLower, -1) {
		if max[2] != unit {
			continue
		}
		limit, err := strconv.ParseFloat(max[1], 64)
		if err != nil {
			continue
		}
		if claimed > limit {
			return true, fmt.Sprintf("%s %s", max[1], max[2])
		}
	}
	return false, ""
}

// tokenOverlap is the share of distinct claim tokens that appear in the
// document. Tokens of one or two characters carry no signal and are
// dropped.
func tokenOverlap(claimLower, docLower string) float64 {
	tokens := map[string]struct{}{}
	for _, t := range strings.Fields(claimLower) {
		t = strings.Trim(t, ".,;:()\"'")
		if len(t) > 2 {
			tokens[t] = struct{}{}
		}
	}
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for t := range tokens {
		if strings.Contains(docLower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
