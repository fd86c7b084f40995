package grounding

import (
	"fmt"
	"strings"

	"github.com/clinsafe/platform/internal/shared/types"
)

// Indicator phrases that mark a rationale sentence as a verifiable
// clinical assertion rather than narrative filler.
var claimIndicators = []string{
	"is effective for",
	"first-line treatment",
	"first line treatment",
	"is recommended for",
	"recommended for",
	"reduces the risk",
	"reduces risk",
	"has been shown to",
	"is indicated for",
	"standard of care",
}

// ExtractClaims decomposes a recommendation into individual claims.
// Each medication yields an appropriateness claim plus one claim per
// stated dosage and frequency. A non-empty rationale yields one claim
// for the rationale as a whole plus up to maxRationaleClaims sentences
// containing an indicator phrase.
func ExtractClaims(rec types.Recommendation, patient types.PatientContext) []Claim {
	var claims []Claim

	for _, med := range rec.Medications {
		if med.Name == "" {
			continue
		}
		claims = append(claims, Claim{
			Claim:          fmt.Sprintf("%s is appropriate for %s", med.Name, patient.ChiefComplaint),
			MedicationName: med.Name,
		})
		if med.Dosage != "" {
			claims = append(claims, Claim{
				Claim:          fmt.Sprintf("%s at %s is an appropriate dose", med.Name, med.Dosage),
				MedicationName: med.Name,
				Dosage:         med.Dosage,
			})
		}
		if med.Frequency != "" {
			claims = append(claims, Claim{
				Claim:          fmt.Sprintf("%s taken %s is an appropriate regimen", med.Name, med.Frequency),
				MedicationName: med.Name,
				Frequency:      med.Frequency,
			})
		}
	}

	claims = append(claims, rationaleClaims(rec)...)
	return claims
}

func rationaleClaims(rec types.Recommendation) []Claim {
	if rec.Rationale == "" {
		return nil
	}

	claims := []Claim{{
		Claim:          rec.Rationale,
		MedicationName: matchMedication(strings.ToLower(rec.Rationale), rec.Medications),
	}}

	indicators := 0
	for _, sentence := range splitSentences(rec.Rationale) {
		if indicators >= maxRationaleClaims {
			break
		}
		lower := strings.ToLower(sentence)
		for _, indicator := range claimIndicators {
			if strings.Contains(lower, indicator) {
				claims = append(claims, Claim{
					Claim:          sentence,
					MedicationName: matchMedication(lower, rec.Medications),
				})
				indicators++
				break
			}
		}
	}
	return claims
}

func splitSentences(text string) []string {
	var sentences []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if s := strings.TrimSpace(raw); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// matchMedication attributes a rationale sentence to the medication it
// mentions, if any. Unattributed sentences are verified by token
// overlap alone.
func matchMedication(lowerSentence string, medications []types.Medication) string {
	for _, med := range medications {
		if med.Name != "" && strings.Contains(lowerSentence, strings.ToLower(med.Name)) {
			return med.Name
		}
		if med.GenericName != "" && strings.Contains(lowerSentence, strings.ToLower(med.GenericName)) {
			return med.Name
		}
	}
	return ""
}
