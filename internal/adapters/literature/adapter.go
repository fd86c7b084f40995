// Package literature provides medical literature search with evidence
// grading.
package literature

import (
	"context"
	"strings"
)

// EvidenceTier grades the strength of an article's evidence, A strongest.
type EvidenceTier string

const (
	TierA EvidenceTier = "A" // systematic reviews, meta-analyses
	TierB EvidenceTier = "B" // randomized controlled trials
	TierC EvidenceTier = "C" // cohort and observational studies
	TierD EvidenceTier = "D" // case reports, expert opinion
)

// Article is one literature search hit.
type Article struct {
	Title            string       `json:"title"`
	Abstract         string       `json:"abstract,omitempty"`
	Journal          string       `json:"journal,omitempty"`
	Year             int          `json:"year,omitempty"`
	PublicationTypes []string     `json:"publication_types,omitempty"`
	EvidenceTier     EvidenceTier `json:"evidence_tier"`
}

// Adapter searches the literature for condition/medication evidence.
type Adapter interface {
	SearchLiterature(ctx context.Context, condition, medication string, maxResults int) ([]Article, error)
}

// TierForPublicationTypes infers the evidence tier from publication-type
// metadata.
func TierForPublicationTypes(pubTypes []string) EvidenceTier {
	tier := TierD
	for _, pt := range pubTypes {
		normalized := strings.ToLower(strings.TrimSpace(pt))
		switch {
		case strings.Contains(normalized, "meta-analysis"), strings.Contains(normalized, "systematic review"):
			return TierA
		case strings.Contains(normalized, "randomized controlled trial"):
			if tier.worseThan(TierB) {
				tier = TierB
			}
		case strings.Contains(normalized, "cohort"), strings.Contains(normalized, "observational"), strings.Contains(normalized, "comparative study"):
			if tier.worseThan(TierC) {
				tier = TierC
			}
		}
	}
	return tier
}

func (t EvidenceTier) worseThan(other EvidenceTier) bool {
	return t > other
}
