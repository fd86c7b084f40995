// Package knowledge provides retrieval from the clinical knowledge service.
// Embedding and vector-index mechanics live in that service; this side only
// consumes ranked results.
package knowledge

import (
	"context"
)

// SourceType classifies where a retrieved document came from.
type SourceType string

const (
	SourceClinicalGuideline SourceType = "clinical_guideline"
	SourceDrugLabel         SourceType = "drug_label"
	SourcePubMed            SourceType = "pubmed"
	SourceInteraction       SourceType = "interaction"
)

// Document is one retrieved evidence chunk.
type Document struct {
	Content    string     `json:"content"`
	SourceType SourceType `json:"source_type"`
	SourceName string     `json:"source_name"`
	Similarity float64    `json:"similarity"`
}

// SearchRequest narrows a knowledge query.
type SearchRequest struct {
	Query            string     `json:"query"`
	SourceTypeFilter SourceType `json:"source_type_filter,omitempty"`
	Threshold        float64    `json:"threshold"`
	Count            int        `json:"count"`
}

// Adapter searches the knowledge base.
type Adapter interface {
	SearchKnowledge(ctx context.Context, req SearchRequest) ([]Document, error)
}
