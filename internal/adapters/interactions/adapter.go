// Package interactions provides drug-interaction checking through an
// RxNorm-style terminology and interaction service.
package interactions

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a drug name cannot be resolved.
var ErrNotFound = errors.New("drug identifier not found")

// Severity grades one interaction pair.
type Severity string

const (
	SeverityMinor           Severity = "Minor"
	SeverityModerate        Severity = "Moderate"
	SeverityMajor           Severity = "Major"
	SeverityContraindicated Severity = "Contraindicated"
)

// Interaction is one pairwise finding.
type Interaction struct {
	Drug1          string   `json:"drug1"`
	Drug2          string   `json:"drug2"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Adapter resolves drug identifiers and checks pairwise interactions.
type Adapter interface {
	// ResolveDrugIdentifier maps a drug name to its canonical identifier,
	// or returns ErrNotFound.
	ResolveDrugIdentifier(ctx context.Context, name string) (string, error)

	// CheckInteractions returns every pairwise interaction across the
	// given canonical identifiers.
	CheckInteractions(ctx context.Context, canonicalIDs []string) ([]Interaction, error)
}
