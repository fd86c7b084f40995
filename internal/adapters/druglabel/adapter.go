// Package druglabel provides access to structured drug-label data. The
// primary implementation queries an openFDA-style API; a legacy hospital
// formulary database can serve as fallback.
package druglabel

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no label exists for the requested drug.
var ErrNotFound = errors.New("drug label not found")

// Label is the structured safety label for one drug.
type Label struct {
	BrandName               string   `json:"brand_name"`
	GenericName             string   `json:"generic_name"`
	Indications             []string `json:"indications"`
	DosageAndAdministration string   `json:"dosage_and_administration"`
	Contraindications       []string `json:"contraindications"`
	Warnings                []string `json:"warnings"`
	BoxedWarning            string   `json:"boxed_warning,omitempty"`
}

// HasBoxedWarning reports whether the label carries a boxed-style warning.
func (l *Label) HasBoxedWarning() bool {
	return l.BoxedWarning != ""
}

// Adapter looks up drug labels by name.
type Adapter interface {
	// LookupDrugLabel returns the label for the named drug, or ErrNotFound.
	LookupDrugLabel(ctx context.Context, name string) (*Label, error)
}

// Fallback chains adapters: each is tried in order until one returns a
// label. Only ErrNotFound advances the chain; other failures propagate so
// the caller can degrade the result.
type Fallback struct {
	adapters []Adapter
}

// NewFallback builds a chain over the given adapters.
func NewFallback(adapters ...Adapter) *Fallback {
	return &Fallback{adapters: adapters}
}

func (f *Fallback) LookupDrugLabel(ctx context.Context, name string) (*Label, error) {
	for _, a := range f.adapters {
		label, err := a.LookupDrugLabel(ctx, name)
		if err == nil {
			return label, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
