package phi

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsYAML []byte

// Category labels a class of protected health information. The label
// appears inside emitted tokens, so it must stay stable across releases.
type Category string

const (
	CategoryName Category = "NAME"
)

// Risk ranks how identifying a category is on its own.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type pattern struct {
	Category Category
	Risk     Risk
	Regex    *regexp.Regexp
}

type patternFile struct {
	Patterns []struct {
		Category string `yaml:"category"`
		Risk     string `yaml:"risk"`
		Regex    string `yaml:"regex"`
	} `yaml:"patterns"`
}

// loadPatterns parses the embedded library. Compilation failures are
// programmer errors and surface at startup, not per request.
func loadPatterns() ([]pattern, error) {
	var file patternFile
	if err := yaml.Unmarshal(patternsYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing pattern library: %w", err)
	}

	patterns := make([]pattern, 0, len(file.Patterns))
	for _, p := range file.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %s: %w", p.Category, err)
		}
		patterns = append(patterns, pattern{
			Category: Category(p.Category),
			Risk:     Risk(p.Risk),
			Regex:    re,
		})
	}
	return patterns, nil
}
