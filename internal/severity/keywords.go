package severity

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// keywordTier pairs a tier's keyword list with the level it triggers.
type keywordTier struct {
	Level    Level    `yaml:"level"`
	Keywords []string `yaml:"keywords"`
}

// loadKeywordTiers parses the embedded tier file. Tiers are listed
// highest first so trigger ordering in the assessment reflects severity.
func loadKeywordTiers() ([]keywordTier, error) {
	var file struct {
		Tiers []keywordTier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(keywordsYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing keyword tiers: %w", err)
	}

	for _, tier := range file.Tiers {
		if _, ok := levelRank[tier.Level]; !ok {
			return nil, fmt.Errorf("keyword tier has unknown level %q", tier.Level)
		}
		if len(tier.Keywords) == 0 {
			return nil, fmt.Errorf("keyword tier %s is empty", tier.Level)
		}
	}
	return file.Tiers, nil
}

// VitalThresholds bounds a single vital sign. Zero limits are unchecked.
type VitalThresholds struct {
	SystolicMax  int
	SystolicMin  int
	DiastolicMax int
	HeartRateMax int
	HeartRateMin int
	TempMax      float64
	RespRateMax  int
	RespRateMin  int
	OxygenSatMin int
}

// DefaultVitalThresholds is the band whose violation marks a case URGENT.
func DefaultVitalThresholds() VitalThresholds {
	return VitalThresholds{
		SystolicMax:  180,
		SystolicMin:  90,
		DiastolicMax: 110,
		HeartRateMax: 120,
		HeartRateMin: 50,
		TempMax:      39.5,
		RespRateMax:  24,
		RespRateMin:  10,
		OxygenSatMin: 92,
	}
}

// CriticalVitalThresholds is the wider band whose violation marks a case
// CRITICAL.
func CriticalVitalThresholds() VitalThresholds {
	return VitalThresholds{
		SystolicMax:  200,
		SystolicMin:  80,
		DiastolicMax: 120,
		HeartRateMax: 140,
		HeartRateMin: 40,
		TempMax:      40.5,
		RespRateMax:  30,
		RespRateMin:  8,
		OxygenSatMin: 88,
	}
}
