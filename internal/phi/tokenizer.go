package phi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/metrics"
	"github.com/clinsafe/platform/internal/shared/types"
)

// DetectionLevel summarizes how much PHI a text carries.
type DetectionLevel string

const (
	LevelNone   DetectionLevel = "none"
	LevelLow    DetectionLevel = "low"
	LevelMedium DetectionLevel = "medium"
	LevelHigh   DetectionLevel = "high"
)

// Detection reports a matched category without exposing the value.
type Detection struct {
	Category Category `json:"category"`
	Risk     Risk     `json:"risk"`
}

// Tokenizer replaces protected health information with opaque,
// session-scoped tokens and restores them on the way back. Tokens look
// like [PHI:EMAIL:3f2a9c1b4d5e]; the mapping lives only in the store.
type Tokenizer struct {
	patterns []pattern
	store    TokenStore
	prefix   string
	tokenRe  *regexp.Regexp
	logger   zerolog.Logger
}

func NewTokenizer(cfg config.PHIConfig, store TokenStore, logger zerolog.Logger) (*Tokenizer, error) {
	patterns, err := loadPatterns()
	if err != nil {
		return nil, err
	}
	prefix := cfg.TokenPrefix
	if prefix == "" {
		prefix = "PHI"
	}
	return &Tokenizer{
		patterns: patterns,
		store:    store,
		prefix:   prefix,
		tokenRe:  regexp.MustCompile(`\[` + regexp.QuoteMeta(prefix) + `:[A-Z_]+:[0-9a-f]{12}\]`),
		logger:   logger.With().Str("component", "phi").Logger(),
	}, nil
}

type match struct {
	span
	category Category
	risk     Risk
}

// Deidentify replaces every detected identifier in text with a token.
// Identical values within a session map to the same token.
func (t *Tokenizer) Deidentify(sessionID, text string) (string, []Detection) {
	matches := t.scan(text)
	if len(matches) == 0 {
		return text, nil
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var b strings.Builder
	detections := make([]Detection, 0, len(matches))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.start])
		b.WriteString(t.tokenFor(sessionID, m.category, text[m.start:m.end]))
		last = m.end
		detections = append(detections, Detection{Category: m.category, Risk: m.risk})
	}
	b.WriteString(text[last:])

	t.logger.Debug().Int("detections", len(detections)).Msg("text de-identified")
	return b.String(), detections
}

// DeidentifyPatient de-identifies the free-text fields of a patient
// record in place. Structured fields such as age and vitals carry no
// direct identifiers and pass through.
func (t *Tokenizer) DeidentifyPatient(sessionID string, patient *types.PatientContext) []Detection {
	var all []Detection

	tokenized, detections := t.Deidentify(sessionID, patient.ChiefComplaint)
	patient.ChiefComplaint = tokenized
	all = append(all, detections...)

	for i, symptom := range patient.Symptoms {
		tokenized, detections := t.Deidentify(sessionID, symptom)
		patient.Symptoms[i] = tokenized
		all = append(all, detections...)
	}
	return all
}

// Reidentify restores tokens in text from the session mapping and
// reports how many were restored. Unknown tokens are left untouched.
func (t *Tokenizer) Reidentify(sessionID, text string) (string, int) {
	restored := 0
	out := t.tokenRe.ReplaceAllStringFunc(text, func(token string) string {
		original, ok := t.store.Original(sessionID, token)
		if !ok {
			return token
		}
		restored++
		return original
	})
	if restored > 0 {
		metrics.RecordPHITokensRestored(restored)
	}
	return out, restored
}

// DetectPHI scans without tokenizing and reports the highest risk found.
func (t *Tokenizer) DetectPHI(text string) (DetectionLevel, []Detection) {
	matches := t.scan(text)
	if len(matches) == 0 {
		return LevelNone, nil
	}

	level := LevelLow
	detections := make([]Detection, 0, len(matches))
	for _, m := range matches {
		detections = append(detections, Detection{Category: m.category, Risk: m.risk})
		switch m.risk {
		case RiskHigh:
			level = LevelHigh
		case RiskMedium:
			if level != LevelHigh {
				level = LevelMedium
			}
		}
	}
	return level, detections
}

// ClearSession drops the session's token mapping. After this,
// re-identification for the session is impossible.
func (t *Tokenizer) ClearSession(sessionID string) {
	t.store.Clear(sessionID)
}

// scan finds all identifier spans. Pattern order decides overlap
// conflicts; name heuristics only claim text no pattern matched.
func (t *Tokenizer) scan(text string) []match {
	var matches []match
	var taken []span

	for _, p := range t.patterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			s := span{loc[0], loc[1]}
			if overlapsAny(s, taken) {
				continue
			}
			taken = append(taken, s)
			matches = append(matches, match{span: s, category: p.Category, risk: p.Risk})
		}
	}

	for _, s := range findNames(text, taken) {
		matches = append(matches, match{span: s, category: CategoryName, risk: RiskMedium})
	}
	return matches
}

func (t *Tokenizer) tokenFor(sessionID string, category Category, original string) string {
	if token, ok := t.store.TokenFor(sessionID, original); ok {
		return token
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	token := fmt.Sprintf("[%s:%s:%s]", t.prefix, category, id)
	t.store.Put(sessionID, token, original)
	metrics.RecordPHITokenCreated(string(category))
	return token
}
