package severity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ConditionRepository supplies the severe-condition catalog.
type ConditionRepository interface {
	GetSevereConditions(ctx context.Context) ([]SevereCondition, error)
}

// ConditionCache is a TTL-refreshed snapshot over a ConditionRepository.
// Refresh swaps a whole immutable snapshot; concurrent readers never see a
// partially updated table. A stale read during refresh is acceptable, and a
// failed refresh keeps the previous snapshot.
type ConditionCache struct {
	repo   ConditionRepository
	ttl    time.Duration
	logger zerolog.Logger

	snapshot   atomic.Pointer[conditionSnapshot]
	refreshing sync.Mutex
}

type conditionSnapshot struct {
	conditions []SevereCondition
	loadedAt   time.Time
}

// NewConditionCache creates a cache over repo with the given TTL. The
// snapshot is loaded lazily on first read.
func NewConditionCache(repo ConditionRepository, ttl time.Duration, logger zerolog.Logger) *ConditionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &ConditionCache{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
	c.snapshot.Store(&conditionSnapshot{})
	return c
}

// Conditions returns the current catalog snapshot, refreshing it if the TTL
// has elapsed. The returned slice must not be mutated.
func (c *ConditionCache) Conditions(ctx context.Context) []SevereCondition {
	snap := c.snapshot.Load()
	if time.Since(snap.loadedAt) < c.ttl {
		return snap.conditions
	}

	// One refresher at a time; everyone else reads the stale snapshot.
	if c.refreshing.TryLock() {
		defer c.refreshing.Unlock()

		// Re-check after acquiring the lock; another reader may have
		// refreshed while we waited.
		snap = c.snapshot.Load()
		if time.Since(snap.loadedAt) < c.ttl {
			return snap.conditions
		}

		conditions, err := c.repo.GetSevereConditions(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("severe-condition refresh failed, serving stale snapshot")
			// Push the retry out a little so a dead repository is not
			// hammered on every read.
			c.snapshot.Store(&conditionSnapshot{
				conditions: snap.conditions,
				loadedAt:   snap.loadedAt.Add(c.ttl / 4),
			})
			return snap.conditions
		}

		c.snapshot.Store(&conditionSnapshot{
			conditions: conditions,
			loadedAt:   time.Now(),
		})
		return conditions
	}

	return snap.conditions
}

// Refresh forces a reload regardless of TTL.
func (c *ConditionCache) Refresh(ctx context.Context) error {
	c.refreshing.Lock()
	defer c.refreshing.Unlock()

	conditions, err := c.repo.GetSevereConditions(ctx)
	if err != nil {
		return err
	}
	c.snapshot.Store(&conditionSnapshot{
		conditions: conditions,
		loadedAt:   time.Now(),
	})
	return nil
}

// StaticConditionRepository serves a fixed catalog. Used in tests and when
// no database is configured.
type StaticConditionRepository struct {
	conditions []SevereCondition
}

// NewStaticConditionRepository creates a repository over a fixed list.
func NewStaticConditionRepository(conditions []SevereCondition) *StaticConditionRepository {
	return &StaticConditionRepository{conditions: conditions}
}

func (r *StaticConditionRepository) GetSevereConditions(_ context.Context) ([]SevereCondition, error) {
	return r.conditions, nil
}

// DefaultSevereConditions mirrors the seeded catalog for database-free mode.
func DefaultSevereConditions() []SevereCondition {
	return []SevereCondition{
		{
			ConditionName:       "Acute Coronary Syndrome",
			Keywords:            []string{"heart attack", "myocardial infarction", "acs", "unstable angina"},
			RiskCategory:        LevelCritical,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction, SourceGuideline, SourcePubMed},
			AutoEscalate:        true,
		},
		{
			ConditionName:       "Stroke",
			Keywords:            []string{"stroke", "cerebrovascular accident", "tia", "transient ischemic"},
			RiskCategory:        LevelCritical,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction, SourceGuideline, SourcePubMed},
			AutoEscalate:        true,
		},
		{
			ConditionName:       "Sepsis",
			Keywords:            []string{"sepsis", "septic shock", "bacteremia"},
			RiskCategory:        LevelCritical,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction, SourceGuideline, SourcePubMed},
			AutoEscalate:        true,
		},
		{
			ConditionName:       "Diabetic Ketoacidosis",
			Keywords:            []string{"ketoacidosis", "dka"},
			RiskCategory:        LevelUrgent,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction, SourceGuideline},
		},
		{
			ConditionName:       "Chronic Kidney Disease",
			Keywords:            []string{"chronic kidney disease", "ckd", "renal failure", "renal insufficiency"},
			RiskCategory:        LevelHighRisk,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction},
		},
		{
			ConditionName:       "Congestive Heart Failure",
			Keywords:            []string{"heart failure", "chf", "congestive heart"},
			RiskCategory:        LevelHighRisk,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction},
		},
		{
			ConditionName:       "Liver Cirrhosis",
			Keywords:            []string{"cirrhosis", "hepatic failure", "liver failure"},
			RiskCategory:        LevelHighRisk,
			RequiredValidations: []ValidationSource{SourceFDA, SourceInteraction},
		},
	}
}
