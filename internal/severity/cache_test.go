package severity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type flakyConditionRepo struct {
	mu         sync.Mutex
	conditions []SevereCondition
	err        error
	calls      int
}

func (r *flakyConditionRepo) GetSevereConditions(_ context.Context) ([]SevereCondition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.conditions, nil
}

func (r *flakyConditionRepo) set(conditions []SevereCondition, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions = conditions
	r.err = err
}

func TestConditionCacheLazyLoad(t *testing.T) {
	repo := &flakyConditionRepo{conditions: DefaultSevereConditions()}
	cache := NewConditionCache(repo, time.Minute, zerolog.Nop())

	got := cache.Conditions(context.Background())
	if len(got) != len(DefaultSevereConditions()) {
		t.Fatalf("Conditions() = %d entries, want %d", len(got), len(DefaultSevereConditions()))
	}

	// Within the TTL the repository is not consulted again.
	cache.Conditions(context.Background())
	cache.Conditions(context.Background())
	if repo.calls != 1 {
		t.Errorf("repository calls = %d, want 1", repo.calls)
	}
}

func TestConditionCacheRefreshSwapsSnapshot(t *testing.T) {
	repo := &flakyConditionRepo{conditions: DefaultSevereConditions()}
	cache := NewConditionCache(repo, time.Minute, zerolog.Nop())

	before := cache.Conditions(context.Background())

	updated := append(DefaultSevereConditions(), SevereCondition{
		ConditionName: "Pulmonary Embolism",
		Keywords:      []string{"pulmonary embolism", "pe"},
		RiskCategory:  LevelCritical,
		AutoEscalate:  true,
	})
	repo.set(updated, nil)

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	after := cache.Conditions(context.Background())
	if len(after) != len(before)+1 {
		t.Errorf("after refresh = %d entries, want %d", len(after), len(before)+1)
	}
}

func TestConditionCacheKeepsStaleSnapshotOnError(t *testing.T) {
	repo := &flakyConditionRepo{conditions: DefaultSevereConditions()}
	cache := NewConditionCache(repo, time.Minute, zerolog.Nop())

	before := cache.Conditions(context.Background())
	if len(before) == 0 {
		t.Fatal("expected initial catalog")
	}

	repo.set(nil, errors.New("connection refused"))
	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should propagate repository error")
	}

	// Readers still get the last good snapshot.
	after := cache.Conditions(context.Background())
	if len(after) != len(before) {
		t.Errorf("stale snapshot lost: %d entries, want %d", len(after), len(before))
	}
}

func TestConditionCacheConcurrentReaders(t *testing.T) {
	repo := &flakyConditionRepo{conditions: DefaultSevereConditions()}
	cache := NewConditionCache(repo, time.Minute, zerolog.Nop())

	// Prime the snapshot so concurrent readers never race the first load.
	cache.Conditions(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := cache.Conditions(context.Background()); len(got) == 0 {
					t.Error("reader saw empty catalog")
					return
				}
			}
		}()
	}
	wg.Wait()
}
