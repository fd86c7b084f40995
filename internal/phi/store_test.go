package phi

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryTokenStoreRoundTrip(t *testing.T) {
	store := NewMemoryTokenStore(0)

	store.Put("s1", "[PHI:EMAIL:aaaaaaaaaaaa]", "jane@example.com")

	if got, ok := store.Original("s1", "[PHI:EMAIL:aaaaaaaaaaaa]"); !ok || got != "jane@example.com" {
		t.Errorf("Original() = %q, %v", got, ok)
	}
	if got, ok := store.TokenFor("s1", "jane@example.com"); !ok || got != "[PHI:EMAIL:aaaaaaaaaaaa]" {
		t.Errorf("TokenFor() = %q, %v", got, ok)
	}

	if _, ok := store.Original("s2", "[PHI:EMAIL:aaaaaaaaaaaa]"); ok {
		t.Error("mapping leaked across sessions")
	}

	store.Clear("s1")
	if _, ok := store.Original("s1", "[PHI:EMAIL:aaaaaaaaaaaa]"); ok {
		t.Error("Clear() left mappings behind")
	}
}

func TestMemoryTokenStoreEviction(t *testing.T) {
	store := NewMemoryTokenStore(2)

	store.Put("s1", "t1", "v1")
	store.Put("s2", "t2", "v2")
	store.Put("s3", "t3", "v3")

	surviving := 0
	for _, s := range []string{"s1", "s2", "s3"} {
		if _, ok := store.Original(s, "t"+s[1:]); ok {
			surviving++
		}
	}
	if surviving != 2 {
		t.Errorf("surviving sessions = %d, want cap of 2", surviving)
	}
	if _, ok := store.Original("s3", "t3"); !ok {
		t.Error("newest session must survive eviction")
	}
}

func TestMemoryTokenStoreConcurrent(t *testing.T) {
	store := NewMemoryTokenStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := fmt.Sprintf("s%d", n)
			for j := 0; j < 100; j++ {
				token := fmt.Sprintf("t%d", j)
				store.Put(session, token, "value")
				if _, ok := store.Original(session, token); !ok {
					t.Errorf("lost mapping %s/%s", session, token)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
