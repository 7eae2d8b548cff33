package memory

import (
	"strings"
	"testing"

	"github.com/hearthbot/memorycore/internal/llm"
)

func TestCachePrefixCollisionIsShared(t *testing.T) {
	// The key is the first 100 characters plus the task type, so two
	// distinct long texts with a shared prefix hit the same slot. That
	// lossy fingerprint is deliberate.
	cache := NewEmbeddingCache(10)
	prefix := strings.Repeat("a", 100)
	v1 := []float32{0.1, 0.2}

	cache.Put(prefix+strings.Repeat("b", 20), llm.TaskTypeQuery, v1)

	got, ok := cache.Get(prefix+strings.Repeat("c", 50), llm.TaskTypeQuery)
	if !ok {
		t.Fatal("expected prefix-colliding lookup to hit")
	}
	if got[0] != v1[0] || got[1] != v1[1] {
		t.Fatalf("got %v, want %v", got, v1)
	}
}

func TestCacheTaskTypeSeparatesKeys(t *testing.T) {
	cache := NewEmbeddingCache(10)
	cache.Put("hello", llm.TaskTypeQuery, []float32{1})

	if _, ok := cache.Get("hello", llm.TaskTypeDocument); ok {
		t.Fatal("document lookup must not hit a query-task entry")
	}
	if _, ok := cache.Get("hello", llm.TaskTypeQuery); !ok {
		t.Fatal("query lookup should hit")
	}
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	cache := NewEmbeddingCache(2)
	cache.Put("first", llm.TaskTypeQuery, []float32{1})
	cache.Put("second", llm.TaskTypeQuery, []float32{2})

	// Touching "first" must not save it: eviction is FIFO, not LRU.
	if _, ok := cache.Get("first", llm.TaskTypeQuery); !ok {
		t.Fatal("first should still be cached")
	}

	cache.Put("third", llm.TaskTypeQuery, []float32{3})

	if _, ok := cache.Get("first", llm.TaskTypeQuery); ok {
		t.Fatal("oldest-inserted entry should have been evicted")
	}
	if _, ok := cache.Get("second", llm.TaskTypeQuery); !ok {
		t.Fatal("second should survive")
	}
	if _, ok := cache.Get("third", llm.TaskTypeQuery); !ok {
		t.Fatal("third should survive")
	}
	if cache.Len() != 2 {
		t.Fatalf("cache size %d, want 2", cache.Len())
	}
}

func TestCacheOverwriteKeepsInsertionOrder(t *testing.T) {
	cache := NewEmbeddingCache(2)
	cache.Put("first", llm.TaskTypeQuery, []float32{1})
	cache.Put("second", llm.TaskTypeQuery, []float32{2})
	cache.Put("first", llm.TaskTypeQuery, []float32{1.5})
	cache.Put("third", llm.TaskTypeQuery, []float32{3})

	// "first" was re-put but keeps its original slot in the FIFO order.
	if _, ok := cache.Get("first", llm.TaskTypeQuery); ok {
		t.Fatal("re-put entry should still evict in original insertion order")
	}
}
