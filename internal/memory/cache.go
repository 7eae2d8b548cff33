package memory

import (
	"sync"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const (
	// cacheKeyPrefixLen is how many leading characters of the text form
	// the cache key. The fingerprint is intentionally lossy: two long
	// texts sharing a prefix and task type share a cached vector. That
	// collision is an accepted approximation, not a bug.
	cacheKeyPrefixLen = 100

	defaultCacheCapacity = 1000
)

// EmbeddingCache is a bounded in-memory cache of computed embeddings,
// keyed by text prefix and task type. Eviction is strict insertion order
// (FIFO), not LRU.
type EmbeddingCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]float32
	order    []string
}

// NewEmbeddingCache creates a cache with the given capacity. Zero or
// negative selects the default.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &EmbeddingCache{
		capacity: capacity,
		entries:  make(map[string][]float32, capacity),
	}
}

func cacheKey(text string, task llm.TaskType) string {
	runes := []rune(text)
	if len(runes) > cacheKeyPrefixLen {
		runes = runes[:cacheKeyPrefixLen]
	}
	return string(runes) + "|" + string(task)
}

// Get returns the cached vector for the text fingerprint, if present.
func (c *EmbeddingCache) Get(text string, task llm.TaskType) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[cacheKey(text, task)]
	metrics.RecordCacheLookup(ok)
	return vec, ok
}

// Put stores a vector under the text fingerprint, evicting the
// oldest-inserted entry once capacity is exceeded.
func (c *EmbeddingCache) Put(text string, task llm.TaskType, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text, task)
	if _, exists := c.entries[key]; exists {
		// Overwrite keeps the original insertion position.
		c.entries[key] = vec
		return
	}

	c.entries[key] = vec
	c.order = append(c.order, key)

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
