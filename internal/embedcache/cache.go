// Package embedcache is a content-addressed cache of embedding vectors,
// keyed by an MD5 digest of the exact chunk text. Embeddings are treated as
// a pure function of that text, so a cached vector is always reused.
package embedcache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
)

// Key returns the cache key for a chunk text.
func Key(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Cache maps content hashes to embedding vectors. Unbounded, single-writer,
// persisted as a flat JSON mapping.
type Cache struct {
	mu      sync.Mutex
	vectors map[string][]float32
}

func New() *Cache {
	return &Cache{vectors: make(map[string][]float32)}
}

// Load reads a cache file into a new Cache. A missing or corrupt file yields
// an empty cache; corruption never aborts a run.
func Load(path string) *Cache {
	c := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var m map[string][]float32
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return c
	}
	c.vectors = m
	return c
}

// Save writes the whole mapping to path.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	data, err := json.Marshal(c.vectors)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get returns the cached vector for text, if any.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vectors[Key(text)]
	return v, ok
}

// Put inserts the vector for text. Inserting an identical vector is a no-op.
// It returns true when a different vector was replaced, which the caller
// should treat as a warning condition.
func (c *Cache) Put(text string, vec []float32) bool {
	key := Key(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.vectors[key]
	c.vectors[key] = vec
	return ok && !equal(old, vec)
}

// Partition splits texts into cached vectors and the texts still needing an
// embedding call. vectors is indexed like texts, with nil at positions listed
// in missing/positions.
func (c *Cache) Partition(texts []string) (vectors [][]float32, missing []string, positions []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vectors = make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := c.vectors[Key(t)]; ok {
			vectors[i] = v
			continue
		}
		missing = append(missing, t)
		positions = append(positions, i)
	}
	return vectors, missing, positions
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vectors)
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
