package cache

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"vecdb/internal/domain"
)

// SearchCache remembers search results for normalized queries. Any write
// to the index must call Invalidate. Not safe for concurrent use.
type SearchCache struct {
	entries  map[uint64]*cacheEntry
	order    []uint64
	maxSize  int
	indexGen uint64
}

type cacheEntry struct {
	query    []float32
	k        int
	results  []domain.SearchResult
	indexGen uint64
}

func NewSearchCache(maxSize int) *SearchCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &SearchCache{
		entries: make(map[uint64]*cacheEntry),
		order:   make([]uint64, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(query []float32, k int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	d.Write(buf[:])
	for _, f := range query {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
		d.Write(buf[:4])
	}
	return d.Sum64()
}

// Get returns a copy of the cached results for query and k.
func (c *SearchCache) Get(query []float32, k int) ([]domain.SearchResult, bool) {
	key := cacheKey(query, k)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if entry.indexGen != c.indexGen || entry.k != k || !sameBits(entry.query, query) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return cloneResults(entry.results), true
}

func (c *SearchCache) Put(query []float32, k int, results []domain.SearchResult) {
	key := cacheKey(query, k)
	entry := &cacheEntry{
		query:    append([]float32(nil), query...),
		k:        k,
		results:  cloneResults(results),
		indexGen: c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *SearchCache) Invalidate() {
	c.entries = make(map[uint64]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *SearchCache) Size() int {
	return len(c.entries)
}

func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SearchCache) moveToEnd(key uint64) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SearchCache) removeFromOrder(key uint64) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func sameBits(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

func cloneResults(r []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(r))
	copy(out, r)
	return out
}
