package detection

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of results a Cache keeps when no size is given.
const DefaultCacheSize = 4096

type cacheKey struct {
	version uint64
	sum     uint64
}

// Cache memoizes a Scorer per (profile version, text fingerprint). Feeds tend
// to repeat the same snippets, and scoring is pure, so a hit is always exact.
// Profiles with Version 0 have no stable identity and bypass the cache.
type Cache struct {
	scorer Scorer
	lru    *lru.Cache[cacheKey, *Result]
}

// NewCache wraps scorer with an LRU of the given size.
func NewCache(scorer Scorer, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[cacheKey, *Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &Cache{scorer: scorer, lru: l}, nil
}

// Score implements Scorer.
func (c *Cache) Score(text string, p *Profile) *Result {
	if p == nil || p.Version == 0 {
		return c.scorer.Score(text, p)
	}

	key := cacheKey{version: p.Version, sum: xxhash.Sum64String(text)}
	if r, ok := c.lru.Get(key); ok {
		return r.clone()
	}

	r := c.scorer.Score(text, p)
	c.lru.Add(key, r.clone())
	return r
}

// Lookup reports whether a result for text under p is cached, without scoring.
func (c *Cache) Lookup(text string, p *Profile) (*Result, bool) {
	if p == nil || p.Version == 0 {
		return nil, false
	}
	r, ok := c.lru.Get(cacheKey{version: p.Version, sum: xxhash.Sum64String(text)})
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func (r *Result) clone() *Result {
	out := *r
	out.MatchedTerms = make([]string, len(r.MatchedTerms))
	copy(out.MatchedTerms, r.MatchedTerms)
	return &out
}
