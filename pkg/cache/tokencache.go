package cache

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// tokenTTL is deliberately long: token counts for identical content never go
// stale, the TTL only bounds how long a dead entry can linger.
const tokenTTL = 24 * time.Hour

// TokenCache memoizes an expensive token counter. Keys are pure content
// hashes, never session identifiers, so identical content across unrelated
// sessions shares one cached count without leaking session identity.
type TokenCache struct {
	lru     *LRU[uint64, int]
	counter func(text string) int
}

func NewTokenCache(capacity int, counter func(text string) int) (*TokenCache, error) {
	lru, err := NewLRU[uint64, int](capacity)
	if err != nil {
		return nil, err
	}
	return &TokenCache{lru: lru, counter: counter}, nil
}

// Count returns the token count for text, computing it at most once per
// cached content hash.
func (t *TokenCache) Count(text string) int {
	key := HashContent(text)
	if n, ok := t.lru.Get(key); ok {
		return n
	}
	n := t.counter(text)
	t.lru.SetWithTTL(key, n, tokenTTL)
	return n
}

// CountAll sums Count over every text.
func (t *TokenCache) CountAll(texts []string) int {
	total := 0
	for _, s := range texts {
		total += t.Count(s)
	}
	return total
}

func (t *TokenCache) Stats() (hits, misses uint64) {
	return t.lru.Stats()
}

// HashContent derives the content-addressed cache key for a piece of text.
func HashContent(text string) uint64 {
	return xxhash.Sum64String(text)
}

// HashContents combines per-text hashes order-independently, so the same set
// of contents maps to the same key regardless of message ordering.
func HashContents(texts []string) uint64 {
	var h uint64
	for _, s := range texts {
		h ^= xxhash.Sum64String(s)
	}
	return h
}
