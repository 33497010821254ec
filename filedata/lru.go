package filedata

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// lruStrategy adapts hashicorp/golang-lru/v2's thread-safe Cache as a
// pure ordering structure: it is sized far larger than any real tier
// capacity so it never evicts on its own count-based limit, leaving byte
// -capacity eviction to the caller via evictOne/RemoveOldest.
type lruStrategy struct {
	c     *lru.Cache[string, int64]
	sizes map[string]int64
}

// lruMaxEntries bounds the inner Cache's own count-based eviction far
// above any realistic number of cached byte ranges; shardql's eviction
// is driven by total bytes, tracked separately in tier.
const lruMaxEntries = 1 << 20

func newLRUStrategy() *lruStrategy {
	c, err := lru.New[string, int64](lruMaxEntries)
	if err != nil {
		// lruMaxEntries is a positive compile-time constant; New only
		// fails on size <= 0.
		panic(err)
	}
	return &lruStrategy{c: c, sizes: make(map[string]int64)}
}

func (s *lruStrategy) insert(key string, size int64) {
	s.c.Add(key, size)
	s.sizes[key] = size
}

func (s *lruStrategy) touch(key string) {
	s.c.Get(key) // Get bumps recency as a side effect
}

func (s *lruStrategy) remove(key string) {
	s.c.Remove(key)
	delete(s.sizes, key)
}

func (s *lruStrategy) contains(key string) bool {
	return s.c.Contains(key)
}

func (s *lruStrategy) len() int { return s.c.Len() }

func (s *lruStrategy) evictOne() (key string, size int64, ok bool) {
	k, v, ok := s.c.RemoveOldest()
	if !ok {
		return "", 0, false
	}
	delete(s.sizes, k)
	return k, v, true
}
