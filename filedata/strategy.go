package filedata

// strategy tracks eviction order and per-key sizes for one cache tier. It
// never touches the tier's actual byte storage; cache.go composes a
// strategy with a store.
type strategy interface {
	// insert records key with size, marking it most-recently-used (for
	// strategies that have a notion of recency).
	insert(key string, size int64)
	touch(key string)
	remove(key string)
	contains(key string) bool
	len() int
	// evictOne picks the next victim per the strategy's policy and
	// removes it from the strategy's own bookkeeping.
	evictOne() (key string, size int64, ok bool)
}
