package filedata

import (
	"sync"

	"github.com/shardql/shardql/cmn/atomic"
	"github.com/shardql/shardql/cmn/nlog"
)

// policy selects a tier's eviction strategy.
type policy string

const (
	PolicyLRU  policy = "lru"
	PolicyFIFO policy = "fifo"
)

// tier is one cache level (memory or disk): a capacity-bounded store with
// an eviction strategy. Eviction happens under the same lock as the
// insert that triggered it, never deferred to a background sweep (spec
// §4.1 concurrency note).
type tier struct {
	name     string
	mu       sync.Mutex
	strat    strategy
	st       store
	capacity int64
	used     atomic.Int64
}

func newTier(name string, capacity int64, pol policy, st store) *tier {
	var s strategy
	switch pol {
	case PolicyFIFO:
		s = newFIFOStrategy()
	default:
		s = newLRUStrategy()
	}
	return &tier{name: name, strat: s, st: st, capacity: capacity}
}

// get returns a cached blob and bumps its recency, without taking any
// storage-layer fallback action.
func (t *tier) get(key string) ([]byte, bool) {
	t.mu.Lock()
	present := t.strat.contains(key)
	if present {
		t.strat.touch(key)
	}
	t.mu.Unlock()
	if !present {
		return nil, false
	}
	return t.st.read(key)
}

// put inserts data for key, evicting victims under the same critical
// section until there is room. A single blob larger than half the
// tier's capacity bypasses the tier rather than evicting everything.
func (t *tier) put(key string, data []byte) {
	size := int64(len(data))
	if t.capacity > 0 && size > t.capacity/2 {
		// Oversized relative to capacity: skip this tier entirely
		// rather than thrash it empty for one blob.
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.strat.contains(key) {
		t.strat.touch(key)
		return
	}
	for t.capacity > 0 && t.used.Load()+size > t.capacity {
		vk, vsize, ok := t.strat.evictOne()
		if !ok {
			break
		}
		t.used.Sub(vsize)
		t.st.delete(vk)
	}
	if err := t.st.write(key, data); err != nil {
		nlog.Warningf("filedata: %s tier: populating %s: %v", t.name, key, err)
		return
	}
	t.strat.insert(key, size)
	t.used.Add(size)
}

// readopt registers a key discovered already resident on disk (init()
// rehydration) without writing bytes again.
func (t *tier) readopt(key string, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.strat.contains(key) {
		return
	}
	t.strat.insert(key, size)
	t.used.Add(size)
}

func (t *tier) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.strat.contains(key) {
		return
	}
	t.strat.remove(key)
	t.st.delete(key)
}

func (t *tier) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.strat.len()
}
