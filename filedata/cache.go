package filedata

import (
	"context"
	"math"
	"time"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/cmn/nlog"
)

// Storage is the out-of-scope object-storage collaborator FileDataCache
// falls back to on a miss.
type Storage interface {
	GetRange(ctx context.Context, fileID string, r ByteRange) ([]byte, error)
}

// TierConfig configures one cache tier. Capacity <= 0 disables the tier
// entirely; tiers are independently togglable per the original's
// file_data/mod.rs, carried forward into SPEC_FULL §4.1.
type TierConfig struct {
	Capacity int64
	Policy   policy
	Path     string // only meaningful for the disk tier
}

// Cache is FileDataCache: an in-process byte-range cache fronting
// Storage, with independently configured memory and disk tiers.
type Cache struct {
	memory  *tier // nil when disabled
	disk    *tier // nil when disabled
	storage Storage

	group   singleflight.Group
	limiter *rate.Limiter // one token per download attempt; the rate is effectively unlimited
}

const unboundedBackoffRetries = 5

// New constructs a Cache from the memory/disk tier configs and the
// storage backend to fall back to. Either tier may be the zero
// TierConfig (Capacity <= 0), disabling it.
func New(mem, disk TierConfig, storage Storage) *Cache {
	c := &Cache{storage: storage, limiter: rate.NewLimiter(rate.Limit(math.MaxFloat64), 1 << 20)}
	if mem.Capacity > 0 {
		c.memory = newTier("memory", mem.Capacity, mem.Policy, newMemStore())
	}
	if disk.Capacity > 0 {
		c.disk = newTier("disk", disk.Capacity, disk.Policy, newDiskStore(disk.Path))
	}
	return c
}

// NewFromConfig builds a Cache from the process-wide config's
// memory_cache/disk_cache sections.
func NewFromConfig(cfg *cmn.Config, storage Storage) *Cache {
	mem := TierConfig{}
	if cfg.MemoryCache.Enabled {
		mem = TierConfig{Capacity: cfg.MemoryCache.Capacity, Policy: policy(cfg.MemoryCache.Policy)}
	}
	disk := TierConfig{}
	if cfg.DiskCache.Enabled {
		disk = TierConfig{Capacity: cfg.DiskCache.Capacity, Policy: policy(cfg.DiskCache.Policy), Path: cfg.DiskCache.Path}
	}
	return New(mem, disk, storage)
}

// Init rehydrates the disk tier's residency index from what is actually
// on disk, so a restarted process doesn't believe itself empty while
// sitting on a warm cache (spec §4.1).
func (c *Cache) Init() error {
	if c.disk == nil {
		return nil
	}
	return godirwalk.Walk(c.disk.st.(*diskStore).dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			key, ok := decodeDiskFilename(de.Name())
			if !ok {
				return nil
			}
			info, err := de.Stat()
			if err != nil {
				return nil //nolint:nilerr // skip unreadable entries, don't fail the whole walk
			}
			c.disk.readopt(key, info.Size())
			return nil
		},
		ErrorCallback: func(_ string, err error) godirwalk.ErrorAction {
			nlog.Warningf("filedata: init rehydration skipping entry: %v", err)
			return godirwalk.SkipNode
		},
		Unsorted: true,
	})
}

// Get returns the bytes for fileID's r, consulting memory then disk then
// falling back to storage. A storage error bubbles up unchanged; a
// failure to populate a tier after a successful storage fetch is logged
// and otherwise ignored (spec §4.1: "no negative caching").
func (c *Cache) Get(ctx context.Context, fileID string, r ByteRange) ([]byte, error) {
	key := Key{FileID: fileID, Range: r}.String()

	if c.memory != nil {
		if b, ok := c.memory.get(key); ok {
			return b, nil
		}
	}
	if c.disk != nil {
		if b, ok := c.disk.get(key); ok {
			if c.memory != nil {
				c.memory.put(key, b)
			}
			return b, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.storage.GetRange(ctx, fileID, r)
	})
	if err != nil {
		return nil, err
	}
	b := v.([]byte)
	c.promote(key, b)
	return b, nil
}

func (c *Cache) promote(key string, b []byte) {
	if c.memory != nil {
		c.memory.put(key, b)
	} else if c.disk != nil {
		c.disk.put(key, b)
	}
}

// Download pre-warms fileID's full extent into the cache, idempotent
// across concurrent callers via singleflight, retried on transient
// storage errors with a capped exponential backoff (spec §4.1 prewarm).
func (c *Cache) Download(ctx context.Context, fileID string) error {
	whole := ByteRange{Offset: 0, Length: -1}
	key := Key{FileID: fileID, Range: whole}.String()

	_, err, _ := c.group.Do("download:"+key, func() (interface{}, error) {
		backoff := 50 * time.Millisecond
		const maxBackoff = 5 * time.Second
		var lastErr error
		for attempt := 0; attempt < unboundedBackoffRetries; attempt++ {
			if err := c.limiter.WaitN(ctx, 1); err != nil {
				return nil, err
			}
			b, err := c.storage.GetRange(ctx, fileID, whole)
			if err == nil {
				c.promote(key, b)
				return b, nil
			}
			if _, transient := err.(*cmn.ErrTransient); !transient {
				return nil, err
			}
			lastErr = err
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
		return nil, lastErr
	})
	return err
}

// Len reports the number of resident entries per tier, for tests and
// metrics.
func (c *Cache) Len() (memEntries, diskEntries int) {
	if c.memory != nil {
		memEntries = c.memory.len()
	}
	if c.disk != nil {
		diskEntries = c.disk.len()
	}
	return
}
