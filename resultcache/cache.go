package resultcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/shardql/shardql/cmn/nlog"
)

// LookupResult is what Lookup returns: the payload of the cached meta
// with the largest overlap, filtered for any removed_hits deltas, and the
// set of gaps the caller must still execute. Only that one meta's payload
// is read; other selected metas are not merged into it.
type LookupResult struct {
	Deltas           []Delta
	HasPreCacheDelta bool
	ShouldExecQuery  bool
	Payload          []byte // nil if no meta intersected the request
	ResultTSColumn   string
}

// Cache is ResultCache: disk-backed JSON response blobs plus a buntdb
// meta index rebuilt from disk at startup (spec §4.3, §6).
type Cache struct {
	root string
	ix   *index
}

// Open opens (or creates) a ResultCache rooted at dir, rebuilding its
// meta index from whatever result blobs are already on disk.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("resultcache: creating root dir: %w", err)
	}
	ix, err := openIndex(filepath.Join(dir, "meta.db"))
	if err != nil {
		return nil, err
	}
	c := &Cache{root: dir, ix: ix}
	if err := c.rehydrate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) Close() error { return c.ix.close() }

// Stats reports the number of cached response metas currently indexed,
// for operator inspection (cmd/shardqlctl's "cache stats" command).
func (c *Cache) Stats() (entries int, err error) { return c.ix.count() }

// rehydrate walks the on-disk results tree and upserts one Meta per
// blob found, so a restarted process doesn't start believing itself
// empty while sitting on a warm cache.
func (c *Cache) rehydrate() error {
	return godirwalk.Walk(c.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || filepath.Ext(path) != ".json" {
				return nil
			}
			rel, err := filepath.Rel(c.root, path)
			if err != nil {
				return nil //nolint:nilerr
			}
			fingerprint := filepath.Dir(rel)
			if fingerprint == "." {
				return nil
			}
			m, ok := parseRelPath(fingerprint, filepath.Base(rel))
			if !ok {
				return nil
			}
			if err := c.ix.put(m); err != nil {
				nlog.Warningf("resultcache: rehydrate failed to index %s: %v", path, err)
			}
			return nil
		},
		ErrorCallback: func(_ string, err error) godirwalk.ErrorAction {
			nlog.Warningf("resultcache: rehydrate walk error: %v", err)
			return godirwalk.SkipNode
		},
		Unsorted: true,
	})
}

// selectMetas implements spec §4.3's meta-selection rule: pick the meta
// maximizing overlap with [s,e), then also include any other meta that
// is strictly disjoint from the chosen one but still intersects [s,e).
// Metas not intersecting [s,e) at all are ignored.
func selectMetas(metas []Meta, s, e int64) []Meta {
	var candidates []Meta
	for _, m := range metas {
		if overlap(m.Start, m.End, s, e) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return overlapLen(candidates[i].Start, candidates[i].End, s, e) >
			overlapLen(candidates[j].Start, candidates[j].End, s, e)
	})
	best := candidates[0]
	out := []Meta{best}
	for _, m := range candidates[1:] {
		// disjoint from best: no overlap with [best.Start, best.End)
		if !overlap(m.Start, m.End, best.Start, best.End) {
			out = append(out, m)
		}
	}
	return out
}

// Lookup consults the cache for fingerprint covering [s,e) at the given
// aggregation mode. Any I/O or parse failure is treated as a miss for
// that meta, per spec §4.3 failure semantics.
func (c *Cache) Lookup(fingerprint string, s, e int64, agg int) (*LookupResult, error) {
	all, err := c.ix.forFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}
	var filtered []Meta
	for _, m := range all {
		if m.Agg == agg {
			filtered = append(filtered, m)
		}
	}
	chosen := selectMetas(filtered, s, e)
	if len(chosen) == 0 {
		return &LookupResult{ShouldExecQuery: true, Deltas: []Delta{{Start: s, End: e, RemovedHits: false}}}, nil
	}

	primary := chosen[0]
	deltas, hasPreCacheDelta := computeDeltas(primary.Start, primary.End, s, e)

	raw, err := os.ReadFile(filepath.Join(c.root, primary.relPath()))
	if err != nil {
		nlog.Warningf("resultcache: lookup read failed for %s, treating as miss: %v", primary.relPath(), err)
		return &LookupResult{ShouldExecQuery: true, Deltas: []Delta{{Start: s, End: e}}}, nil
	}
	p, err := decodePayload(raw)
	if err != nil {
		nlog.Warningf("resultcache: lookup decode failed for %s, treating as miss: %v", primary.relPath(), err)
		return &LookupResult{ShouldExecQuery: true, Deltas: []Delta{{Start: s, End: e}}}, nil
	}
	for _, d := range deltas {
		p = filterRemovedHits(p, primary.ResultTSColumn, d)
	}
	encoded, err := encodePayload(p)
	if err != nil {
		return nil, err
	}

	return &LookupResult{
		Deltas:           deltas,
		HasPreCacheDelta: hasPreCacheDelta,
		ShouldExecQuery:  len(deltas) > 0,
		Payload:          encoded,
		ResultTSColumn:   primary.ResultTSColumn,
	}, nil
}

// Store writes payload as the cached response for fingerprint covering
// [s,e) at agg, and records it in the meta index (spec §8 property 1:
// cache round-trip).
func (c *Cache) Store(fingerprint string, s, e int64, agg int, resultTSColumn string, payload []byte) error {
	m := Meta{Fingerprint: fingerprint, Start: s, End: e, Agg: agg, ResultTSColumn: resultTSColumn}
	full := filepath.Join(c.root, m.relPath())
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("resultcache: store mkdir: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("resultcache: store write: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("resultcache: store rename: %w", err)
	}
	return c.ix.put(m)
}

// Evict removes fingerprint's meta at [s,e)/agg along with its JSON
// blob, keeping the index and disk in sync (spec §3: "eviction of a
// meta deletes the JSON blob").
func (c *Cache) Evict(fingerprint string, s, e int64, agg int) error {
	m := Meta{Fingerprint: fingerprint, Start: s, End: e, Agg: agg}
	_ = os.Remove(filepath.Join(c.root, m.relPath()))
	return c.ix.remove(m)
}
