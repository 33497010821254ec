package resultcache

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"

	"github.com/shardql/shardql/cmn/nlog"
)

// Meta describes one cached response blob on disk.
type Meta struct {
	Fingerprint    string
	Start          int64
	End            int64
	Agg            int
	ResultTSColumn string
}

// relPath returns the on-disk location for m relative to the cache's root
// directory: {fingerprint}/{start}_{end}_{agg}.json (spec §6).
func (m Meta) relPath() string {
	return filepath.Join(m.Fingerprint, fmt.Sprintf("%d_%d_%d.json", m.Start, m.End, m.Agg))
}

func metaIndexKey(m Meta) string {
	return m.Fingerprint + "/" + m.relPath()
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// index is the in-memory meta index, backed by a disk-persisted buntdb
// database; Open still rescans every result blob and upserts it
// (grounded on the teacher's kvdb.NewBuntDB(dbName) use in target.go).
type index struct {
	db *buntdb.DB
}

func openIndex(dbPath string) (*index, error) {
	db, err := buntdb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resultcache: opening meta index: %w", err)
	}
	return &index{db: db}, nil
}

func (ix *index) close() error { return ix.db.Close() }

func (ix *index) put(m Meta) error {
	val, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return ix.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(metaIndexKey(m), string(val), nil)
		return err
	})
}

func (ix *index) remove(m Meta) error {
	return ix.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(metaIndexKey(m))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

// count returns the total number of meta entries in the index, across
// every fingerprint.
func (ix *index) count() (int, error) {
	n := 0
	err := ix.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("*", func(string, string) bool {
			n++
			return true
		})
	})
	return n, err
}

// forFingerprint returns every meta recorded for fingerprint, in no
// particular order.
func (ix *index) forFingerprint(fingerprint string) ([]Meta, error) {
	var out []Meta
	prefix := fingerprint + "/"
	err := ix.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, value string) bool {
			var m Meta
			if err := json.Unmarshal([]byte(value), &m); err != nil {
				nlog.Warningf("resultcache: corrupt meta index entry %q, skipping: %v", key, err)
				return true
			}
			out = append(out, m)
			return true
		})
	})
	return out, err
}

// parseRelPath reconstructs a Meta's Start/End/Agg from its filename,
// used by the disk rehydration walk.
func parseRelPath(fingerprint, name string) (Meta, bool) {
	name = strings.TrimSuffix(name, ".json")
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return Meta{}, false
	}
	start, err1 := strconv.ParseInt(parts[0], 10, 64)
	end, err2 := strconv.ParseInt(parts[1], 10, 64)
	agg, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Meta{}, false
	}
	return Meta{Fingerprint: fingerprint, Start: start, End: end, Agg: agg}, true
}
