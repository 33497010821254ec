package resultcache

import (
	"os"
	"testing"

	"github.com/shardql/shardql/internal/tassert"
)

func TestStoreLookupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	tassert.CheckFatal(t, err)
	defer c.Close()

	body, err := encodePayload(payload{Hits: []map[string]interface{}{
		{"_timestamp": float64(1500), "v": "a"},
	}})
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, c.Store("fp1", 1000, 2000, 0, "_timestamp", body))

	res, err := c.Lookup("fp1", 1000, 2000, 0)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(res.Deltas) == 0, "expected exact hit, got deltas %v", res.Deltas)
	tassert.Fatalf(t, !res.ShouldExecQuery, "expected should_exec_query=false on exact hit")
	tassert.Fatalf(t, res.ResultTSColumn == "_timestamp", "unexpected result_ts_column: %s", res.ResultTSColumn)
}

func TestRemovedHitsFilterDropsRows(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	tassert.CheckFatal(t, err)
	defer c.Close()

	body, err := encodePayload(payload{Hits: []map[string]interface{}{
		{"_timestamp": float64(1100), "v": "dropped-before"},
		{"_timestamp": float64(1500), "v": "kept"},
		{"_timestamp": float64(1900), "v": "dropped-after"},
	}})
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, c.Store("fp2", 1000, 2000, 0, "_timestamp", body))

	// Request a shrunk window [1200,1800): produces removed_hits deltas
	// on both ends, rows inside those deltas must be dropped.
	res, err := c.Lookup("fp2", 1200, 1800, 0)
	tassert.CheckFatal(t, err)
	p, err := decodePayload(res.Payload)
	tassert.CheckFatal(t, err)
	for _, row := range p.Hits {
		ts, _ := rowTimestamp(row, "_timestamp")
		tassert.Fatalf(t, ts >= 1200 && ts < 1800, "row outside requested range survived filtering: %v", row)
	}
}

func TestStatsCountsEntriesAcrossFingerprints(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	tassert.CheckFatal(t, err)
	defer c.Close()

	body, err := encodePayload(payload{})
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, c.Store("fp-a", 1000, 2000, 0, "_timestamp", body))
	tassert.CheckFatal(t, c.Store("fp-a", 2000, 3000, 0, "_timestamp", body))
	tassert.CheckFatal(t, c.Store("fp-b", 1000, 2000, 0, "_timestamp", body))

	n, err := c.Stats()
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, n == 3, "expected 3 indexed entries across fingerprints, got %d", n)
}

func TestLookupMissOnNoCachedMeta(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	tassert.CheckFatal(t, err)
	defer c.Close()

	res, err := c.Lookup("unknown-fp", 1000, 2000, 0)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, res.ShouldExecQuery, "expected should_exec_query=true for a fully uncached fingerprint")
}

func TestRehydrationFromDiskOnReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	tassert.CheckFatal(t, err)
	body, err := encodePayload(payload{Hits: []map[string]interface{}{{"_timestamp": float64(1000)}}})
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, c.Store("fp3", 1000, 2000, 0, "_timestamp", body))
	tassert.CheckFatal(t, c.Close())

	tassert.CheckFatal(t, os.Remove(dir+"/meta.db"))

	c2, err := Open(dir)
	tassert.CheckFatal(t, err)
	defer c2.Close()
	res, err := c2.Lookup("fp3", 1000, 2000, 0)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(res.Deltas) == 0, "expected rehydrated meta to serve an exact hit, got deltas %v", res.Deltas)
}
