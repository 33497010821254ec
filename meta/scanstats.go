package meta

// ScanStats accumulates scan-time statistics over the lifetime of a
// single query (spec §3). A zero ScanStats is a valid empty accumulator.
type ScanStats struct {
	FilesScanned    int64 `json:"files_scanned"`
	BytesOriginal   int64 `json:"original_size"`
	BytesCompressed int64 `json:"compressed_size"`
	Records         int64 `json:"records"`
	IdxScanSize     int64 `json:"idx_scan_size"`
}

// Add accumulates other into s in place, used both at a single leaf
// (per-file increments) and at a leader/super-cluster-leader merging
// per-partition results (spec §4.5, §4.7 — real aggregation, not the
// REDESIGN FLAG 3 bug of discarding and returning a fresh ScanStats).
func (s *ScanStats) Add(other ScanStats) {
	s.FilesScanned += other.FilesScanned
	s.BytesOriginal += other.BytesOriginal
	s.BytesCompressed += other.BytesCompressed
	s.Records += other.Records
	s.IdxScanSize += other.IdxScanSize
}

// PartitionKey is a request-scoped equality predicate pushed down to
// leaves (spec §3).
type PartitionKey struct {
	Field string `json:"field_name"`
	Value string `json:"value"`
}
