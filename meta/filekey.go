// Package meta holds the data-model entities shared across shardql's
// query execution subsystem: FileKey, ScanStats, and PartitionKey (spec
// §3), in the teacher's plain-struct-with-json-tags style (cmn/api.go).
/*
 * Copyright (c) 2024, shardql authors.
 */
package meta

// FileKey identifies an immutable columnar segment: the unit of scan and
// of file-data-cache residency. Created by the ingest layer (out of
// scope), immutable thereafter, deleted only by retention.
type FileKey struct {
	ID         string `json:"id"`
	Org        string `json:"org"`
	Stream     string `json:"stream"`
	StreamType string `json:"stream_type"`
	MinTS      int64  `json:"min_ts"` // micros
	MaxTS      int64  `json:"max_ts"` // micros
	Size       int64  `json:"size"`   // bytes
}

// Overlaps reports whether the file's time range intersects [start, end).
func (k FileKey) Overlaps(start, end int64) bool {
	return k.MinTS < end && k.MaxTS >= start
}

// String returns a stable identity string usable as a cache key alongside
// a byte range.
func (k FileKey) String() string { return k.Org + "/" + k.Stream + "/" + k.ID }
