// Package filedata implements FileDataCache: a two-tier (memory, disk)
// byte-range cache fronting the out-of-scope object-storage layer (spec
// §4.1). Grounded on the teacher's fs/mountfs.go capacity-aware mountpath
// bookkeeping and xs/obj_warmup.go prefetch pattern.
/*
 * Copyright (c) 2024, shardql authors.
 */
package filedata

import "strconv"

// ByteRange is a half-open [Offset, Offset+Length) span within a file.
// A Length of -1 denotes "whole object" as used by prewarm downloads.
type ByteRange struct {
	Offset int64
	Length int64
}

// Key identifies one cached byte range of one file.
type Key struct {
	FileID string
	Range  ByteRange
}

func (k Key) String() string {
	return k.FileID + "#" + strconv.FormatInt(k.Range.Offset, 10) + ":" + strconv.FormatInt(k.Range.Length, 10)
}
