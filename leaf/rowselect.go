package leaf

import (
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/puffin"
)

// termBlobPath finds the first puffin-directory path carrying postings
// (extension ".term", per the allowed-extension set spec §4.2 defines).
func termBlobPath(dir *puffin.Directory) (string, bool) {
	for _, p := range dir.ListFiles() {
		if strings.HasSuffix(p, ".term") {
			return p, true
		}
	}
	return "", false
}

// selectedRowIDs evaluates the match-all and partition-key-equality
// predicates against dir's postings (spec §4.6 item 2): match-all
// keywords union, partition-key equalities intersect, and the two
// combine with AND when both are present. pushedDown is false when dir
// carries no postings blob at all, meaning the leaf must fall back to a
// full scan of the file rather than treat it as zero matching rows.
func selectedRowIDs(dir *puffin.Directory, req predicateSource) (ids *roaring.Bitmap, pushedDown bool, idxBytes int64, err error) {
	path, ok := termBlobPath(dir)
	if !ok {
		return nil, false, 0, nil
	}
	raw, ok := dir.OpenRead(path)
	if !ok {
		return nil, false, 0, nil
	}
	idxBytes = int64(len(raw))
	postings, err := DecodePostings(raw)
	if err != nil {
		return nil, false, idxBytes, err
	}

	var matchBM *roaring.Bitmap
	if keys := req.matchAllKeys(); len(keys) > 0 {
		matchBM = roaring.New()
		for _, kw := range keys {
			matchBM.AddMany(postings[kw])
		}
	}

	var partBM *roaring.Bitmap
	for _, pk := range req.partitionKeys() {
		bm := roaring.New()
		bm.AddMany(postings[PartitionKeyTerm(pk.Field, pk.Value)])
		if partBM == nil {
			partBM = bm
		} else {
			partBM.And(bm)
		}
	}

	switch {
	case matchBM != nil && partBM != nil:
		matchBM.And(partBM)
		return matchBM, true, idxBytes, nil
	case matchBM != nil:
		return matchBM, true, idxBytes, nil
	case partBM != nil:
		return partBM, true, idxBytes, nil
	default:
		return nil, false, idxBytes, nil
	}
}

// predicateSource is the subset of *query.FlightRequest selectedRowIDs
// needs, narrowed to keep selectedRowIDs independent of the query
// package's wire-envelope fields.
type predicateSource interface {
	matchAllKeys() []string
	partitionKeys() []meta.PartitionKey
}

// selectRows returns a new RecordBatch containing only rb's rows whose
// index is in ids, preserving column order and types. ids' iteration
// order is ascending, so row order within the partition is preserved.
func selectRows(rb *batch.RecordBatch, ids *roaring.Bitmap) *batch.RecordBatch {
	rows := ids.ToArray()
	out := batch.New(rb.Schema, len(rows))
	for ci := range rb.Columns {
		src := rb.Columns[ci]
		dst := &out.Columns[ci]
		for ri, rowID := range rows {
			if int(rowID) >= rb.NumRows {
				continue
			}
			dst.Valid[ri] = src.Valid[rowID]
			switch src.Type {
			case batch.Int64, batch.Timestamp:
				dst.Ints[ri] = src.Ints[rowID]
			case batch.Float64:
				dst.Floats[ri] = src.Floats[rowID]
			case batch.StringType:
				dst.Strings[ri] = src.Strings[rowID]
			case batch.Bool:
				dst.Bools[ri] = src.Bools[rowID]
			}
		}
	}
	return out
}
