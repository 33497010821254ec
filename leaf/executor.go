package leaf

import (
	"context"
	"errors"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/cmn/nlog"
	"github.com/shardql/shardql/filedata"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/plan"
	"github.com/shardql/shardql/puffin"
	"github.com/shardql/shardql/query"
	"github.com/shardql/shardql/transport"
)

// wholeFile is the byte range FileDataCache.Get is asked for when the
// leaf needs a file in full (no sub-range scan planning at this layer).
var wholeFile = filedata.ByteRange{Offset: 0, Length: -1}

// SchemaResolver is the out-of-scope catalog/schema-registry
// collaborator: given a table name, it returns the columns the
// executor must adapt every produced batch to (spec §4.6 item 3).
type SchemaResolver interface {
	Schema(table string) ([]batch.Field, error)
}

// PuffinLoader is the out-of-scope collaborator resolving a file's
// companion inverted-index blob, if one exists. ok=false means the
// stream has no index companion for this file — not an error.
type PuffinLoader interface {
	Load(ctx context.Context, fileID string) (dir *puffin.Directory, ok bool, err error)
}

// Executor is LeafExecutor.
type Executor struct {
	FileData *filedata.Cache
	Puffin   PuffinLoader
	Schemas  SchemaResolver
}

type reqAdapter struct{ req *query.FlightRequest }

func (r reqAdapter) matchAllKeys() []string               { return r.req.MatchAllKeys }
func (r reqAdapter) partitionKeys() []meta.PartitionKey { return r.req.PartitionKeys }

// Search implements transport.LeafServer (spec §4.6).
func (e *Executor) Search(ctx context.Context, req *query.FlightRequest, send func(*transport.Frame) error) error {
	root, err := plan.DecodeFragment(req.Plan)
	if err != nil {
		return cmn.NewErrFatal(err)
	}
	table, ok := findEmptyTableScan(root)
	if !ok {
		return cmn.NewErrFatal(errors.New("leaf: plan fragment carries no empty-table-scan placeholder"))
	}

	schema, err := e.Schemas.Schema(table.Table)
	if err != nil {
		return cmn.NewErrFatal(err)
	}
	if err := send(&transport.Frame{Kind: transport.FrameSchema, Schema: schema}); err != nil {
		return cmn.NewErrTransient(err)
	}

	var stats meta.ScanStats
	var partialErr bool

	for _, file := range req.FileList {
		select {
		case <-ctx.Done():
			return cmn.NewErrCancelled(ctx.Err().Error())
		default:
		}

		rb, idxBytes, skipped, err := e.scanFile(ctx, file, req)
		if err != nil {
			if _, fatal := err.(*cmn.ErrFatal); fatal {
				return err
			}
			nlog.Warningf("leaf: skipping file %s after non-fatal error: %v", file, err)
			partialErr = true
			continue
		}
		if skipped {
			partialErr = true
			continue
		}

		stats.FilesScanned++
		stats.BytesOriginal += file.Size
		stats.Records += int64(rb.NumRows)
		stats.IdxScanSize += idxBytes

		adapted := batch.AdaptToSchema(rb, schema)
		if err := send(&transport.Frame{Kind: transport.FrameData, Batch: adapted}); err != nil {
			return cmn.NewErrTransient(err)
		}
	}

	return send(&transport.Frame{Kind: transport.FrameTrailer, Stats: stats, PartialErr: partialErr})
}

// scanFile loads one file's full batch, applies the puffin row-id
// pushdown if a companion index is available, and returns the
// (possibly row-pruned) batch. skipped is true for a file whose raw
// bytes don't decode as a record batch — a non-fatal per-file
// condition the caller turns into partial_err rather than aborting.
func (e *Executor) scanFile(ctx context.Context, file meta.FileKey, req *query.FlightRequest) (rb *batch.RecordBatch, idxBytes int64, skipped bool, err error) {
	raw, err := e.FileData.Get(ctx, file.ID, wholeFile)
	if err != nil {
		return nil, 0, false, err
	}
	rb, _, err = batch.UnmarshalMsg(raw)
	if err != nil {
		return nil, 0, true, nil
	}

	if len(req.MatchAllKeys) == 0 && len(req.PartitionKeys) == 0 {
		return rb, 0, false, nil
	}
	dir, ok, err := e.Puffin.Load(ctx, file.ID)
	if err != nil {
		return nil, 0, false, err
	}
	if !ok {
		return rb, 0, false, nil
	}
	ids, pushedDown, idxSize, err := selectedRowIDs(dir, reqAdapter{req: req})
	if err != nil {
		return nil, 0, false, err
	}
	if !pushedDown {
		return rb, idxSize, false, nil
	}
	return selectRows(rb, ids), idxSize, false, nil
}

func findEmptyTableScan(n plan.Node) (plan.EmptyTableScan, bool) {
	if scan, ok := n.(plan.EmptyTableScan); ok {
		return scan, true
	}
	for _, c := range n.Children() {
		if scan, ok := findEmptyTableScan(c); ok {
			return scan, true
		}
	}
	return plan.EmptyTableScan{}, false
}
