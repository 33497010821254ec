package plan

import (
	"fmt"

	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/query"
)

// RewriteInput carries everything RemoteScanRewriter needs to populate
// each RemoteScanExec it produces (spec §4.4).
type RewriteInput struct {
	FileList      []meta.FileKey
	PartitionKeys []meta.PartitionKey
	MatchAllKeys  []string
	Envelope      query.Envelope
	NumPartitions int
	IsLeader      bool
	// PrimaryTable names the table to scan when the fallback path
	// (no TableScan found) applies.
	PrimaryTable string
}

// partitionFiles splits files round-robin across n partitions, one
// partition per online leaf node (spec §4.4).
func partitionFiles(files []meta.FileKey, n int) [][]meta.FileKey {
	if n <= 0 {
		n = 1
	}
	out := make([][]meta.FileKey, n)
	for i, f := range files {
		p := i % n
		out[p] = append(out[p], f)
	}
	return out
}

func collectScans(root Node) []TableScan {
	var found []TableScan
	walkBottomUp(root, func(n Node) Node {
		if s, ok := n.(TableScan); ok {
			found = append(found, s)
		}
		return n
	})
	return found
}

func replaceScan(root Node, target TableScan, replacement Node) Node {
	return walkBottomUp(root, func(n Node) Node {
		if s, ok := n.(TableScan); ok && s == target {
			return replacement
		}
		return n
	})
}

// Rewrite walks root bottom-up, replaces the first TableScan leaf found
// with a RemoteScanExec, and fans in.FileList out across in.NumPartitions
// RemoteScanExecs, one per online leaf node (spec §4.4: "the partitioned
// file list (one partition per online leaf node)"). Every exec shares the
// same encoded fragment; Dispatcher.Execute is what actually sends each
// exec to a distinct node, so the returned tree only needs one of them in
// place as a structural marker — callers drive execution from the execs
// slice, not from the rewritten tree. If root contains multiple distinct
// table scans (a join), only the first is rewritten and the rest are left
// unresolved — this engine targets single-table analytic queries per
// spec.md's scope, so multi-way remote joins are a known simplification,
// not silently handled.
func Rewrite(root Node, in RewriteInput) (Node, []RemoteScanExec, error) {
	scans := collectScans(root)
	if len(scans) == 0 {
		return root, nil, nil
	}
	target := scans[0]

	fragmentTree := replaceScan(root, target, EmptyTableScan{Table: target.Table})
	encoded, err := EncodeFragment(fragmentTree)
	if err != nil {
		return nil, nil, fmt.Errorf("plan: rewriting scan %q: %w", target.Table, err)
	}

	partitions := partitionFiles(in.FileList, in.NumPartitions)
	execs := make([]RemoteScanExec, 0, len(partitions))
	for _, fileList := range partitions {
		execs = append(execs, RemoteScanExec{
			Fragment:      encoded,
			FileList:      fileList,
			PartitionKeys: in.PartitionKeys,
			MatchAllKeys:  in.MatchAllKeys,
			IsLeader:      in.IsLeader,
			Envelope:      in.Envelope,
		})
	}
	newRoot := replaceScan(root, target, execs[0])
	return newRoot, execs, nil
}
