package plan

import (
	"fmt"

	"github.com/shardql/shardql/meta"
)

// Build produces the leader-side execution plan from root:
// RemoteScanRewriter runs first; if it found no TableScan leaves to wrap
// (spec §4.4 fallback — "the rewriter did not change the plan"), the
// plan is instead wrapped whole in a single RemoteScanExec for
// in.PrimaryTable, so a leaf still has a fragment to execute.
func Build(root Node, in RewriteInput) (Node, []RemoteScanExec, error) {
	rewritten, execs, err := Rewrite(root, in)
	if err != nil {
		return nil, nil, err
	}
	if len(execs) > 0 {
		return rewritten, execs, nil
	}

	encoded, err := EncodeFragment(EmptyTableScan{Table: in.PrimaryTable})
	if err != nil {
		return nil, nil, fmt.Errorf("plan: building fallback fragment: %w", err)
	}
	exec := RemoteScanExec{
		Fragment:      encoded,
		FileList:      flattenFiles(partitionFiles(in.FileList, in.NumPartitions)),
		PartitionKeys: in.PartitionKeys,
		MatchAllKeys:  in.MatchAllKeys,
		IsLeader:      in.IsLeader,
		Envelope:      in.Envelope,
	}
	return exec, []RemoteScanExec{exec}, nil
}

func flattenFiles(parts [][]meta.FileKey) []meta.FileKey {
	var out []meta.FileKey
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
