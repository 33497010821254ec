package plan

import (
	"testing"

	"github.com/shardql/shardql/internal/tassert"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/query"
)

func testFiles(n int) []meta.FileKey {
	out := make([]meta.FileKey, n)
	for i := range out {
		out[i] = meta.FileKey{ID: string(rune('a' + i))}
	}
	return out
}

func TestRewriteWrapsTableScan(t *testing.T) {
	root := Project{
		Child:   Filter{Child: TableScan{Table: "logs"}, Predicate: "level = 'error'"},
		Columns: []string{"ts", "msg"},
	}
	in := RewriteInput{FileList: testFiles(4), NumPartitions: 2, Envelope: query.Envelope{TraceID: "t1"}, IsLeader: true}

	out, execs, err := Build(root, in)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(execs) == 2, "expected one RemoteScanExec per partition, got %d", len(execs))

	total := len(execs[0].FileList) + len(execs[1].FileList)
	tassert.Fatalf(t, total == 4, "expected all 4 files split across the two partition execs, got %d", total)

	proj, ok := out.(Project)
	tassert.Fatalf(t, ok, "expected root to remain a Project after rewrite")
	filter, ok := proj.Child.(Filter)
	tassert.Fatalf(t, ok, "expected Project's child to remain a Filter")
	_, ok = filter.Child.(RemoteScanExec)
	tassert.Fatalf(t, ok, "expected the TableScan leaf to have become a RemoteScanExec")

	for _, exec := range execs {
		decoded, err := DecodeFragment(exec.Fragment)
		tassert.CheckFatal(t, err)
		_, ok = decoded.(Project)
		tassert.Fatalf(t, ok, "expected fragment root to be the full plan's Project root")
	}
}

func TestBuildFallbackWhenNoScanFound(t *testing.T) {
	// A plan with no TableScan leaf at all (e.g. a constant-folded
	// expression already resolved to an EmptyTableScan by an earlier
	// pass) — the rewriter finds nothing to wrap.
	root := Filter{Child: EmptyTableScan{Table: "ignored"}, Predicate: "true"}

	in := RewriteInput{FileList: testFiles(2), NumPartitions: 1, PrimaryTable: "metrics"}
	out, execs, err := Build(root, in)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(execs) == 1, "expected one fallback RemoteScanExec, got %d", len(execs))
	_, ok := out.(RemoteScanExec)
	tassert.Fatalf(t, ok, "expected fallback to wrap the entire plan in a RemoteScanExec")
	tassert.Fatalf(t, len(execs[0].FileList) == 2, "expected fallback to carry the full file list, got %d", len(execs[0].FileList))
}

func TestPartitionFilesRoundRobin(t *testing.T) {
	parts := partitionFiles(testFiles(5), 2)
	tassert.Fatalf(t, len(parts) == 2, "expected 2 partitions, got %d", len(parts))
	tassert.Fatalf(t, len(parts[0])+len(parts[1]) == 5, "expected all 5 files partitioned, got %d+%d", len(parts[0]), len(parts[1]))
	tassert.Fatalf(t, len(parts[0]) == 3 && len(parts[1]) == 2, "expected round-robin split 3/2, got %d/%d", len(parts[0]), len(parts[1]))
}
