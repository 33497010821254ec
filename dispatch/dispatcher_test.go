package dispatch

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/internal/tassert"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/plan"
	"github.com/shardql/shardql/query"
	"github.com/shardql/shardql/transport"
)

// fakeResolver implements NodeResolver over a fixed node list.
type fakeResolver struct{ nodes []string }

func (f fakeResolver) OnlineNodes(context.Context, string) ([]string, error) { return f.nodes, nil }

// fakeStream is an in-memory searchStream over a pre-built frame list.
type fakeStream struct {
	frames []*transport.Frame
	i      int
	delay  time.Duration
	ctx    context.Context
}

func (s *fakeStream) Recv() (*transport.Frame, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		}
	}
	if s.i >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.i]
	s.i++
	return f, nil
}

// fakeClient hands back a fresh fakeStream per Search call built from a
// template frame list, optionally delayed to simulate a slow leaf.
type fakeClient struct {
	frames func(req *query.FlightRequest) []*transport.Frame
	delay  time.Duration
	err    error
}

func (c fakeClient) Search(ctx context.Context, _, _, _ string, req *query.FlightRequest) (searchStream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &fakeStream{frames: c.frames(req), delay: c.delay, ctx: ctx}, nil
}

func echoFrames(req *query.FlightRequest) []*transport.Frame {
	rb := batch.New([]batch.Field{{Name: "ts", Type: batch.Timestamp}}, 1)
	rb.Columns[0].Ints[0] = req.Envelope.StartTime
	rb.Columns[0].Valid[0] = true
	return []*transport.Frame{
		{Kind: transport.FrameSchema, Schema: []batch.Field{{Name: "ts", Type: batch.Timestamp}}},
		{Kind: transport.FrameData, Batch: rb},
		{Kind: transport.FrameTrailer, Stats: meta.ScanStats{FilesScanned: int64(len(req.FileList))}},
	}
}

func execsFor(n int) []plan.RemoteScanExec {
	execs := make([]plan.RemoteScanExec, n)
	for i := range execs {
		execs[i] = plan.RemoteScanExec{FileList: []meta.FileKey{{ID: "f"}}}
	}
	return execs
}

func TestExecuteAggregatesStatsAcrossPartitions(t *testing.T) {
	dial := func(ctx context.Context, addr string) (leafClient, error) {
		return fakeClient{frames: echoFrames}, nil
	}
	d := New(dial, fakeResolver{nodes: []string{"leaf-1", "leaf-2"}}, "x-org", func() string { return "Bearer t" }, 0, nil)

	res, err := d.Execute(context.Background(), execsFor(3), query.Envelope{StartTime: 42})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, res.Stats.FilesScanned == 3, "expected aggregated FilesScanned=3, got %d", res.Stats.FilesScanned)
	tassert.Fatalf(t, len(res.Batches) == 3, "expected 3 partitions of batches, got %d", len(res.Batches))
	for i, bs := range res.Batches {
		tassert.Fatalf(t, len(bs) == 1, "partition %d: expected 1 batch, got %d", i, len(bs))
	}
}

// TestExecuteIdempotentUnderRetry covers spec §8 property 7: dispatching
// the same execs twice against a deterministic fake leaf yields identical
// aggregated stats both times.
func TestExecuteIdempotentUnderRetry(t *testing.T) {
	dial := func(ctx context.Context, addr string) (leafClient, error) {
		return fakeClient{frames: echoFrames}, nil
	}
	d := New(dial, fakeResolver{nodes: []string{"leaf-1"}}, "x-org", func() string { return "Bearer t" }, 0, nil)

	env := query.Envelope{StartTime: 7}
	res1, err := d.Execute(context.Background(), execsFor(2), env)
	tassert.CheckFatal(t, err)
	res2, err := d.Execute(context.Background(), execsFor(2), env)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, res1.Stats == res2.Stats, "expected identical stats on retry, got %+v vs %+v", res1.Stats, res2.Stats)
}

// TestNoOnlineNodesReturnsEmptyResult covers the resolved Open Question:
// zero online nodes is not an error.
func TestNoOnlineNodesReturnsEmptyResult(t *testing.T) {
	dial := func(ctx context.Context, addr string) (leafClient, error) {
		t.Fatal("dial should never be called with zero online nodes")
		return nil, nil
	}
	d := New(dial, fakeResolver{nodes: nil}, "x-org", func() string { return "" }, 0, nil)

	res, err := d.Execute(context.Background(), execsFor(2), query.Envelope{})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, res.Batches == nil, "expected empty result, got %+v", res)
}

// TestExecuteTimeoutBound covers spec §8 property 8 / scenario S7: a
// leaf that never responds within the envelope's timeout must resolve
// as ErrCancelled within [timeout, timeout*1.2).
func TestExecuteTimeoutBound(t *testing.T) {
	dial := func(ctx context.Context, addr string) (leafClient, error) {
		return fakeClient{frames: echoFrames, delay: 5 * time.Second}, nil
	}
	d := New(dial, fakeResolver{nodes: []string{"leaf-1"}}, "x-org", func() string { return "" }, 0, nil)

	start := time.Now()
	_, err := d.Execute(context.Background(), execsFor(1), query.Envelope{Timeout: time.Second})
	elapsed := time.Since(start)

	tassert.Fatalf(t, err != nil, "expected a timeout error")
	_, ok := err.(*cmn.ErrCancelled)
	tassert.Fatalf(t, ok, "expected *cmn.ErrCancelled, got %T: %v", err, err)
	tassert.Fatalf(t, elapsed >= time.Second && elapsed < 1200*time.Millisecond, "expected resolution within [1.0s,1.2s), took %v", elapsed)
}
