package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/plan"
	"github.com/shardql/shardql/query"
	"github.com/shardql/shardql/transport"
)

// Result is what Execute returns: the per-partition batches in
// partition order (no cross-partition merge — that's the outer plan's
// job, spec §4.5 "Ordering"), accumulated ScanStats, and whether any
// partition hit a non-fatal per-file error.
type Result struct {
	Batches    [][]*batch.RecordBatch // Batches[i] is partition i's batches, in stream order
	Stats      meta.ScanStats
	PartialErr bool
}

// Dispatcher is LeaderDispatcher.
type Dispatcher struct {
	dial           Dialer
	resolver       NodeResolver
	orgHeaderKey   string
	authorization  func() string
	maxMessageSize int
	metrics        *Metrics
}

func New(dial Dialer, resolver NodeResolver, orgHeaderKey string, authorization func() string, maxMessageSize int, metrics *Metrics) *Dispatcher {
	return &Dispatcher{dial: dial, resolver: resolver, orgHeaderKey: orgHeaderKey, authorization: authorization, maxMessageSize: maxMessageSize, metrics: metrics}
}

// Execute dispatches every exec in execs to an online leaf node, one
// partition per node round-robin, merges their ScanStats, and enforces
// env.Timeout end to end. Per the resolved Open Question, zero online
// nodes is not an error: Execute returns an empty Result.
func (d *Dispatcher) Execute(ctx context.Context, execs []plan.RemoteScanExec, env query.Envelope) (*Result, error) {
	if d.metrics != nil {
		timer := prometheus.NewTimer(d.metrics.dispatchLatency)
		defer timer.ObserveDuration()
	}

	nodes, err := d.resolver.OnlineNodes(ctx, env.StreamType)
	if err != nil {
		return nil, cmn.NewErrTransient(err)
	}
	if len(nodes) == 0 {
		if d.metrics != nil {
			d.metrics.noOnlineNodes.Inc()
		}
		return &Result{}, nil
	}
	if len(execs) == 0 {
		return &Result{}, nil
	}

	deadlineCtx := ctx
	var cancel context.CancelFunc
	if env.Timeout > 0 {
		deadlineCtx, cancel = context.WithTimeout(ctx, env.Timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(deadlineCtx)
	result := &Result{Batches: make([][]*batch.RecordBatch, len(execs))}
	var mu sync.Mutex

	for i, exec := range execs {
		i, exec := i, exec
		node := nodes[i%len(nodes)]
		g.Go(func() error {
			batches, stats, partialErr, err := d.runPartition(gctx, node, i, exec, env)
			if err != nil {
				if d.metrics != nil {
					d.metrics.partitionErrors.WithLabelValues(errKind(err)).Inc()
				}
				return err
			}
			if d.metrics != nil {
				d.metrics.partitionsDispatched.Inc()
			}
			mu.Lock()
			result.Batches[i] = batches
			result.Stats.Add(stats)
			if partialErr {
				result.PartialErr = true
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if deadlineCtx.Err() == context.DeadlineExceeded {
			return nil, cmn.NewErrCancelled("query timeout exceeded")
		}
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) runPartition(ctx context.Context, node string, partition int, exec plan.RemoteScanExec, env query.Envelope) (batches []*batch.RecordBatch, stats meta.ScanStats, partialErr bool, err error) {
	client, err := d.dial(ctx, node)
	if err != nil {
		return nil, stats, false, cmn.NewErrTransient(err)
	}

	req := &query.FlightRequest{
		Envelope:      env,
		Partition:     partition,
		Plan:          exec.Fragment,
		FileList:      exec.FileList,
		PartitionKeys: exec.PartitionKeys,
		MatchAllKeys:  exec.MatchAllKeys,
		IsLeader:      exec.IsLeader,
	}
	stream, err := client.Search(ctx, d.authorization(), d.orgHeaderKey, env.Org, req)
	if err != nil {
		return nil, stats, false, cmn.NewErrTransient(err)
	}

	// First frame must be the schema; spec §4.5 step 2.
	first, err := stream.Recv()
	if err != nil {
		return nil, stats, false, translateRecvErr(err)
	}
	if first.Kind != transport.FrameSchema {
		return nil, stats, false, cmn.NewErrFatal(errors.New("dispatch: expected schema frame first"))
	}

	for {
		f, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, false, translateRecvErr(err)
		}
		switch f.Kind {
		case transport.FrameData:
			batches = append(batches, f.Batch)
		case transport.FrameTrailer:
			stats = f.Stats
			partialErr = f.PartialErr
		}
	}
	return batches, stats, partialErr, nil
}

func translateRecvErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return cmn.NewErrCancelled("leaf stream cancelled: " + err.Error())
	}
	return cmn.NewErrTransient(err)
}
