// Package supercluster implements SuperClusterLeader (spec §4.7): the
// cross-cluster recursion of LeaderDispatcher, rewriting the plan with a
// second RemoteScan layer targeting peer-cluster nodes instead of local
// leaves, and collecting under the identical timeout and batch
// semantics dispatch.Dispatcher already provides.
/*
 * Copyright (c) 2024, shardql authors.
 */
package supercluster

import (
	"context"

	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/dispatch"
	"github.com/shardql/shardql/plan"
	"github.com/shardql/shardql/query"
)

// PeerResolver is the out-of-scope peer-cluster-discovery collaborator:
// given the request's regions and clusters, it returns the online peer
// addresses to recurse into.
type PeerResolver interface {
	OnlinePeers(ctx context.Context, regions, clusters []string) ([]string, error)
}

// SchemaPresence is the out-of-scope schema-registry collaborator used
// for the "skip early when every involved schema is empty" rule (spec
// §4.7): before paying for a cross-cluster round trip, check whether any
// peer actually has data for the tables the query touches.
type SchemaPresence interface {
	AnyDataPresent(ctx context.Context, peers []string, tables []string) (bool, error)
}

// fixedResolver adapts a resolved peer address list to dispatch.NodeResolver.
type fixedResolver struct{ peers []string }

func (f fixedResolver) OnlineNodes(context.Context, string) ([]string, error) { return f.peers, nil }

// Leader is SuperClusterLeader.
type Leader struct {
	dial           dispatch.Dialer
	peers          PeerResolver
	schemas        SchemaPresence // nil disables the early-skip check
	orgHeaderKey   string
	authorization  func() string
	maxMessageSize int
	metrics        *dispatch.Metrics
}

func New(dial dispatch.Dialer, peers PeerResolver, schemas SchemaPresence, orgHeaderKey string, authorization func() string, maxMessageSize int, metrics *dispatch.Metrics) *Leader {
	return &Leader{dial: dial, peers: peers, schemas: schemas, orgHeaderKey: orgHeaderKey, authorization: authorization, maxMessageSize: maxMessageSize, metrics: metrics}
}

// Collect discovers the online peer set for reqRegions/reqClusters,
// skips early when no peer has data for tables, rewrites root with a
// second RemoteScan layer (IsLeader=false) targeting one exec per peer,
// and collects through the same dispatch.Dispatcher code path
// LeaderDispatcher itself uses — including its real ScanStats
// aggregation, fixing REDESIGN FLAG 3 at this recursion point too.
func (l *Leader) Collect(ctx context.Context, root plan.Node, primaryTable string, reqRegions, reqClusters []string, env query.Envelope) (*dispatch.Result, error) {
	peers, err := l.peers.OnlinePeers(ctx, reqRegions, reqClusters)
	if err != nil {
		return nil, cmn.NewErrTransient(err)
	}
	if len(peers) == 0 {
		return &dispatch.Result{}, nil
	}

	if l.schemas != nil {
		present, err := l.schemas.AnyDataPresent(ctx, peers, []string{primaryTable})
		if err != nil {
			return nil, cmn.NewErrTransient(err)
		}
		if !present {
			return &dispatch.Result{}, nil
		}
	}

	execs := make([]plan.RemoteScanExec, 0, len(peers))
	for range peers {
		_, peerExecs, err := plan.Build(root, plan.RewriteInput{
			Envelope:      env,
			IsLeader:      false,
			PrimaryTable:  primaryTable,
			NumPartitions: 1,
		})
		if err != nil {
			return nil, cmn.NewErrFatal(err)
		}
		execs = append(execs, peerExecs...)
	}

	d := dispatch.New(l.dial, fixedResolver{peers: peers}, l.orgHeaderKey, l.authorization, l.maxMessageSize, l.metrics)
	return d.Execute(ctx, execs, env)
}
