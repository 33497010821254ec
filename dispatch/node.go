// Package dispatch implements LeaderDispatcher (spec §4.5): fans a
// rewritten plan's RemoteScanExec partitions out to leaf nodes over the
// transport package's streaming RPC, collects their batches per
// partition, and enforces
// the query deadline end to end.
/*
 * Copyright (c) 2024, shardql authors.
 */
package dispatch

import (
	"context"

	"google.golang.org/grpc"

	"github.com/shardql/shardql/query"
	"github.com/shardql/shardql/transport"
)

// NodeResolver is the out-of-scope cluster node discovery collaborator:
// given a stream, it returns the addresses of currently online leaf
// nodes. Consumed only through this interface.
type NodeResolver interface {
	OnlineNodes(ctx context.Context, streamType string) ([]string, error)
}

// searchStream is the subset of *transport.SearchStream the dispatcher
// needs, narrowed so tests can substitute a fake without a real gRPC
// connection.
type searchStream interface {
	Recv() (*transport.Frame, error)
}

// leafClient is the subset of *transport.Client the dispatcher needs.
type leafClient interface {
	Search(ctx context.Context, authorization, orgHeaderKey, orgID string, req *query.FlightRequest) (searchStream, error)
}

// clientAdapter narrows *transport.Client's concrete *SearchStream
// return type down to the searchStream interface above.
type clientAdapter struct{ c *transport.Client }

func (a clientAdapter) Search(ctx context.Context, authorization, orgHeaderKey, orgID string, req *query.FlightRequest) (searchStream, error) {
	return a.c.Search(ctx, authorization, orgHeaderKey, orgID, req)
}

// Dialer constructs a leafClient for a given node address; production
// code wires this to transport.Dial, tests substitute an in-memory fake.
type Dialer func(ctx context.Context, addr string) (leafClient, error)

// DialTransport is the production Dialer, opening a real gRPC
// connection via the transport package. Extra opts are passed through
// to transport.Dial/grpc.DialContext, letting callers (including
// tests) substitute a bufconn dialer or TLS credentials.
func DialTransport(maxMessageSize int, opts ...grpc.DialOption) Dialer {
	return func(ctx context.Context, addr string) (leafClient, error) {
		c, err := transport.Dial(ctx, addr, maxMessageSize, opts...)
		if err != nil {
			return nil, err
		}
		return clientAdapter{c: c}, nil
	}
}
