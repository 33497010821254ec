package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/shardql/shardql/query"
)

var searchStreamDesc = &grpc.StreamDesc{
	StreamName:    "Search",
	ServerStreams: true,
	ClientStreams: true,
}

// Client dials a leaf or super-cluster peer over this package's
// msgp-codec gRPC transport.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to target with this package's codec and gzip compressor
// forced, and maxMessageSize applied to both directions (spec §6).
func Dial(ctx context.Context, target string, maxMessageSize int, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{}), grpc.UseCompressor("gzip")),
	}
	if maxMessageSize > 0 {
		base = append(base, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize), grpc.MaxCallSendMsgSize(maxMessageSize)))
	}
	cc, err := grpc.DialContext(ctx, target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", target, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error { return c.cc.Close() }

// Search opens the Search stream, sends req, and half-closes the send
// side — the client never sends a second message on this RPC shape
// (spec §6: request frame, then a response stream).
func (c *Client) Search(ctx context.Context, authorization, orgHeaderKey, orgID string, req *query.FlightRequest) (*SearchStream, error) {
	md := metadata.Pairs("authorization", authorization)
	if orgHeaderKey != "" {
		md.Set(orgHeaderKey, orgID)
	}
	ctx = metadata.NewOutgoingContext(ctx, md)

	cs, err := c.cc.NewStream(ctx, searchStreamDesc, "/"+ServiceName+"/Search")
	if err != nil {
		return nil, fmt.Errorf("transport: opening search stream: %w", err)
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, fmt.Errorf("transport: sending flight request: %w", err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("transport: closing send side: %w", err)
	}
	return &SearchStream{ClientStream: cs}, nil
}

// SearchStream yields the schema frame, data frames, then the trailer
// frame, in order, terminating with io.EOF.
type SearchStream struct {
	grpc.ClientStream
}

func (s *SearchStream) Recv() (*Frame, error) {
	f := new(Frame)
	if err := s.ClientStream.RecvMsg(f); err != nil {
		return nil, err
	}
	return f, nil
}
