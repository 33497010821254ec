package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/shardql/shardql/query"
)

// ServiceName is this package's gRPC service path, used even without a
// .proto file since ServiceDesc only needs a name and a registered
// handler, not generated stubs.
const ServiceName = "shardql.transport.LeafService"

// LeafServer is implemented by whatever runs the Search RPC on the
// server side; in this repository that is leaf.Executor. A peer cluster
// is reached through the same Search RPC; supercluster.Leader is a client
// of it and does not implement LeafServer.
type LeafServer interface {
	// Search handles one FlightRequest, calling send for the schema
	// frame, each data frame, and finally the trailer frame, in that
	// order. A non-nil return aborts the stream with that error.
	Search(ctx context.Context, req *query.FlightRequest, send func(*Frame) error) error
}

func searchStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	impl, ok := srv.(LeafServer)
	if !ok {
		return fmt.Errorf("transport: handler registered with a non-LeafServer implementation")
	}
	req := new(query.FlightRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return impl.Search(stream.Context(), req, func(f *Frame) error {
		return stream.SendMsg(f)
	})
}

// ServiceDesc is the hand-built equivalent of a protoc-generated
// _grpc.pb.go ServiceDesc: one bidirectional-streaming method, Search.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LeafServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Search",
			Handler:       searchStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "shardql/transport.proto",
}
