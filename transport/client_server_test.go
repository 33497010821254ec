package transport

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/internal/tassert"
	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/query"
)

type echoServer struct {
	stats meta.ScanStats
}

func (e *echoServer) Search(_ context.Context, req *query.FlightRequest, send func(*Frame) error) error {
	if err := send(&Frame{Kind: FrameSchema, Schema: []batch.Field{{Name: "ts", Type: batch.Timestamp}}}); err != nil {
		return err
	}
	rb := batch.New([]batch.Field{{Name: "ts", Type: batch.Timestamp}}, 1)
	rb.Columns[0].Ints[0] = req.Envelope.StartTime
	rb.Columns[0].Valid[0] = true
	if err := send(&Frame{Kind: FrameData, Batch: rb}); err != nil {
		return err
	}
	return send(&Frame{Kind: FrameTrailer, Stats: meta.ScanStats{FilesScanned: int64(len(req.FileList))}})
}

func dialBufconn(t *testing.T) (*Client, func()) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(AuthConfig{OrgHeaderKey: "x-shardql-org-id"}, 0)
	RegisterServer(srv, &echoServer{})
	go func() { _ = srv.Serve(lis) }()

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{}), grpc.UseCompressor("gzip")),
	)
	tassert.CheckFatal(t, err)

	return &Client{cc: cc}, func() { _ = cc.Close(); srv.Stop() }
}

func TestSearchStreamRoundTrip(t *testing.T) {
	client, cleanup := dialBufconn(t)
	defer cleanup()

	req := &query.FlightRequest{
		Envelope: query.Envelope{TraceID: "t1", StartTime: 1000, EndTime: 2000},
		FileList: []meta.FileKey{{ID: "f1"}, {ID: "f2"}},
	}
	stream, err := client.Search(context.Background(), "Bearer test", "x-shardql-org-id", "org1", req)
	tassert.CheckFatal(t, err)

	schemaFrame, err := stream.Recv()
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, schemaFrame.Kind == FrameSchema, "expected first frame to be schema")

	dataFrame, err := stream.Recv()
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, dataFrame.Kind == FrameData, "expected second frame to be data")
	tassert.Fatalf(t, dataFrame.Batch.Columns[0].Ints[0] == 1000, "unexpected echoed start_time: %v", dataFrame.Batch.Columns[0].Ints)

	trailerFrame, err := stream.Recv()
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, trailerFrame.Kind == FrameTrailer, "expected third frame to be trailer")
	tassert.Fatalf(t, trailerFrame.Stats.FilesScanned == 2, "expected files_scanned=2, got %d", trailerFrame.Stats.FilesScanned)
}

func TestMissingAuthRejected(t *testing.T) {
	client, cleanup := dialBufconn(t)
	defer cleanup()

	// NewStream directly, bypassing Client.Search's metadata attachment,
	// so the server's auth interceptor sees no authorization metadata.
	cs, err := client.cc.NewStream(context.Background(), searchStreamDesc, "/"+ServiceName+"/Search")
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, cs.SendMsg(&query.FlightRequest{}))
	tassert.CheckFatal(t, cs.CloseSend())

	f := new(Frame)
	err = cs.RecvMsg(f)
	tassert.Fatalf(t, err != nil, "expected the auth interceptor to reject the unauthenticated stream")
}
