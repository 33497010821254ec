package transport

import (
	"fmt"

	"github.com/shardql/shardql/query"
)

// Codec is a gRPC wire codec over hand-written msgp encoding instead of
// protobuf: no .proto file is compiled here, since the only message
// types on this service (query.FlightRequest, Frame) are shardql's own,
// encoded exactly like puffin and batch elsewhere in this repo. Forced
// via grpc.ForceCodec/grpc.ForceServerCodec rather than registered
// globally, so it never collides with a real protobuf-based service
// sharing the same process.
type Codec struct{}

func (Codec) Name() string { return "shardql-msgp" }

func (Codec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *query.FlightRequest:
		return m.MarshalMsg(nil), nil
	case *Frame:
		return m.MarshalMsg(nil), nil
	default:
		return nil, fmt.Errorf("transport: codec cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case *query.FlightRequest:
		out, rest, err := query.UnmarshalFlightRequest(data)
		if err != nil {
			return err
		}
		if len(rest) != 0 {
			return fmt.Errorf("transport: %d trailing bytes after FlightRequest", len(rest))
		}
		*m = *out
		return nil
	case *Frame:
		out, rest, err := UnmarshalFrame(data)
		if err != nil {
			return err
		}
		if len(rest) != 0 {
			return fmt.Errorf("transport: %d trailing bytes after Frame", len(rest))
		}
		*m = *out
		return nil
	default:
		return fmt.Errorf("transport: codec cannot unmarshal into %T", v)
	}
}
