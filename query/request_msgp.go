package query

import (
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/shardql/shardql/meta"
)

func (e Envelope) AppendMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 9)
	out = msgp.AppendString(out, "trace_id")
	out = msgp.AppendString(out, e.TraceID)
	out = msgp.AppendString(out, "org")
	out = msgp.AppendString(out, e.Org)
	out = msgp.AppendString(out, "stream_type")
	out = msgp.AppendString(out, e.StreamType)
	out = msgp.AppendString(out, "start_time")
	out = msgp.AppendInt64(out, e.StartTime)
	out = msgp.AppendString(out, "end_time")
	out = msgp.AppendInt64(out, e.EndTime)
	out = msgp.AppendString(out, "timeout_ns")
	out = msgp.AppendInt64(out, int64(e.Timeout))
	out = msgp.AppendString(out, "work_group")
	out = msgp.AppendString(out, e.WorkGroup)
	out = msgp.AppendString(out, "user")
	out = msgp.AppendString(out, e.User)
	out = msgp.AppendString(out, "search_event_type")
	out = msgp.AppendString(out, e.SearchEventType)
	return out
}

func readEnvelope(in []byte) (Envelope, []byte, error) {
	var e Envelope
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return e, in, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return e, in, err
		}
		switch key {
		case "trace_id":
			e.TraceID, in, err = msgp.ReadStringBytes(in)
		case "org":
			e.Org, in, err = msgp.ReadStringBytes(in)
		case "stream_type":
			e.StreamType, in, err = msgp.ReadStringBytes(in)
		case "start_time":
			e.StartTime, in, err = msgp.ReadInt64Bytes(in)
		case "end_time":
			e.EndTime, in, err = msgp.ReadInt64Bytes(in)
		case "timeout_ns":
			var ns int64
			ns, in, err = msgp.ReadInt64Bytes(in)
			e.Timeout = time.Duration(ns)
		case "work_group":
			e.WorkGroup, in, err = msgp.ReadStringBytes(in)
		case "user":
			e.User, in, err = msgp.ReadStringBytes(in)
		case "search_event_type":
			e.SearchEventType, in, err = msgp.ReadStringBytes(in)
		}
		if err != nil {
			return e, in, err
		}
	}
	return e, in, nil
}

// MarshalMsg appends r's msgpack encoding to out.
func (r *FlightRequest) MarshalMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 7)
	out = msgp.AppendString(out, "envelope")
	out = r.Envelope.AppendMsg(out)
	out = msgp.AppendString(out, "partition")
	out = msgp.AppendInt(out, r.Partition)
	out = msgp.AppendString(out, "plan")
	out = msgp.AppendBytes(out, r.Plan)
	out = msgp.AppendString(out, "file_list")
	out = msgp.AppendArrayHeader(out, uint32(len(r.FileList)))
	for _, f := range r.FileList {
		out = f.AppendMsg(out)
	}
	out = msgp.AppendString(out, "partition_keys")
	out = msgp.AppendArrayHeader(out, uint32(len(r.PartitionKeys)))
	for _, p := range r.PartitionKeys {
		out = p.AppendMsg(out)
	}
	out = msgp.AppendString(out, "match_all_keys")
	out = msgp.AppendArrayHeader(out, uint32(len(r.MatchAllKeys)))
	for _, k := range r.MatchAllKeys {
		out = msgp.AppendString(out, k)
	}
	out = msgp.AppendString(out, "is_leader")
	out = msgp.AppendBool(out, r.IsLeader)
	return out
}

// UnmarshalFlightRequest parses a FlightRequest from the head of in,
// returning the unconsumed remainder.
func UnmarshalFlightRequest(in []byte) (*FlightRequest, []byte, error) {
	var r FlightRequest
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return nil, in, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return nil, in, err
		}
		switch key {
		case "envelope":
			r.Envelope, in, err = readEnvelope(in)
		case "partition":
			r.Partition, in, err = msgp.ReadIntBytes(in)
		case "plan":
			r.Plan, in, err = msgp.ReadBytesBytes(in, nil)
		case "file_list":
			var n uint32
			n, in, err = msgp.ReadArrayHeaderBytes(in)
			if err != nil {
				break
			}
			r.FileList = make([]meta.FileKey, n)
			for j := range r.FileList {
				r.FileList[j], in, err = meta.ReadFileKey(in)
				if err != nil {
					break
				}
			}
		case "partition_keys":
			var n uint32
			n, in, err = msgp.ReadArrayHeaderBytes(in)
			if err != nil {
				break
			}
			r.PartitionKeys = make([]meta.PartitionKey, n)
			for j := range r.PartitionKeys {
				r.PartitionKeys[j], in, err = meta.ReadPartitionKey(in)
				if err != nil {
					break
				}
			}
		case "match_all_keys":
			var n uint32
			n, in, err = msgp.ReadArrayHeaderBytes(in)
			if err != nil {
				break
			}
			r.MatchAllKeys = make([]string, n)
			for j := range r.MatchAllKeys {
				r.MatchAllKeys[j], in, err = msgp.ReadStringBytes(in)
				if err != nil {
					break
				}
			}
		case "is_leader":
			r.IsLeader, in, err = msgp.ReadBoolBytes(in)
		}
		if err != nil {
			return nil, in, err
		}
	}
	return &r, in, nil
}
