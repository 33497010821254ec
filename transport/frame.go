// Package transport implements the leader<->leaf and leader<->super-
// cluster-peer wire protocol (spec §6): a bidirectional streaming RPC
// over gRPC carrying a schema message, then record-batch frames, then a
// trailer carrying scan-stats and a partial_err flag.
/*
 * Copyright (c) 2024, shardql authors.
 */
package transport

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/meta"
)

// FrameKind tags which of Frame's payloads is populated.
type FrameKind uint8

const (
	FrameSchema FrameKind = iota
	FrameData
	FrameTrailer
)

// Frame is one message on the Search stream (spec §6: "first message is
// the schema; each subsequent message is one record batch; trailing
// metadata carries scan-stats and a partial_err boolean").
type Frame struct {
	Kind FrameKind

	Schema []batch.Field    // FrameSchema
	Batch  *batch.RecordBatch // FrameData

	Stats      meta.ScanStats // FrameTrailer
	PartialErr bool           // FrameTrailer
	ErrMessage string         // FrameTrailer, empty unless PartialErr
}

func (f *Frame) MarshalMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 2)
	out = msgp.AppendString(out, "kind")
	out = msgp.AppendUint8(out, uint8(f.Kind))
	out = msgp.AppendString(out, "body")
	switch f.Kind {
	case FrameSchema:
		out = msgp.AppendArrayHeader(out, uint32(len(f.Schema)))
		for _, fl := range f.Schema {
			out = msgp.AppendString(out, fl.Name)
			out = msgp.AppendUint8(out, uint8(fl.Type))
		}
	case FrameData:
		out = f.Batch.MarshalMsg(out)
	case FrameTrailer:
		out = f.Stats.AppendMsg(out)
		out = msgp.AppendBool(out, f.PartialErr)
		out = msgp.AppendString(out, f.ErrMessage)
	}
	return out
}

func UnmarshalFrame(in []byte) (*Frame, []byte, error) {
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return nil, in, err
	}
	if sz != 2 {
		return nil, in, fmt.Errorf("transport: unexpected frame field count %d", sz)
	}
	f := &Frame{}
	var key string
	key, in, err = msgp.ReadStringBytes(in)
	if err != nil || key != "kind" {
		return nil, in, fmt.Errorf("transport: malformed frame header")
	}
	var kind uint8
	kind, in, err = msgp.ReadUint8Bytes(in)
	if err != nil {
		return nil, in, err
	}
	f.Kind = FrameKind(kind)

	key, in, err = msgp.ReadStringBytes(in)
	if err != nil || key != "body" {
		return nil, in, fmt.Errorf("transport: malformed frame body")
	}

	switch f.Kind {
	case FrameSchema:
		var n uint32
		n, in, err = msgp.ReadArrayHeaderBytes(in)
		if err != nil {
			return nil, in, err
		}
		f.Schema = make([]batch.Field, n)
		for i := range f.Schema {
			f.Schema[i].Name, in, err = msgp.ReadStringBytes(in)
			if err != nil {
				return nil, in, err
			}
			var t uint8
			t, in, err = msgp.ReadUint8Bytes(in)
			if err != nil {
				return nil, in, err
			}
			f.Schema[i].Type = batch.DataType(t)
		}
	case FrameData:
		f.Batch, in, err = batch.UnmarshalMsg(in)
		if err != nil {
			return nil, in, err
		}
	case FrameTrailer:
		f.Stats, in, err = meta.ReadScanStats(in)
		if err != nil {
			return nil, in, err
		}
		f.PartialErr, in, err = msgp.ReadBoolBytes(in)
		if err != nil {
			return nil, in, err
		}
		f.ErrMessage, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return nil, in, err
		}
	default:
		return nil, in, fmt.Errorf("transport: unknown frame kind %d", f.Kind)
	}
	return f, in, nil
}
