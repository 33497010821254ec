package meta

import "github.com/tinylib/msgp/msgp"

// AppendMsg appends k's msgpack encoding to out, hand-written against
// msgp's exported primitives (see puffin/blob.go, batch/batch_msgp.go
// for the same approach).
func (k FileKey) AppendMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 7)
	out = msgp.AppendString(out, "id")
	out = msgp.AppendString(out, k.ID)
	out = msgp.AppendString(out, "org")
	out = msgp.AppendString(out, k.Org)
	out = msgp.AppendString(out, "stream")
	out = msgp.AppendString(out, k.Stream)
	out = msgp.AppendString(out, "stream_type")
	out = msgp.AppendString(out, k.StreamType)
	out = msgp.AppendString(out, "min_ts")
	out = msgp.AppendInt64(out, k.MinTS)
	out = msgp.AppendString(out, "max_ts")
	out = msgp.AppendInt64(out, k.MaxTS)
	out = msgp.AppendString(out, "size")
	out = msgp.AppendInt64(out, k.Size)
	return out
}

func ReadFileKey(in []byte) (FileKey, []byte, error) {
	var k FileKey
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return k, in, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return k, in, err
		}
		switch key {
		case "id":
			k.ID, in, err = msgp.ReadStringBytes(in)
		case "org":
			k.Org, in, err = msgp.ReadStringBytes(in)
		case "stream":
			k.Stream, in, err = msgp.ReadStringBytes(in)
		case "stream_type":
			k.StreamType, in, err = msgp.ReadStringBytes(in)
		case "min_ts":
			k.MinTS, in, err = msgp.ReadInt64Bytes(in)
		case "max_ts":
			k.MaxTS, in, err = msgp.ReadInt64Bytes(in)
		case "size":
			k.Size, in, err = msgp.ReadInt64Bytes(in)
		}
		if err != nil {
			return k, in, err
		}
	}
	return k, in, nil
}

func (p PartitionKey) AppendMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 2)
	out = msgp.AppendString(out, "field_name")
	out = msgp.AppendString(out, p.Field)
	out = msgp.AppendString(out, "value")
	out = msgp.AppendString(out, p.Value)
	return out
}

func ReadPartitionKey(in []byte) (PartitionKey, []byte, error) {
	var p PartitionKey
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return p, in, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return p, in, err
		}
		switch key {
		case "field_name":
			p.Field, in, err = msgp.ReadStringBytes(in)
		case "value":
			p.Value, in, err = msgp.ReadStringBytes(in)
		}
		if err != nil {
			return p, in, err
		}
	}
	return p, in, nil
}

func (s ScanStats) AppendMsg(out []byte) []byte {
	out = msgp.AppendMapHeader(out, 5)
	out = msgp.AppendString(out, "files_scanned")
	out = msgp.AppendInt64(out, s.FilesScanned)
	out = msgp.AppendString(out, "original_size")
	out = msgp.AppendInt64(out, s.BytesOriginal)
	out = msgp.AppendString(out, "compressed_size")
	out = msgp.AppendInt64(out, s.BytesCompressed)
	out = msgp.AppendString(out, "records")
	out = msgp.AppendInt64(out, s.Records)
	out = msgp.AppendString(out, "idx_scan_size")
	out = msgp.AppendInt64(out, s.IdxScanSize)
	return out
}

func ReadScanStats(in []byte) (ScanStats, []byte, error) {
	var s ScanStats
	sz, in, err := msgp.ReadMapHeaderBytes(in)
	if err != nil {
		return s, in, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return s, in, err
		}
		switch key {
		case "files_scanned":
			s.FilesScanned, in, err = msgp.ReadInt64Bytes(in)
		case "original_size":
			s.BytesOriginal, in, err = msgp.ReadInt64Bytes(in)
		case "compressed_size":
			s.BytesCompressed, in, err = msgp.ReadInt64Bytes(in)
		case "records":
			s.Records, in, err = msgp.ReadInt64Bytes(in)
		case "idx_scan_size":
			s.IdxScanSize, in, err = msgp.ReadInt64Bytes(in)
		}
		if err != nil {
			return s, in, err
		}
	}
	return s, in, nil
}
