// Package puffin implements PuffinIndexDirectory (spec §4.2): a
// content-addressable blob container that packs an inverted-index
// segment's files into a single object, and an in-memory Directory that
// reconstitutes them for predicate pushdown at leaf scan time.
/*
 * Copyright (c) 2024, shardql authors.
 */
package puffin

import (
	"encoding/binary"
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// IndexVersion is carried on every blob, matching the original's
// "TIIv0.1.0" tag (tantivy_inverted_index.rs).
const IndexVersion = "TIIv0.1.0"

var magic = [4]byte{'P', 'U', 'F', '1'}

// blobMeta is one blob's footer entry: its location within the payload
// section plus its properties. Hand-written msgp encoding, mirroring
// the teacher's own generated cmn/objlist_gen.go rather than running the
// msgp code generator.
type blobMeta struct {
	Offset     uint64
	Length     uint64
	FileName   string
	Version    string
	Compressed bool
}

func (m *blobMeta) appendMsg(b []byte) []byte {
	b = msgp.AppendMapHeader(b, 5)
	b = msgp.AppendString(b, "offset")
	b = msgp.AppendUint64(b, m.Offset)
	b = msgp.AppendString(b, "length")
	b = msgp.AppendUint64(b, m.Length)
	b = msgp.AppendString(b, "file_name")
	b = msgp.AppendString(b, m.FileName)
	b = msgp.AppendString(b, "version")
	b = msgp.AppendString(b, m.Version)
	b = msgp.AppendString(b, "compressed")
	b = msgp.AppendBool(b, m.Compressed)
	return b
}

func readBlobMeta(b []byte) (m blobMeta, rest []byte, err error) {
	var sz uint32
	sz, b, err = msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return m, b, err
	}
	for i := uint32(0); i < sz; i++ {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return m, b, err
		}
		switch key {
		case "offset":
			m.Offset, b, err = msgp.ReadUint64Bytes(b)
		case "length":
			m.Length, b, err = msgp.ReadUint64Bytes(b)
		case "file_name":
			m.FileName, b, err = msgp.ReadStringBytes(b)
		case "version":
			m.Version, b, err = msgp.ReadStringBytes(b)
		case "compressed":
			m.Compressed, b, err = msgp.ReadBoolBytes(b)
		default:
			err = fmt.Errorf("puffin: unknown footer field %q", key)
		}
		if err != nil {
			return m, b, err
		}
	}
	return m, b, nil
}

func appendFooterLen(b []byte, n uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], n)
	return append(b, tmp[:]...)
}
