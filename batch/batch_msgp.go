package batch

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg appends b's msgpack encoding to the given buffer. Hand-
// written against msgp's exported Append primitives, the same
// primitives the msgp code generator itself emits calls to, since the
// generator isn't run here (cmn/objlist_gen.go is the teacher's
// generated equivalent).
func (b *RecordBatch) MarshalMsg(out []byte) []byte {
	out = msgp.AppendArrayHeader(out, uint32(len(b.Schema)))
	for _, f := range b.Schema {
		out = msgp.AppendString(out, f.Name)
		out = msgp.AppendUint8(out, uint8(f.Type))
	}
	out = msgp.AppendInt(out, b.NumRows)
	out = msgp.AppendArrayHeader(out, uint32(len(b.Columns)))
	for _, c := range b.Columns {
		out = appendColumn(out, c)
	}
	return out
}

func appendColumn(out []byte, c Column) []byte {
	out = msgp.AppendString(out, c.Name)
	out = msgp.AppendUint8(out, uint8(c.Type))
	out = msgp.AppendArrayHeader(out, uint32(len(c.Valid)))
	for _, v := range c.Valid {
		out = msgp.AppendBool(out, v)
	}
	switch c.Type {
	case Int64, Timestamp:
		out = msgp.AppendArrayHeader(out, uint32(len(c.Ints)))
		for _, v := range c.Ints {
			out = msgp.AppendInt64(out, v)
		}
	case Float64:
		out = msgp.AppendArrayHeader(out, uint32(len(c.Floats)))
		for _, v := range c.Floats {
			out = msgp.AppendFloat64(out, v)
		}
	case StringType:
		out = msgp.AppendArrayHeader(out, uint32(len(c.Strings)))
		for _, v := range c.Strings {
			out = msgp.AppendString(out, v)
		}
	case Bool:
		out = msgp.AppendArrayHeader(out, uint32(len(c.Bools)))
		for _, v := range c.Bools {
			out = msgp.AppendBool(out, v)
		}
	}
	return out
}

// UnmarshalMsg parses a RecordBatch from the head of in, returning the
// unconsumed remainder.
func UnmarshalMsg(in []byte) (*RecordBatch, []byte, error) {
	n, in, err := msgp.ReadArrayHeaderBytes(in)
	if err != nil {
		return nil, in, fmt.Errorf("batch: reading schema header: %w", err)
	}
	schema := make([]Field, n)
	for i := range schema {
		schema[i].Name, in, err = msgp.ReadStringBytes(in)
		if err != nil {
			return nil, in, fmt.Errorf("batch: reading field name: %w", err)
		}
		var t uint8
		t, in, err = msgp.ReadUint8Bytes(in)
		if err != nil {
			return nil, in, fmt.Errorf("batch: reading field type: %w", err)
		}
		schema[i].Type = DataType(t)
	}
	numRows, in, err := msgp.ReadIntBytes(in)
	if err != nil {
		return nil, in, fmt.Errorf("batch: reading num_rows: %w", err)
	}
	numCols, in, err := msgp.ReadArrayHeaderBytes(in)
	if err != nil {
		return nil, in, fmt.Errorf("batch: reading columns header: %w", err)
	}
	cols := make([]Column, numCols)
	for i := range cols {
		cols[i], in, err = readColumn(in)
		if err != nil {
			return nil, in, fmt.Errorf("batch: reading column %d: %w", i, err)
		}
	}
	return &RecordBatch{Schema: schema, Columns: cols, NumRows: numRows}, in, nil
}

func readColumn(in []byte) (Column, []byte, error) {
	var c Column
	var err error
	c.Name, in, err = msgp.ReadStringBytes(in)
	if err != nil {
		return c, in, err
	}
	var t uint8
	t, in, err = msgp.ReadUint8Bytes(in)
	if err != nil {
		return c, in, err
	}
	c.Type = DataType(t)

	var n uint32
	n, in, err = msgp.ReadArrayHeaderBytes(in)
	if err != nil {
		return c, in, err
	}
	c.Valid = make([]bool, n)
	for i := range c.Valid {
		c.Valid[i], in, err = msgp.ReadBoolBytes(in)
		if err != nil {
			return c, in, err
		}
	}

	n, in, err = msgp.ReadArrayHeaderBytes(in)
	if err != nil {
		return c, in, err
	}
	switch c.Type {
	case Int64, Timestamp:
		c.Ints = make([]int64, n)
		for i := range c.Ints {
			c.Ints[i], in, err = msgp.ReadInt64Bytes(in)
			if err != nil {
				return c, in, err
			}
		}
	case Float64:
		c.Floats = make([]float64, n)
		for i := range c.Floats {
			c.Floats[i], in, err = msgp.ReadFloat64Bytes(in)
			if err != nil {
				return c, in, err
			}
		}
	case StringType:
		c.Strings = make([]string, n)
		for i := range c.Strings {
			c.Strings[i], in, err = msgp.ReadStringBytes(in)
			if err != nil {
				return c, in, err
			}
		}
	case Bool:
		c.Bools = make([]bool, n)
		for i := range c.Bools {
			c.Bools[i], in, err = msgp.ReadBoolBytes(in)
			if err != nil {
				return c, in, err
			}
		}
	}
	return c, in, nil
}
