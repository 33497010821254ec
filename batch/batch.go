// Package batch stands in for "any equivalent columnar dataframe
// engine" (spec §4.4): a minimal typed-column record batch, carried over
// the leader<->leaf streaming RPC and schema-adapted at the leaf
// (spec §4.6 item 3).
/*
 * Copyright (c) 2024, shardql authors.
 */
package batch

// DataType is a column's declared scalar type.
type DataType uint8

const (
	Int64 DataType = iota
	Float64
	StringType
	Bool
	Timestamp // micros since epoch, stored as Int64 on the wire
)

// Field is one column's name and declared type, forming a schema.
type Field struct {
	Name string
	Type DataType
}

// Column is one typed column's data plus a null bitmap. Exactly one of
// the typed slices is populated, selected by Type.
type Column struct {
	Name    string
	Type    DataType
	Valid   []bool
	Ints    []int64
	Floats  []float64
	Strings []string
	Bools   []bool
}

func newColumn(f Field, numRows int) Column {
	c := Column{Name: f.Name, Type: f.Type, Valid: make([]bool, numRows)}
	switch f.Type {
	case Int64, Timestamp:
		c.Ints = make([]int64, numRows)
	case Float64:
		c.Floats = make([]float64, numRows)
	case StringType:
		c.Strings = make([]string, numRows)
	case Bool:
		c.Bools = make([]bool, numRows)
	}
	return c
}

// RecordBatch is one columnar batch: a schema plus column data, all
// columns the same length.
type RecordBatch struct {
	Schema  []Field
	Columns []Column
	NumRows int
}

// New allocates an all-null RecordBatch of numRows for schema.
func New(schema []Field, numRows int) *RecordBatch {
	cols := make([]Column, len(schema))
	for i, f := range schema {
		cols[i] = newColumn(f, numRows)
	}
	return &RecordBatch{Schema: schema, Columns: cols, NumRows: numRows}
}

func (b *RecordBatch) column(name string) (Column, bool) {
	for _, c := range b.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// AdaptToSchema reshapes src to exactly match schema: columns present in
// both with the same type are copied over, columns in schema but absent
// from src (or present with a different type) are filled with nulls of
// the declared type, and columns in src but not in
// schema are dropped (spec §4.6 item 3).
func AdaptToSchema(src *RecordBatch, schema []Field) *RecordBatch {
	out := New(schema, src.NumRows)
	for i, f := range schema {
		if srcCol, ok := src.column(f.Name); ok && srcCol.Type == f.Type {
			out.Columns[i] = srcCol
		}
		// else: left as the all-null column New() already allocated.
	}
	return out
}
