package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/filedata"
	"github.com/shardql/shardql/internal/tassert"
	"github.com/shardql/shardql/leaf"
	"github.com/shardql/shardql/puffin"
)

func TestLoadSchemasParsesTypeNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	tassert.CheckFatal(t, os.WriteFile(path, []byte(`
events:
  - name: _timestamp
    type: timestamp
  - name: host
    type: string
  - name: count
    type: int64
`), 0o644))

	schemas, err := loadSchemas(path)
	tassert.CheckFatal(t, err)
	fields, ok := schemas["events"]
	tassert.Fatalf(t, ok, "expected an 'events' schema entry")
	tassert.Fatalf(t, len(fields) == 3, "expected 3 fields, got %d", len(fields))
	tassert.Fatalf(t, fields[0].Type == batch.Timestamp, "expected first field timestamp")

	resolver := staticSchemaResolver(schemas)
	got, err := resolver.Schema("events")
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(got) == 3, "resolver returned wrong field count")

	_, err = resolver.Schema("missing")
	tassert.Fatalf(t, err != nil, "expected an error for an unconfigured table")
}

func TestFsStorageGetRange(t *testing.T) {
	dir := t.TempDir()
	tassert.CheckFatal(t, os.WriteFile(filepath.Join(dir, "f1"), []byte("hello world"), 0o644))
	s := fsStorage{root: dir}

	whole, err := s.GetRange(context.Background(), "f1", filedata.ByteRange{Length: -1})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, string(whole) == "hello world", "unexpected whole-file read: %q", whole)

	partial, err := s.GetRange(context.Background(), "f1", filedata.ByteRange{Offset: 6, Length: 5})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, string(partial) == "world", "unexpected range read: %q", partial)
}

func TestFsPuffinLoaderMissingFileIsNotFound(t *testing.T) {
	l := fsPuffinLoader{root: t.TempDir()}
	_, ok, err := l.Load(context.Background(), "nope")
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, !ok, "expected ok=false for a file with no puffin companion")
}

func TestRebuildPuffinIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	schema := []batch.Field{{Name: "host", Type: batch.StringType}}
	rb := batch.New(schema, 2)
	rb.Columns[0].Valid[0], rb.Columns[0].Strings[0] = true, "web-1"
	rb.Columns[0].Valid[1], rb.Columns[0].Strings[1] = true, "web-2"

	batchPath := filepath.Join(dir, "f1.batch")
	tassert.CheckFatal(t, os.WriteFile(batchPath, rb.MarshalMsg(nil), 0o644))

	outPath := filepath.Join(dir, "f1.puffin")
	tassert.CheckFatal(t, rebuildPuffinIndex(batchPath, outPath, nil, []string{"host"}, false))

	raw, err := os.ReadFile(outPath)
	tassert.CheckFatal(t, err)
	pdir, err := puffin.FromBytes(raw)
	tassert.CheckFatal(t, err)
	blob, ok := pdir.OpenRead("segment.term")
	tassert.Fatalf(t, ok, "expected segment.term to be present")

	postings, err := leaf.DecodePostings(blob)
	tassert.CheckFatal(t, err)
	ids := postings[leaf.PartitionKeyTerm("host", "web-1")]
	tassert.Fatalf(t, len(ids) == 1 && ids[0] == 0, "expected row 0 indexed under host=web-1, got %v", ids)
}
