package puffin

import (
	"testing"

	"github.com/shardql/shardql/internal/tassert"
)

func TestRoundTripByteIdentical(t *testing.T) {
	d := New()
	tassert.CheckFatal(t, d.OpenWrite("seg1.term", []byte("term-bytes")))
	tassert.CheckFatal(t, d.OpenWrite("seg1.idx", []byte("idx-bytes")))
	tassert.CheckFatal(t, d.OpenWrite("seg1.pos", []byte("pos-bytes")))
	tassert.CheckFatal(t, d.OpenWrite(metaJSONName, []byte(`{"segment_id":"seg1"}`)))

	raw, err := d.ToPuffinBytes()
	tassert.CheckFatal(t, err)

	out, err := FromBytes(raw)
	tassert.CheckFatal(t, err)

	for _, name := range []string{"seg1.term", "seg1.idx", "seg1.pos", metaJSONName} {
		orig, ok := d.OpenRead(name)
		tassert.Fatalf(t, ok, "source missing %s", name)
		got, ok := out.OpenRead(name)
		tassert.Fatalf(t, ok, "round-trip missing %s", name)
		tassert.Fatalf(t, string(orig) == string(got), "%s not byte-identical: %q vs %q", name, orig, got)
	}
}

func TestEmptyTemplatePadding(t *testing.T) {
	d := New()
	tassert.CheckFatal(t, d.OpenWrite("seg1.term", []byte("only-term")))

	raw, err := d.ToPuffinBytes()
	tassert.CheckFatal(t, err)

	out, err := FromBytes(raw)
	tassert.CheckFatal(t, err)

	for _, name := range []string{"seg1.term", "seg1.idx", "seg1.pos", metaJSONName} {
		tassert.Fatalf(t, out.Exists(name), "expected padded file %s", name)
	}
	// The padded files must come from the empty-index template, not from
	// the source directory (which never had them).
	idx, _ := out.OpenRead("seg1.idx")
	tassert.Fatalf(t, len(idx) == 0, "expected empty-template idx bytes, got %d bytes", len(idx))
}

func TestDisallowedExtensionDropped(t *testing.T) {
	d := New()
	tassert.CheckFatal(t, d.OpenWrite("seg1.term", []byte("t")))
	tassert.CheckFatal(t, d.OpenWrite("seg1.fieldnorm", []byte("should not be packed")))

	raw, err := d.ToPuffinBytes()
	tassert.CheckFatal(t, err)
	out, err := FromBytes(raw)
	tassert.CheckFatal(t, err)

	tassert.Fatalf(t, !out.Exists("seg1.fieldnorm"), "disallowed extension should have been dropped")
}
