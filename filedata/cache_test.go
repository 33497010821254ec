package filedata

import (
	"context"
	"errors"
	"testing"

	"github.com/shardql/shardql/internal/tassert"
)

type fakeStorage struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeStorage) GetRange(_ context.Context, _ string, _ ByteRange) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func TestGetPopulatesAndHits(t *testing.T) {
	fs := &fakeStorage{data: []byte("hello world")}
	c := New(TierConfig{Capacity: 1 << 20, Policy: PolicyLRU}, TierConfig{}, fs)

	r := ByteRange{Offset: 0, Length: 11}
	b, err := c.Get(context.Background(), "f1", r)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, string(b) == "hello world", "unexpected bytes: %q", b)
	tassert.Fatalf(t, fs.calls == 1, "expected one storage call, got %d", fs.calls)

	_, err = c.Get(context.Background(), "f1", r)
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, fs.calls == 1, "second get should have hit cache, storage called %d times", fs.calls)
}

func TestStorageErrorBubblesUnchanged(t *testing.T) {
	sentinel := errors.New("boom")
	fs := &fakeStorage{err: sentinel}
	c := New(TierConfig{Capacity: 1 << 20, Policy: PolicyLRU}, TierConfig{}, fs)

	_, err := c.Get(context.Background(), "f1", ByteRange{Length: 4})
	tassert.Fatalf(t, errors.Is(err, sentinel), "expected sentinel error, got %v", err)
}

func TestCapacityEvictsOldest(t *testing.T) {
	fs := &fakeStorage{}
	c := New(TierConfig{Capacity: 10, Policy: PolicyLRU}, TierConfig{}, fs)

	c.memory.put("a", []byte("12345"))
	c.memory.put("b", []byte("12345"))
	tassert.Fatalf(t, c.memory.len() == 2, "expected 2 entries, got %d", c.memory.len())

	// Touch "a" so "b" becomes the LRU victim, then insert "c" to force
	// eviction.
	c.memory.get("a")
	c.memory.put("c", []byte("12345"))

	tassert.Fatalf(t, c.memory.strat.contains("a"), "a should survive (recently touched)")
	tassert.Fatalf(t, !c.memory.strat.contains("b"), "b should have been evicted")
	tassert.Fatalf(t, c.memory.strat.contains("c"), "c should be present")
}

func TestFIFOEvictsInsertionOrder(t *testing.T) {
	fs := &fakeStorage{}
	c := New(TierConfig{Capacity: 10, Policy: PolicyFIFO}, TierConfig{}, fs)

	c.memory.put("a", []byte("12345"))
	c.memory.put("b", []byte("12345"))
	// Access "a" repeatedly; FIFO order must not change on access.
	c.memory.get("a")
	c.memory.get("a")
	c.memory.put("c", []byte("12345"))

	tassert.Fatalf(t, !c.memory.strat.contains("a"), "a should have been evicted despite recent access (FIFO)")
	tassert.Fatalf(t, c.memory.strat.contains("b"), "b should survive")
	tassert.Fatalf(t, c.memory.strat.contains("c"), "c should be present")
}

func TestOversizedBlobBypassesTier(t *testing.T) {
	fs := &fakeStorage{data: make([]byte, 100)}
	c := New(TierConfig{Capacity: 10, Policy: PolicyLRU}, TierConfig{}, fs)

	_, err := c.Get(context.Background(), "big", ByteRange{Length: 100})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, c.memory.len() == 0, "oversized blob should bypass the tier, got %d entries", c.memory.len())
}
