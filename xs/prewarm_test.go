package xs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shardql/shardql/internal/tassert"
	"github.com/shardql/shardql/meta"
)

type fakeDownloader struct {
	calls   int64
	failIDs map[string]bool
}

func (f *fakeDownloader) Download(_ context.Context, fileID string) error {
	atomic.AddInt64(&f.calls, 1)
	if f.failIDs[fileID] {
		return errors.New("boom")
	}
	return nil
}

func TestPrewarmDownloadsEveryFile(t *testing.T) {
	dl := &fakeDownloader{}
	files := []meta.FileKey{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	p := NewPrewarm("u1", dl, files, 2)
	p.Run(context.Background())
	tassert.CheckFatal(t, p.Wait())

	tassert.Fatalf(t, atomic.LoadInt64(&dl.calls) == 3, "expected 3 downloads, got %d", dl.calls)
	ok, failed := p.Stats()
	tassert.Fatalf(t, ok == 3 && failed == 0, "expected 3 ok/0 failed, got %d/%d", ok, failed)
}

func TestPrewarmContinuesPastPerFileErrors(t *testing.T) {
	dl := &fakeDownloader{failIDs: map[string]bool{"b": true}}
	files := []meta.FileKey{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	p := NewPrewarm("u2", dl, files, 1)
	p.Run(context.Background())
	err := p.Wait()
	tassert.Fatalf(t, err != nil, "expected Wait to surface the per-file error")

	ok, failed := p.Stats()
	tassert.Fatalf(t, ok == 2 && failed == 1, "expected 2 ok/1 failed, got %d/%d", ok, failed)
}

func TestPrewarmDefaultsConcurrency(t *testing.T) {
	dl := &fakeDownloader{}
	p := NewPrewarm("u3", dl, []meta.FileKey{{ID: "a"}}, 0)
	p.Run(context.Background())
	tassert.CheckFatal(t, p.Wait())
}
