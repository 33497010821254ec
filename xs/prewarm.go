// Package xs contains shardql's background extended actions (xactions):
// long-running, cancellable jobs that run outside the request path.
// Prewarm is the only one today, pulling a stream's files into
// FileDataCache ahead of query time.
/*
 * Copyright (c) 2024, shardql authors.
 */
package xs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/shardql/shardql/cmn/nlog"
	"github.com/shardql/shardql/filedata"
	"github.com/shardql/shardql/meta"
)

// Downloader is the subset of *filedata.Cache a Prewarm xaction needs,
// named so tests can substitute a fake without pulling in a real cache.
type Downloader interface {
	Download(ctx context.Context, fileID string) error
}

var _ Downloader = (*filedata.Cache)(nil)

// Prewarm is an xaction (in the teacher's sense: a named, independently
// lifecycled background job — see the original xactLLC, which jogs a
// bucket's objects into the LOM cache) that pulls a fixed list of files
// into FileDataCache with bounded concurrency. Unlike xactLLC it needs no
// cluster/mountpath jogger group: the work unit is a flat file list, not
// a bucket walk, so a semaphore-bounded goroutine pool is enough.
type Prewarm struct {
	uuid    string
	cache   Downloader
	files   []meta.FileKey
	sem      *semaphore.Weighted
	done     chan struct{}
	err      error
	okCount  int64
	errCount int64
}

// NewPrewarm constructs a Prewarm xaction for uuid, downloading files
// into cache with at most concurrency simultaneous fetches.
func NewPrewarm(uuid string, cache Downloader, files []meta.FileKey, concurrency int) *Prewarm {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Prewarm{
		uuid:  uuid,
		cache: cache,
		files: files,
		sem:   semaphore.NewWeighted(int64(concurrency)),
		done:  make(chan struct{}),
	}
}

// Run starts the xaction's goroutine pool and returns immediately; call
// Wait to block until it finishes. Safe to call once.
func (p *Prewarm) Run(ctx context.Context) {
	go p.run(ctx)
}

func (p *Prewarm) run(ctx context.Context) {
	defer close(p.done)

	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for _, f := range p.files {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(f meta.FileKey) {
			defer wg.Done()
			defer p.sem.Release(1)
			if err := p.cache.Download(ctx, f.ID); err != nil {
				atomic.AddInt64(&p.errCount, 1)
				nlog.Warningf("prewarm[%s]: file %s: %v", p.uuid, f.String(), err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			atomic.AddInt64(&p.okCount, 1)
		}(f)
	}
	wg.Wait()
	p.err = firstErr
	nlog.Infof("prewarm[%s]: done, %d ok, %d failed", p.uuid, atomic.LoadInt64(&p.okCount), atomic.LoadInt64(&p.errCount))
}

// Wait blocks until the xaction finishes and returns the first file
// error encountered, if any. A partial failure does not abort the rest
// of the file list: every file is attempted exactly once.
func (p *Prewarm) Wait() error {
	<-p.done
	return p.err
}

// Stats reports files successfully warmed and files that failed.
func (p *Prewarm) Stats() (ok, failed int64) {
	return atomic.LoadInt64(&p.okCount), atomic.LoadInt64(&p.errCount)
}

func (p *Prewarm) String() string {
	ok, failed := p.Stats()
	return fmt.Sprintf("prewarm[%s]: %d files, %d ok, %d failed", p.uuid, len(p.files), ok, failed)
}
