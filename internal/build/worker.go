package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// progress counts finished posts across workers.
type progress struct {
	built   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (p *progress) record(kind resultKind) {
	switch kind {
	case resultBuilt:
		p.built.Add(1)
	case resultCached, resultDraft:
		p.skipped.Add(1)
	case resultFailed:
		p.failed.Add(1)
	}
}

func (p *progress) done() int64 {
	return p.built.Load() + p.skipped.Load() + p.failed.Load()
}

// runParallel fans paths out to threads workers. The queue is filled and
// closed before any worker starts, so workers stop once it is drained.
func (s *session) runParallel(ctx context.Context, paths []string, threads int) []fileResult {
	queue := make(chan string, len(paths))
	for _, p := range paths {
		queue <- p
	}
	close(queue)

	results := make(chan fileResult, len(paths))
	var prog progress
	var wg sync.WaitGroup

	for i := range threads {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			wctx := observability.WithWorker(ctx, name)
			w := s.newWorker()
			for path := range queue {
				r := s.process(wctx, w, path)
				prog.record(r.kind)
				observability.DebugContext(wctx, "Processed post",
					logfields.Path(path),
					logfields.Reason(string(r.kind)),
					logfields.Count(int(prog.done())))
				results <- r
			}
		}(fmt.Sprintf("worker-%d", i))
	}

	wg.Wait()
	close(results)

	out := make([]fileResult, 0, len(paths))
	for r := range results {
		out = append(out, r)
	}
	observability.InfoContext(ctx, "Render pass complete",
		logfields.Count(int(prog.done())),
		slog.Int("threads", threads))
	return out
}

// runSequential processes paths in order on the calling goroutine, printing
// a line per post as it goes.
func (s *session) runSequential(ctx context.Context, paths []string, out io.Writer) []fileResult {
	w := s.newWorker()
	results := make([]fileResult, 0, len(paths))
	for _, path := range paths {
		r := s.process(ctx, w, path)
		switch r.kind {
		case resultCached:
			_, _ = fmt.Fprintf(out, "⏭  Skipping (unchanged): %s\n", path)
		case resultDraft:
			_, _ = fmt.Fprintf(out, "🔨 Building: %s\n   ⚠  Hidden - skipping output\n", path)
		case resultBuilt, resultFailed:
			_, _ = fmt.Fprintf(out, "🔨 Building: %s\n", path)
		}
		results = append(results, r)
	}
	return results
}
