package build

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// Options configures a Builder.
type Options struct {
	// Incremental skips posts whose content and templates are unchanged
	// since the persisted cache was written.
	Incremental bool
	// Sequential renders posts one at a time on the calling goroutine.
	Sequential bool

	// Out receives user-facing progress lines. Defaults to io.Discard.
	Out io.Writer

	Recorder  metrics.Recorder
	Publisher events.Publisher
	// History records finished builds when set.
	History *history.Store

	Now func() time.Time
}

// Failure is a post that could not be built.
type Failure struct {
	Path string
	Err  error
}

// Result summarises a build.
type Result struct {
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	Built      int
	Skipped    int
	Failures   []Failure
	Pages      int
	Categories int
	Tags       int
}

// Failed returns the number of posts that failed.
func (r *Result) Failed() int { return len(r.Failures) }

// Builder builds the site described by one configuration.
type Builder struct {
	cfg  *config.Config
	opts Options
}

// New returns a Builder with defaults filled in for unset options.
func New(cfg *config.Config, opts Options) *Builder {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{cfg: cfg, opts: opts}
}

// Run performs a full build. The Result is returned even when err is set.
// Per-post failures do not stop the build; they are reported together as a
// build error once every other output has been written.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := b.opts.Now()
	res := &Result{BuildID: uuid.NewString(), StartedAt: start}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	observability.InfoContext(ctx, "Starting build",
		logfields.Output(b.cfg.Build.OutputDir))

	err := b.run(ctx, res)
	if err == nil && res.Failed() > 0 {
		err = errors.BuildError(fmt.Sprintf("%d posts failed to build", res.Failed())).
			WithContext("failed", res.Failed()).
			Build()
	}
	res.Duration = b.opts.Now().Sub(start)

	b.report(ctx, res, err)
	return res, err
}

func (b *Builder) run(ctx context.Context, res *Result) error {
	out := b.opts.Out

	stageStart := time.Now()
	s, err := b.prepare(observability.WithStage(ctx, "prepare"))
	if err != nil {
		return err
	}
	b.opts.Recorder.ObserveStageDuration("prepare", time.Since(stageStart))

	paths, err := discoverPosts(b.cfg.Build.ContentDir)
	if err != nil {
		return err
	}

	stageStart = time.Now()
	fingerprints := s.collectMetadata(observability.WithStage(ctx, "metadata"), paths)
	s.freeze()
	b.opts.Recorder.ObserveStageDuration("metadata", time.Since(stageStart))

	stageStart = time.Now()
	var results []fileResult
	if b.opts.Sequential {
		_, _ = fmt.Fprint(out, "Building site...\n\n")
		results = s.runSequential(observability.WithStage(ctx, "render"), paths, out)
	} else {
		threads := max(1, b.cfg.Build.Threads)
		_, _ = fmt.Fprintf(out, "Building site with %d threads...\n\n", threads)
		b.opts.Recorder.SetWorkers(threads)
		results = s.runParallel(observability.WithStage(ctx, "render"), paths, threads)
	}
	rendered := b.merge(ctx, s, results, res)
	b.opts.Recorder.ObserveStageDuration("render", time.Since(stageStart))

	if err := b.persist(ctx, s, paths); err != nil {
		return err
	}

	if err := b.writeSite(ctx, s, rendered, fingerprints, res); err != nil {
		return err
	}

	res.Categories = len(s.index.Categories())
	res.Tags = len(s.index.Tags())
	return nil
}

// merge folds worker results into the cache and the index. It returns the
// rendered HTML of built posts keyed by metadata.Key.
func (b *Builder) merge(ctx context.Context, s *session, results []fileResult, res *Result) map[string]string {
	out := b.opts.Out
	rendered := make(map[string]string)

	for _, r := range results {
		switch r.kind {
		case resultBuilt:
			res.Built++
			s.index.Upsert(r.post.Slug, r.post.Category, r.post.FrontMatter)
			s.cache.UpdateEntry(r.path, r.contentFP, s.templateFP, r.output)
			rendered[metadata.Key(r.post.Category, r.post.Slug)] = r.post.RenderedHTML
			if !b.opts.Sequential {
				_, _ = fmt.Fprintf(out, "🔨 Built: %s\n", r.path)
			}
			b.opts.Recorder.IncFileResult(metrics.ResultBuilt, "")
		case resultCached:
			res.Skipped++
			if !b.opts.Sequential {
				_, _ = fmt.Fprintf(out, "⏭  Skipped (unchanged): %s\n", r.path)
			}
			b.opts.Recorder.IncFileResult(metrics.ResultSkipped, string(resultCached))
		case resultDraft:
			res.Skipped++
			if !b.opts.Sequential {
				_, _ = fmt.Fprintf(out, "   ⚠  Draft - skipping: %s\n", r.path)
			}
			b.opts.Recorder.IncFileResult(metrics.ResultSkipped, string(resultDraft))
		case resultFailed:
			res.Failures = append(res.Failures, Failure{Path: r.path, Err: r.err})
			_, _ = fmt.Fprintf(out, "❌ Error building %s: %v\n", r.path, r.err)
			observability.ErrorContext(ctx, "Post failed to build", logfields.Path(r.path), logfields.Error(r.err))
			b.opts.Recorder.IncFileResult(metrics.ResultFailed, "")
		}
	}
	return rendered
}

// persist saves the cache and the index. Failed posts have no cache entry
// and are retried by the next incremental build.
func (b *Builder) persist(ctx context.Context, s *session, paths []string) error {
	if pruned := s.cache.Prune(paths); pruned > 0 {
		observability.DebugContext(ctx, "Pruned cache entries for removed posts", logfields.Count(pruned))
	}
	if err := s.cache.Save(b.cfg.CachePath()); err != nil {
		return err
	}
	return s.index.Save(b.cfg.MetadataPath())
}
