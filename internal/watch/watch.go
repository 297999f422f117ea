// Package watch rebuilds the site when sources change and serves the output
// directory over HTTP.
package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BuildFunc runs one build. full asks for a non-incremental build.
type BuildFunc func(ctx context.Context, full bool) error

// Options configures watch mode.
type Options struct {
	Port int
	// RebuildEvery schedules a full rebuild at this interval. Zero disables it.
	RebuildEvery time.Duration
	Out          io.Writer
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Run performs an initial build, serves the output directory and rebuilds on
// source changes until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, opts Options, build BuildFunc) error {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	_, _ = fmt.Fprintln(out, "🔍 Watch mode starting...")
	_, _ = fmt.Fprintln(out, "📦 Initial build...")
	if err := build(ctx, false); err != nil {
		_, _ = fmt.Fprintf(out, "❌ Build error: %v\n", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to start dev server").
			WithContext("port", opts.Port).
			Build()
	}
	srv := &http.Server{
		Handler:           NewRouter(cfg.Build.OutputDir, opts.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Dev server stopped", logfields.Error(err))
		}
	}()
	_, _ = fmt.Fprintf(out, "🌐 Dev server listening on http://localhost:%d\n", opts.Port)
	defer shutdown(srv)

	rebuilder := NewRebuilder(DebounceDelay, func(ctx context.Context, full bool) {
		if full {
			_, _ = fmt.Fprintln(out, "\n⏰ Scheduled rebuild...")
		} else {
			_, _ = fmt.Fprintln(out, "\n📝 File changed, rebuilding...")
		}
		if err := build(ctx, full); err != nil {
			_, _ = fmt.Fprintf(out, "❌ Build error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintln(out, "✅ Rebuild complete!")
	})
	go rebuilder.Run(ctx)

	if opts.RebuildEvery > 0 {
		sched, err := schedule(opts.RebuildEvery, rebuilder)
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	w, err := NewWatcher(Roots(cfg), []string{cfg.Build.OutputDir, cfg.Build.CacheDir})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to start file watcher").Build()
	}
	defer func() { _ = w.Close() }()

	_, _ = fmt.Fprintln(out, "👀 Watching for changes (Ctrl+C to stop)")
	return w.Run(ctx, rebuilder.Trigger)
}

// schedule registers a periodic full rebuild.
func schedule(every time.Duration, r *Rebuilder) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(r.Request, true),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule rebuild").
			WithContext("interval", every.String()).
			Build()
	}
	sched.Start()
	slog.Info("Scheduled periodic rebuild", slog.Duration("interval", every))
	return sched, nil
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Dev server shutdown failed", logfields.Error(err))
	}
}
