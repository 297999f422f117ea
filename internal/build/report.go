package build

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// textfileWriter is implemented by recorders that can dump their registry.
type textfileWriter interface {
	WriteTextfile(path string) error
}

// report prints the summary and hands the result to the configured sinks.
// Sink failures are logged and never change the build outcome.
func (b *Builder) report(ctx context.Context, res *Result, buildErr error) {
	outcome := metrics.BuildOutcomeSuccess
	if buildErr != nil {
		outcome = metrics.BuildOutcomeFailed
	}

	switch {
	case buildErr == nil:
		b.printSummary(res, fmt.Sprintf("✅ Build complete in %.2fs!", res.Duration.Seconds()))
	case res.Failed() > 0:
		b.printSummary(res, fmt.Sprintf("❌ Build finished with errors in %.2fs", res.Duration.Seconds()))
	}

	b.opts.Recorder.IncBuildOutcome(outcome)
	b.opts.Recorder.ObserveBuildDuration(res.Duration)

	observability.InfoContext(ctx, "Build finished",
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000),
		logfields.Reason(string(outcome)),
		logfields.Count(res.Built))

	err := b.opts.Publisher.PublishBuild(ctx, events.BuildEvent{
		BuildID:    res.BuildID,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
		Built:      res.Built,
		Skipped:    res.Skipped,
		Failed:     res.Failed(),
		Categories: res.Categories,
		Tags:       res.Tags,
	})
	if err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(err))
	}

	if b.opts.History != nil {
		run := history.Run{
			ID:          res.BuildID,
			StartedAt:   res.StartedAt,
			Duration:    res.Duration,
			Incremental: b.opts.Incremental,
			Built:       res.Built,
			Skipped:     res.Skipped,
			Failed:      res.Failed(),
			Outcome:     string(outcome),
		}
		for _, f := range res.Failures {
			run.Failures = append(run.Failures, history.Failure{Path: f.Path, Message: f.Err.Error()})
		}
		if err := b.opts.History.Record(ctx, run); err != nil {
			observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
		}
	}

	if path := b.cfg.Metrics.Textfile; path != "" {
		if tw, ok := b.opts.Recorder.(textfileWriter); ok {
			if err := tw.WriteTextfile(path); err != nil {
				observability.WarnContext(ctx, "Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
			}
		}
	}
}

func (b *Builder) printSummary(res *Result, header string) {
	out := b.opts.Out
	_, _ = fmt.Fprintf(out, "\n%s\n", header)
	_, _ = fmt.Fprintf(out, "   Built: %d\n", res.Built)
	if b.opts.Incremental {
		_, _ = fmt.Fprintf(out, "   Skipped: %d\n", res.Skipped)
	}
	if res.Failed() > 0 {
		_, _ = fmt.Fprintf(out, "   Failed: %d\n", res.Failed())
	}
	_, _ = fmt.Fprintf(out, "   Categories: %d\n", res.Categories)
	_, _ = fmt.Fprintf(out, "   Tags: %d\n", res.Tags)
}
