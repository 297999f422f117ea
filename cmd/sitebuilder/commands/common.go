// Package commands implements the sitebuilder subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Global carries state shared by every subcommand.
type Global struct {
	// Out receives user-facing output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on changes and serve the output directory"`
	New     NewCmd     `cmd:"" help:"Create a new post"`
	Search  SearchCmd  `cmd:"" help:"Search built posts"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose, os.Getenv(LogLevelEnv))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LogLevelEnv overrides the log level chosen by -v.
const LogLevelEnv = "SITEBUILDER_LOG_LEVEL"

// parseLogLevel returns Debug with verbose, Info otherwise, unless env names
// a level.
func parseLogLevel(verbose bool, env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// sinks are the reporting targets a build writes to besides the site itself.
type sinks struct {
	recorder  *metrics.PrometheusRecorder
	publisher events.Publisher
	history   *history.Store
}

// openSinks connects the configured sinks. A sink that cannot be opened is
// logged and left out; it never stops a build.
func openSinks(cfg *config.Config) *sinks {
	s := &sinks{
		recorder:  metrics.NewPrometheusRecorder(prometheus.NewRegistry()),
		publisher: events.NoopPublisher{},
	}

	if pub, err := events.New(cfg.Events.NATSURL, cfg.Events.Subject); err != nil {
		slog.Warn("Build events disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
	} else {
		s.publisher = pub
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(cfg.HistoryPath()), logfields.Error(err))
		} else {
			s.history = store
		}
	}
	return s
}

func (s *sinks) options(incremental, sequential bool, out io.Writer) build.Options {
	return build.Options{
		Incremental: incremental,
		Sequential:  sequential,
		Out:         out,
		Recorder:    s.recorder,
		Publisher:   s.publisher,
		History:     s.history,
	}
}

func (s *sinks) Close() {
	if err := s.publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", logfields.Error(err))
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("Failed to close history", logfields.Error(err))
		}
	}
}
