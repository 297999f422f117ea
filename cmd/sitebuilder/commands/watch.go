package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Port         int           `short:"p" help:"Dev server port" default:"8080"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Also run a full rebuild at this interval (e.g. 1h)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s := openSinks(cfg)
	defer s.Close()

	out := g.out()
	rebuild := func(ctx context.Context, full bool) error {
		_, err := build.New(cfg, s.options(!full, false, out)).Run(ctx)
		return err
	}

	return watch.Run(ctx, cfg, watch.Options{
		Port:         w.Port,
		RebuildEvery: w.RebuildEvery,
		Out:          out,
		Metrics:      s.recorder.Handler(),
	}, rebuild)
}
