package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}

	out := g.out()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded yet")
		return nil
	}
	for _, r := range runs {
		mode := "full"
		if r.Incremental {
			mode = "incremental"
		}
		_, _ = fmt.Fprintf(out, "%s  %-8s %-11s %6.2fs  built=%d skipped=%d failed=%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome, mode,
			r.Duration.Seconds(), r.Built, r.Skipped, r.Failed)
		for _, f := range r.Failures {
			_, _ = fmt.Fprintf(out, "    ❌ %s: %s\n", f.Path, f.Message)
		}
	}
	return nil
}
