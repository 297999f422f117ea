package commands

import (
	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Incremental bool   `short:"i" help:"Skip posts unchanged since the last build"`
	Post        string `short:"p" help:"Build a single post file" type:"path"`
	Parallel    bool   `default:"true" negatable:"" help:"Render posts on multiple workers"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s := openSinks(cfg)
	defer s.Close()

	builder := build.New(cfg, s.options(b.Incremental, !b.Parallel, g.out()))
	if b.Post != "" {
		_, err := builder.BuildPost(ctx, b.Post)
		return err
	}
	_, err = builder.Run(ctx)
	return err
}
