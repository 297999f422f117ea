package commands

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/scaffold"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Category string `arg:"" help:"Category slug, e.g. dev or dev/go"`
	Title    string `arg:"" help:"Post title"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	post, err := scaffold.NewPost(cfg.Build.ContentDir, n.Category, n.Title, time.Now())
	if available, ok := scaffold.AvailableCategories(err); ok {
		// A missing category is guidance, not a failure.
		scaffold.PrintMissingCategory(g.out(), cfg.Build.ContentDir, n.Category, available)
		return nil
	}
	if err != nil {
		return err
	}
	post.Print(g.out())
	return nil
}
