package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/search"
)

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query string `arg:"" help:"Text to look for in titles, descriptions and tags"`
	Limit int    `help:"Maximum number of results" default:"10"`
}

func (c *SearchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	path := cfg.SearchDBPath()
	if _, err := os.Stat(path); err != nil {
		return errors.NotFoundError("search database not found: enable search.sqlite and run build").
			WithContext("path", path).
			Build()
	}

	store, err := search.OpenStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	docs, err := store.Query(ctx, c.Query, c.Limit)
	if err != nil {
		return err
	}

	out := g.out()
	if len(docs) == 0 {
		_, _ = fmt.Fprintf(out, "No posts match %q\n", c.Query)
		return nil
	}
	for _, d := range docs {
		_, _ = fmt.Fprintf(out, "%s  %s\n", d.Date.Format("2006-01-02"), d.Title)
		_, _ = fmt.Fprintf(out, "            %s\n", d.URL)
	}
	_, _ = fmt.Fprintf(out, "\n%d result(s)\n", len(docs))
	return nil
}
