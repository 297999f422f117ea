package build

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/shortcode"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// BuildPost renders the single post at path and returns its output file.
// The cache is neither consulted nor updated. Navigation uses the persisted
// metadata index. Any error is fatal.
func (b *Builder) BuildPost(ctx context.Context, path string) (string, error) {
	ctx = observability.WithBuildID(ctx, uuid.NewString())
	out := b.opts.Out
	_, _ = fmt.Fprintf(out, "Building single post: %s\n\n", path)

	if _, err := os.Stat(path); err != nil {
		return "", errors.NotFoundError("Post file not found").
			WithContext("path", path).
			Build()
	}

	engine, err := templates.Load(b.cfg.Build.TemplatesDir)
	if err != nil {
		return "", err
	}

	index, err := metadata.Load(b.cfg.MetadataPath())
	if err != nil {
		observability.WarnContext(ctx, "Ignoring unreadable metadata index", logfields.Error(err))
		index = metadata.New()
	}

	s := &session{
		cfg:        b.cfg,
		engine:     engine,
		shortcodes: shortcode.NewRegistry(),
		images:     imagepipe.NewProcessor(b.cfg.Site.CDNURL),
		index:      index,
	}
	if b.cfg.Build.GitDates {
		if s.git, err = gitinfo.Open(b.cfg.Build.ContentDir); err != nil {
			observability.WarnContext(ctx, "Git dates disabled", logfields.Error(err))
		}
	}
	s.freeze()

	post, err := docmodel.ParsePost(path)
	if err != nil {
		return "", err
	}
	if post.FrontMatter.Hidden {
		_, _ = fmt.Fprintln(out, "⚠  This is a hidden post")
	}

	output, err := s.renderPost(ctx, s.newWorker(), post)
	if err != nil {
		return "", err
	}

	_, _ = fmt.Fprintf(out, "\n✅ Built: %s\n", output)
	observability.InfoContext(ctx, "Built single post", logfields.Path(path), logfields.Output(output))
	return output, nil
}
