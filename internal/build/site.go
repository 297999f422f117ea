package build

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/feeds"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/indices"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/recent"
	"git.home.luguber.info/inful/sitebuilder/internal/search"
	"git.home.luguber.info/inful/sitebuilder/internal/sitemap"
)

// writeSite produces every output that depends on the whole index.
func (b *Builder) writeSite(ctx context.Context, s *session, rendered, fingerprints map[string]string, res *Result) error {
	out := b.opts.Out
	w := s.newWorker()
	idx := s.index
	encode := b.cfg.Build.EncodeFilenames

	var pages []*docmodel.Page
	err := b.stage(ctx, "pages", func(ctx context.Context) error {
		var err error
		pages, err = b.buildPages(ctx, s, w)
		res.Pages = len(pages)
		return err
	})
	if err != nil {
		return err
	}

	err = b.stage(ctx, "indices", func(ctx context.Context) error {
		summary, err := indices.New(w.gen, s.images).Generate(idx)
		if err != nil {
			return err
		}
		observability.InfoContext(ctx, "Generated index pages",
			slog.Int("category_pages", summary.CategoryPages),
			slog.Int("tag_pages", summary.TagPages))
		return nil
	})
	if err != nil {
		return err
	}

	err = b.stage(ctx, "feeds", func(ctx context.Context) error {
		_, _ = fmt.Fprintln(out, "📄 Generating RSS feeds...")
		n, err := feeds.New(b.cfg, feeds.Options{
			Content: s.feedContent(rendered),
			Now:     b.opts.Now,
		}).Generate(idx)
		observability.DebugContext(ctx, "Feeds written", logfields.Count(n))
		return err
	})
	if err != nil {
		return err
	}

	err = b.stage(ctx, "sitemap", func(context.Context) error {
		_, _ = fmt.Fprintln(out, "🗺  Generating sitemap...")
		_, _ = fmt.Fprintln(out, "🤖 Generating robots.txt...")
		return sitemap.Generate(b.cfg, idx, pages)
	})
	if err != nil {
		return err
	}

	if b.cfg.Search.Enabled {
		err = b.stage(ctx, "search", func(ctx context.Context) error {
			return b.writeSearch(ctx, idx, fingerprints)
		})
		if err != nil {
			return err
		}
	}

	err = b.stage(ctx, "recent", func(context.Context) error {
		_, err := recent.Generate(b.cfg.Build.OutputDir, idx, encode)
		return err
	})
	if err != nil {
		return err
	}

	return b.stage(ctx, "assets", func(ctx context.Context) error {
		n, err := w.gen.CopyContentAssets()
		if err != nil {
			return err
		}
		if n > 0 {
			_, _ = fmt.Fprintf(out, "📁 Copied %d content asset(s)\n", n)
		}
		copied, err := w.gen.CopyStaticAssets()
		if err != nil {
			return err
		}
		if copied {
			_, _ = fmt.Fprintln(out, "📁 Copied static assets")
		}
		return nil
	})
}

// stage runs fn under a stage-scoped context and records its duration.
func (b *Builder) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(observability.WithStage(ctx, name))
	b.opts.Recorder.ObserveStageDuration(name, time.Since(start))
	return err
}

// buildPages renders content/pages and returns the visible pages written.
func (b *Builder) buildPages(ctx context.Context, s *session, w *worker) ([]*docmodel.Page, error) {
	dir := b.cfg.Build.PagesDir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}

	out := b.opts.Out
	_, _ = fmt.Fprintln(out, "\n📄 Building pages...")

	var pages []*docmodel.Page
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		_, _ = fmt.Fprintf(out, "🔨 Building page: %s\n", path)

		page, err := docmodel.ParsePage(path)
		if err != nil {
			return err
		}
		if page.FrontMatter.Hidden {
			_, _ = fmt.Fprintln(out, "   ⚠  Hidden - skipping output")
			return nil
		}

		body, err := s.shortcodes.Process(page.Body)
		if err != nil {
			return errors.WrapError(err, errors.CategoryRender, "failed to expand shortcodes").
				WithContext("path", path).
				Build()
		}
		html, err := w.renderer.Render(body, markdown.RenderOptions{
			BasePath:   page.Slug,
			CDNURL:     b.cfg.Site.CDNURL,
			ContentDir: b.cfg.Build.ContentDir,
		})
		if err != nil {
			return errors.WrapError(err, errors.CategoryRender, "failed to render page").
				WithContext("path", path).
				Build()
		}
		page.RenderedHTML = html

		output, err := w.gen.GeneratePage(page, nil)
		if err != nil {
			return err
		}
		if _, err := w.gen.GeneratePagePartial(page, nil); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "   ✓ %s\n", output)
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(pages) > 0 {
		_, _ = fmt.Fprintf(out, "✅ Built %d page(s)\n", len(pages))
	}
	observability.DebugContext(ctx, "Pages built", logfields.Count(len(pages)))
	return pages, nil
}

// feedContent returns post bodies for feed entries: the HTML rendered in
// this build when available, otherwise a fresh render of the source.
func (s *session) feedContent(rendered map[string]string) feeds.ContentFunc {
	var mu sync.Mutex
	var w *worker
	return func(p metadata.PostMetadata) string {
		if html, ok := rendered[metadata.Key(p.Category, p.Slug)]; ok {
			return html
		}

		mu.Lock()
		defer mu.Unlock()
		if w == nil {
			w = s.newWorker()
		}
		path := filepath.Join(s.cfg.Build.ContentDir, filepath.FromSlash(p.Category), p.Slug+".md")
		post, err := docmodel.ParsePost(path)
		if err != nil {
			return ""
		}
		body, err := s.shortcodes.Process(post.Body)
		if err != nil {
			return ""
		}
		html, err := w.renderer.Render(body, markdown.RenderOptions{
			BasePath:   post.Category,
			CDNURL:     s.cfg.Site.CDNURL,
			ContentDir: s.cfg.Build.ContentDir,
		})
		if err != nil {
			return ""
		}
		return html
	}
}

func (b *Builder) writeSearch(ctx context.Context, idx *metadata.Index, fingerprints map[string]string) error {
	docs := search.Documents(idx, b.cfg.Build.EncodeFilenames, func(p metadata.PostMetadata) string {
		return fingerprints[metadata.Key(p.Category, p.Slug)]
	})
	if err := search.WriteJSON(filepath.Join(b.cfg.Build.OutputDir, search.IndexFile), docs); err != nil {
		return err
	}
	if !b.cfg.Search.SQLite {
		return nil
	}

	store, err := search.OpenStore(b.cfg.SearchDBPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Sync(ctx, docs)
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Search database synced",
		slog.Int("inserted", stats.Inserted),
		slog.Int("updated", stats.Updated),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("deleted", stats.Deleted))
	return nil
}
