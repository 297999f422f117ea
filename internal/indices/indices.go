// Package indices writes the listing pages: the homepage, paginated category
// and tag pages, and the tags overview.
package indices

import (
	"log/slog"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/navigation"
)

// Template names rendered by the index writer.
const (
	HomeTemplate     = "index.html"
	CategoryTemplate = "category.html"
	TagTemplate      = "tag.html"
	TagsTemplate     = "tags.html"
)

// Entry is a post as listed on an index page.
type Entry struct {
	metadata.PostMetadata
	Permalink string                       `json:"url"`
	Thumbnail *imagepipe.ThumbnailMetadata `json:"thumbnail_metadata,omitempty"`
}

// CategoryPosts groups the newest posts of one category for homepage tabs.
type CategoryPosts struct {
	Category category.Category `json:"category"`
	Posts    []Entry           `json:"posts"`
}

// Summary counts what Generate wrote.
type Summary struct {
	CategoryPages int
	TagPages      int
}

// Writer renders listing pages through a generator.
type Writer struct {
	gen    *generator.Generator
	cfg    *config.Config
	images *imagepipe.Processor
}

// New returns a Writer. images may be disabled.
func New(gen *generator.Generator, images *imagepipe.Processor) *Writer {
	return &Writer{gen: gen, cfg: gen.Config(), images: images}
}

// Generate writes every listing page for idx. Category and tag pages are
// rendered concurrently and the first failure is returned.
func (w *Writer) Generate(idx *metadata.Index) (Summary, error) {
	links := navigation.NewBuilder(idx, w.images, w.cfg.Build.ContentDir, w.cfg.Build.EncodeFilenames)
	visible := idx.VisibleCategories()

	if err := w.homepage(idx, links, visible); err != nil {
		return Summary{}, err
	}

	var summary Summary
	var eg errgroup.Group
	eg.SetLimit(max(1, w.cfg.Build.Threads))
	for _, c := range visible {
		summary.CategoryPages++
		eg.Go(func() error { return w.categoryPages(c, idx, links, visible) })
	}
	for _, t := range idx.Tags() {
		summary.TagPages++
		eg.Go(func() error { return w.tagPages(t.Name, idx, links, visible) })
	}
	eg.Go(func() error { return w.tagsOverview(idx, visible) })
	if err := eg.Wait(); err != nil {
		return Summary{}, err
	}

	slog.Debug("Generated indices",
		slog.Int("category_pages", summary.CategoryPages),
		slog.Int("tag_pages", summary.TagPages))
	return summary, nil
}

func (w *Writer) homepage(idx *metadata.Index, links *navigation.Builder, visible []category.Category) error {
	limit := w.cfg.Build.HomepageLimit()
	recent := idx.RecentPosts(limit)

	grouped := make([]CategoryPosts, 0, len(visible))
	for _, c := range visible {
		posts := idx.PostsByCategory(c.Slug)
		if len(posts) > limit {
			posts = posts[:limit]
		}
		grouped = append(grouped, CategoryPosts{Category: c, Posts: w.entries(posts, links)})
	}

	data := map[string]any{
		"posts":          w.entries(recent, links),
		"category_posts": grouped,
		"categories":     visible,
		"config":         w.cfg.ForTemplates(),
	}
	return w.gen.RenderTo(HomeTemplate, data, filepath.Join(w.cfg.Build.OutputDir, "index.html"))
}

func (w *Writer) categoryPages(c category.Category, idx *metadata.Index, links *navigation.Builder, visible []category.Category) error {
	posts := idx.PostsByCategoryTree(c.Slug)
	base := "/" + docmodel.EncodePath(c.Slug, w.cfg.Build.EncodeFilenames) + "/"
	dir := filepath.Join(w.cfg.Build.OutputDir, filepath.FromSlash(docmodel.EncodePath(c.Slug, w.cfg.Build.EncodeFilenames)))

	return w.paginate(posts, base, dir, CategoryTemplate, links, func(data map[string]any) {
		data["category"] = c
		data["categories"] = visible
	})
}

func (w *Writer) tagPages(tag string, idx *metadata.Index, links *navigation.Builder, visible []category.Category) error {
	posts := idx.PostsByTag(tag)
	encoded := docmodel.EncodePath(tag, w.cfg.Build.EncodeFilenames)
	base := "/tag/" + encoded + "/"
	dir := filepath.Join(w.cfg.Build.OutputDir, "tag", filepath.FromSlash(encoded))

	return w.paginate(posts, base, dir, TagTemplate, links, func(data map[string]any) {
		data["tag"] = tag
		data["categories"] = visible
	})
}

// paginate renders posts in pages of posts_per_page: page 1 to dir/index.html,
// page N to dir/page/N/index.html.
func (w *Writer) paginate(posts []metadata.PostMetadata, base, dir, tmpl string, links *navigation.Builder, fill func(map[string]any)) error {
	perPage := w.cfg.Build.PostsPerPage
	total := len(posts)
	totalPages := TotalPages(total, perPage)

	for page := 1; page <= totalPages; page++ {
		start := min((page-1)*perPage, total)
		end := min(start+perPage, total)

		data := map[string]any{
			"posts":      w.entries(posts[start:end], links),
			"post_count": total,
			"config":     w.cfg.ForTemplates(),
		}
		fill(data)
		if totalPages > 1 {
			data["pagination"] = NewPagination(page, total, perPage, w.cfg.Build.PaginationWindow, base)
		}

		out := filepath.Join(dir, "index.html")
		if page > 1 {
			out = filepath.Join(dir, "page", strconv.Itoa(page), "index.html")
		}
		if err := w.gen.RenderTo(tmpl, data, out); err != nil {
			return err
		}
	}
	slog.Debug("Generated listing", logfields.URL(base), logfields.Count(totalPages))
	return nil
}

func (w *Writer) tagsOverview(idx *metadata.Index, visible []category.Category) error {
	data := map[string]any{
		"tags":       idx.Tags(),
		"categories": visible,
		"config":     w.cfg.ForTemplates(),
	}
	return w.gen.RenderTo(TagsTemplate, data, filepath.Join(w.cfg.Build.OutputDir, "tags", "index.html"))
}

func (w *Writer) entries(posts []metadata.PostMetadata, links *navigation.Builder) []Entry {
	out := make([]Entry, 0, len(posts))
	for _, p := range posts {
		link := links.Link(p)
		out = append(out, Entry{PostMetadata: p, Permalink: link.URL, Thumbnail: link.Thumbnail})
	}
	return out
}
