package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/incremental"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/navigation"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/search"
	"git.home.luguber.info/inful/sitebuilder/internal/shortcode"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

type resultKind string

const (
	resultBuilt  resultKind = "built"
	resultCached resultKind = "cached"
	resultDraft  resultKind = "draft"
	resultFailed resultKind = "failed"
)

// fileResult is the outcome of one post, sent from a worker to the merge step.
type fileResult struct {
	path      string
	kind      resultKind
	post      *docmodel.Post
	contentFP string
	output    string
	err       error
}

// session is the state shared by one build.
type session struct {
	cfg        *config.Config
	engine     *templates.Engine
	shortcodes *shortcode.Registry
	images     *imagepipe.Processor
	git        *gitinfo.Repo
	templateFP string
	useCache   bool

	// index is written only by the orchestrating goroutine.
	index *metadata.Index
	// snapshot is the read-only copy workers consult for navigation.
	snapshot *metadata.Index
	links    *navigation.Builder

	cacheMu sync.Mutex
	cache   *incremental.BuildCache
}

// worker holds per-goroutine rendering state.
type worker struct {
	renderer *markdown.Renderer
	gen      *generator.Generator
}

func (s *session) newWorker() *worker {
	return &worker{
		renderer: markdown.NewRenderer(s.engine),
		gen:      generator.New(s.engine, s.cfg),
	}
}

func (b *Builder) prepare(ctx context.Context) (*session, error) {
	contentDir := b.cfg.Build.ContentDir
	if info, err := os.Stat(contentDir); err != nil || !info.IsDir() {
		return nil, errors.ConfigError(fmt.Sprintf("Content directory '%s' does not exist. Create it first with: mkdir -p %s", contentDir, contentDir)).
			Fatal().
			WithContext("path", contentDir).
			Build()
	}

	engine, err := templates.Load(b.cfg.Build.TemplatesDir)
	if err != nil {
		return nil, err
	}
	templateFP, err := incremental.HashDirectory(b.cfg.Build.TemplatesDir)
	if err != nil {
		return nil, err
	}

	categories, err := category.Discover(contentDir)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		_, _ = fmt.Fprintf(b.opts.Out, "⚠️  Warning: No categories found in content directory\n"+
			"   Create a category by adding a subdirectory with markdown files:\n"+
			"   mkdir -p %s/dev\n", contentDir)
	}

	s := &session{
		cfg:        b.cfg,
		engine:     engine,
		shortcodes: shortcode.NewRegistry(),
		images:     imagepipe.NewProcessor(b.cfg.Site.CDNURL),
		templateFP: templateFP,
		useCache:   b.opts.Incremental,
		index:      metadata.New(),
		cache:      incremental.New(),
	}

	if b.opts.Incremental {
		_, _ = fmt.Fprintln(b.opts.Out, "Note: Incremental build uses cache to skip unchanged files")
		if idx, err := metadata.Load(b.cfg.MetadataPath()); err != nil {
			observability.WarnContext(ctx, "Ignoring unreadable metadata index", logfields.Error(err))
		} else {
			s.index = idx
		}
		if s.cache, err = incremental.Load(b.cfg.CachePath()); err != nil {
			return nil, err
		}
	}
	s.index.SetCategoryInfo(categories)

	if b.cfg.Build.GitDates {
		repo, err := gitinfo.Open(contentDir)
		if err != nil {
			observability.WarnContext(ctx, "Git dates disabled", logfields.Error(err))
		}
		s.git = repo
	}

	observability.DebugContext(ctx, "Build prepared",
		logfields.Count(len(categories)),
		logfields.Template(templateFP))
	return s, nil
}

// discoverPosts lists every Markdown file under dir in lexical order.
func discoverPosts(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".md" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk content directory").
			WithContext("path", dir).
			Build()
	}
	return paths, nil
}

// collectMetadata parses every post and upserts the visible ones, so the
// render pass sees the whole corpus. Parse failures are left for the render
// pass to report. Posts no longer on disk (or now hidden) are dropped. The
// returned map holds the content fingerprint of each indexed post.
func (s *session) collectMetadata(ctx context.Context, paths []string) map[string]string {
	fingerprints := make(map[string]string, len(paths))
	keep := sets.New[string]()

	for _, path := range paths {
		post, err := docmodel.ParsePost(path)
		if err != nil {
			observability.DebugContext(ctx, "Deferring parse failure", logfields.Path(path), logfields.Error(err))
			continue
		}
		if post.FrontMatter.Hidden {
			continue
		}
		s.fillModified(ctx, &post.FrontMatter, path)
		resolveImages(&post.FrontMatter, post.Category)

		key := metadata.Key(post.Category, post.Slug)
		keep.Add(key)
		fingerprints[key] = search.Fingerprint(post.RawFrontMatter, post.Body)
		s.index.Upsert(post.Slug, post.Category, post.FrontMatter)
	}
	s.index.Retain(keep)

	observability.DebugContext(ctx, "Metadata collected", logfields.Count(len(s.index.Posts)))
	return fingerprints
}

// freeze takes the snapshot workers read during the render pass.
func (s *session) freeze() {
	s.snapshot = s.index.Clone()
	s.links = navigation.NewBuilder(s.snapshot, s.images, s.cfg.Build.ContentDir, s.cfg.Build.EncodeFilenames).
		Global(s.cfg.Build.Navigation == config.NavigationGlobal)
}

// process builds one post. It is safe to call from several workers.
func (s *session) process(ctx context.Context, w *worker, path string) fileResult {
	contentFP, err := incremental.HashFile(path)
	if err != nil {
		return fileResult{path: path, kind: resultFailed, err: err}
	}

	if s.useCache {
		s.cacheMu.Lock()
		rebuild := s.cache.NeedsRebuild(path, contentFP, s.templateFP)
		s.cacheMu.Unlock()
		if !rebuild {
			return fileResult{path: path, kind: resultCached}
		}
	}

	post, err := docmodel.ParsePost(path)
	if err != nil {
		return fileResult{path: path, kind: resultFailed, err: err}
	}
	if post.FrontMatter.Hidden {
		return fileResult{path: path, kind: resultDraft}
	}

	output, err := s.renderPost(ctx, w, post)
	if err != nil {
		return fileResult{path: path, kind: resultFailed, err: err}
	}
	return fileResult{path: path, kind: resultBuilt, post: post, contentFP: contentFP, output: output}
}

// renderPost renders post to HTML and writes its page (and partial).
// post.FrontMatter holds resolved image paths afterwards.
func (s *session) renderPost(ctx context.Context, w *worker, post *docmodel.Post) (string, error) {
	body, err := s.shortcodes.Process(post.Body)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "failed to expand shortcodes").
			WithContext("path", post.SourcePath).
			Build()
	}

	html, err := w.renderer.Render(body, markdown.RenderOptions{
		BasePath:   post.Category,
		CDNURL:     s.cfg.Site.CDNURL,
		ContentDir: s.cfg.Build.ContentDir,
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "failed to render post").
			WithContext("path", post.SourcePath).
			Build()
	}
	post.RenderedHTML = html

	original := post.FrontMatter
	s.fillModified(ctx, &post.FrontMatter, post.SourcePath)
	resolveImages(&post.FrontMatter, post.Category)

	extra := s.extraData(post, original)
	output, err := w.gen.GeneratePost(post, extra)
	if err != nil {
		return "", err
	}
	if _, err := w.gen.GeneratePostPartial(post, extra); err != nil {
		return "", err
	}
	return output, nil
}

// extraData is the template context beyond the post itself. original holds
// the front matter as written, before image paths were resolved.
func (s *session) extraData(post *docmodel.Post, original docmodel.FrontMatter) map[string]any {
	data := map[string]any{}

	if info, ok := s.snapshot.FindCategory(post.Category); ok {
		data["category_info"] = info
	}

	nav := s.links.Build(post.Category, post.Slug)
	data["navigation"] = nav
	data["prev_post"] = nav.Prev
	data["next_post"] = nav.Next

	if s.images.Enabled() {
		dir := filepath.Join(s.cfg.Build.ContentDir, filepath.FromSlash(post.Category))
		if original.CoverImage != "" {
			if meta := s.images.ProcessImage(original.CoverImage, dir, post.Category); meta != nil {
				data["cover_image_metadata"] = meta
			}
		}
		if original.OGImage != "" {
			if meta := s.images.ProcessThumbnail(original.OGImage, dir, post.Category); meta != nil {
				data["og_image_metadata"] = meta
			}
		}
	}

	data["related_posts"] = s.links.Related(post.Category, post.Slug, navigation.RelatedCount)
	return data
}

// fillModified sets the modified date from git history when the front
// matter has none and the last commit is newer than the posted date.
func (s *session) fillModified(ctx context.Context, fm *docmodel.FrontMatter, path string) {
	if s.git == nil || fm.Date.Modified != nil {
		return
	}
	when, err := s.git.LastCommitTime(path)
	if err != nil {
		observability.DebugContext(ctx, "No git date", logfields.Path(path), logfields.Error(err))
		return
	}
	if when.After(fm.Date.Posted) {
		fm.Date.Modified = &when
	}
}

// resolveImages turns relative cover and OG image paths into site paths.
func resolveImages(fm *docmodel.FrontMatter, categorySlug string) {
	if fm.CoverImage != "" {
		fm.CoverImage = markdown.ResolvePath(fm.CoverImage, categorySlug)
	}
	if fm.OGImage != "" {
		fm.OGImage = markdown.ResolvePath(fm.OGImage, categorySlug)
	}
}
