// Package generator writes rendered posts and pages through the site templates
// and copies static and content assets into the output tree.
package generator

import (
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Template names used by the generator.
const (
	PostTemplate        = "post.html"
	PageTemplate        = "page.html"
	PartialPostTemplate = "partials/post.html"
	PartialPageTemplate = "partials/page.html"
)

// TemplateRenderer executes named templates.
type TemplateRenderer interface {
	Has(name string) bool
	Render(name string, data any) (string, error)
}

// Generator writes documents into cfg.Build.OutputDir. It holds no mutable
// state and may be shared between goroutines.
type Generator struct {
	engine TemplateRenderer
	cfg    *config.Config
}

// New returns a Generator bound to the given templates and configuration.
func New(engine TemplateRenderer, cfg *config.Config) *Generator {
	return &Generator{engine: engine, cfg: cfg}
}

// Config returns the configuration the generator writes with.
func (g *Generator) Config() *config.Config { return g.cfg }

// PostPath returns {out}/{category}/{slug}/index.html.
func (g *Generator) PostPath(category, slug string) string {
	return filepath.Join(g.cfg.Build.OutputDir, g.encode(category), g.encode(slug), "index.html")
}

// PagePath returns {out}/{slug}/index.html.
func (g *Generator) PagePath(slug string) string {
	return filepath.Join(g.cfg.Build.OutputDir, g.encode(slug), "index.html")
}

// PartialPostPath returns {out}/{partial_dir}/{category}/{slug}.html.
func (g *Generator) PartialPostPath(category, slug string) string {
	return filepath.Join(g.cfg.Build.OutputDir, g.cfg.Build.PartialDir, g.encode(category), g.encode(slug)+".html")
}

// PartialPagePath returns {out}/{partial_dir}/{slug}.html.
func (g *Generator) PartialPagePath(slug string) string {
	return filepath.Join(g.cfg.Build.OutputDir, g.cfg.Build.PartialDir, g.encode(slug)+".html")
}

func (g *Generator) encode(p string) string {
	return filepath.FromSlash(docmodel.EncodePath(p, g.cfg.Build.EncodeFilenames))
}

// GeneratePost renders post.html for a rendered post and writes it.
// extra is merged into the template context last and may override base keys.
func (g *Generator) GeneratePost(post *docmodel.Post, extra map[string]any) (string, error) {
	data, err := g.postContext(post, extra)
	if err != nil {
		return "", err
	}
	out := g.PostPath(post.Category, post.Slug)
	if err := g.render(PostTemplate, data, out); err != nil {
		return "", withDocument(err, post.SourcePath)
	}
	slog.Debug("Generated post", logfields.Slug(post.Slug), logfields.Category(post.Category), logfields.Output(out))
	return out, nil
}

// GeneratePostPartial writes the partial fragment of a post. It is a no-op
// returning "" when partials are disabled.
func (g *Generator) GeneratePostPartial(post *docmodel.Post, extra map[string]any) (string, error) {
	if !g.cfg.Build.GeneratePartials {
		return "", nil
	}
	data, err := g.postContext(post, extra)
	if err != nil {
		return "", err
	}
	out := g.PartialPostPath(post.Category, post.Slug)
	if err := g.render(PartialPostTemplate, data, out); err != nil {
		return "", withDocument(err, post.SourcePath)
	}
	return out, nil
}

// GeneratePage renders a standalone page with page.html, or with the template
// named in its front matter.
func (g *Generator) GeneratePage(page *docmodel.Page, extra map[string]any) (string, error) {
	data, err := g.pageContext(page, extra)
	if err != nil {
		return "", err
	}
	name := PageTemplate
	if page.FrontMatter.Template != "" {
		name = page.FrontMatter.Template
	}
	out := g.PagePath(page.Slug)
	if err := g.render(name, data, out); err != nil {
		return "", withDocument(err, page.SourcePath)
	}
	slog.Debug("Generated page", logfields.Slug(page.Slug), logfields.Template(name), logfields.Output(out))
	return out, nil
}

// GeneratePagePartial writes the partial fragment of a page when partials are enabled.
func (g *Generator) GeneratePagePartial(page *docmodel.Page, extra map[string]any) (string, error) {
	if !g.cfg.Build.GeneratePartials {
		return "", nil
	}
	data, err := g.pageContext(page, extra)
	if err != nil {
		return "", err
	}
	out := g.PartialPagePath(page.Slug)
	if err := g.render(PartialPageTemplate, data, out); err != nil {
		return "", withDocument(err, page.SourcePath)
	}
	return out, nil
}

func (g *Generator) postContext(post *docmodel.Post, extra map[string]any) (map[string]any, error) {
	if post.RenderedHTML == "" && post.Body != "" {
		return nil, errors.InternalError("post not rendered").
			WithContext("slug", post.Slug).
			Build()
	}
	data := map[string]any{
		"post":     post,
		"slug":     post.Slug,
		"category": post.Category,
		// #nosec G203 -- rendered markdown is trusted site content.
		"content": template.HTML(post.RenderedHTML),
		"config":  g.cfg.ForTemplates(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data, nil
}

func (g *Generator) pageContext(page *docmodel.Page, extra map[string]any) (map[string]any, error) {
	if page.RenderedHTML == "" && page.Body != "" {
		return nil, errors.InternalError("page not rendered").
			WithContext("slug", page.Slug).
			Build()
	}
	data := map[string]any{
		"page": page.FrontMatter,
		"slug": page.Slug,
		// #nosec G203 -- rendered markdown is trusted site content.
		"content": template.HTML(page.RenderedHTML),
		"config":  g.cfg.ForTemplates(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data, nil
}

// RenderTo executes a template and writes the result to path, creating parent
// directories. Index and feed writers share it.
func (g *Generator) RenderTo(name string, data any, path string) error {
	return g.render(name, data, path)
}

func (g *Generator) render(name string, data any, path string) error {
	html, err := g.engine.Render(name, data)
	if err != nil {
		return err
	}
	return WriteFile(path, []byte(html))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	// #nosec G306 -- site output is world-readable.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output").
			WithContext("path", path).
			Build()
	}
	return nil
}

func withDocument(err error, path string) error {
	if ce, ok := errors.AsClassified(err); ok && path != "" {
		return ce.WithContext("path", path)
	}
	return err
}
