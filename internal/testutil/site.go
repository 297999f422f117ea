package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// DefaultTemplates is a minimal template set covering every page type.
var DefaultTemplates = map[string]string{
	"post.html": `<h1>{{.post.FrontMatter.Title}}</h1>{{.content}}` +
		`{{with .prev_post}}<a rel="prev" href="{{.URL}}">{{.Title}}</a>{{end}}` +
		`{{with .next_post}}<a rel="next" href="{{.URL}}">{{.Title}}</a>{{end}}`,
	"page.html":     `<h1>{{.page.Title}}</h1>{{.content}}`,
	"index.html":    `{{range .posts}}<a href="{{.Permalink}}">{{.FrontMatter.Title}}</a>{{end}}`,
	"category.html": `<h1>{{.category.Name}}</h1>{{range .posts}}<a href="{{.Permalink}}">{{.FrontMatter.Title}}</a>{{end}}{{with .pagination}}<p>{{.CurrentPage}}/{{.TotalPages}}</p>{{end}}`,
	"tag.html":      `<h1>#{{.tag}}</h1>{{range .posts}}<a href="{{.Permalink}}">{{.FrontMatter.Title}}</a>{{end}}`,
	"tags.html":     `{{range .tags}}{{.Name}}={{.Count}} {{end}}`,
}

// Site is a site rooted in a temporary directory.
type Site struct {
	t    *testing.T
	Root string
}

// NewSite creates an empty site with DefaultTemplates installed.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{t: t, Root: t.TempDir()}
	for name, src := range DefaultTemplates {
		s.WithTemplate(name, src)
	}
	s.mkdir(filepath.Join("content", "posts"))
	return s
}

// Config returns a configuration pointing every directory into the site.
func (s *Site) Config() *config.Config {
	cfg := config.Default()
	cfg.Dir = s.Root
	cfg.Site.Title = "Test Blog"
	cfg.Site.URL = "https://example.com"
	cfg.Build.ContentDir = s.Path("content", "posts")
	cfg.Build.PagesDir = s.Path("content", "pages")
	cfg.Build.OutputDir = s.Path("dist")
	cfg.Build.TemplatesDir = s.Path("templates")
	cfg.Build.StaticDir = s.Path("static")
	cfg.Build.CacheDir = s.Path(".build-cache")
	cfg.Build.Threads = 2
	return cfg
}

// WriteConfig writes config.yaml into the site root with every directory
// pointing into the site, followed by extra YAML, and returns its path.
func (s *Site) WriteConfig(extra string) string {
	s.t.Helper()
	body := fmt.Sprintf(`site:
  title: "Test Blog"
  url: "https://example.com"
build:
  content_dir: %q
  pages_dir: %q
  output_dir: %q
  templates_dir: %q
  static_dir: %q
  cache_dir: %q
  threads: 2
`, s.Path("content", "posts"), s.Path("content", "pages"), s.Path("dist"),
		s.Path("templates"), s.Path("static"), s.Path(".build-cache"))
	path := s.Path("config.yaml")
	if err := os.WriteFile(path, []byte(body+extra), 0o600); err != nil {
		s.t.Fatalf("write config: %v", err)
	}
	return path
}

// Path joins elems onto the site root.
func (s *Site) Path(elems ...string) string {
	return filepath.Join(append([]string{s.Root}, elems...)...)
}

// WithPost writes content/posts/{category}/{slug}.md with the given title,
// date and tags.
func (s *Site) WithPost(category, slug, title string, date time.Time, tags ...string) *Site {
	s.t.Helper()
	return s.WithPostHidden(category, slug, title, date, false, tags...)
}

// WithPostHidden is WithPost with an explicit hidden flag.
func (s *Site) WithPostHidden(category, slug, title string, date time.Time, hidden bool, tags ...string) *Site {
	s.t.Helper()
	tagList := "[]"
	if len(tags) > 0 {
		tagList = "["
		for i, tag := range tags {
			if i > 0 {
				tagList += ", "
			}
			tagList += tag
		}
		tagList += "]"
	}
	content := fmt.Sprintf("---\ntitle: %q\ndate: %s\ntags: %s\nhidden: %t\n---\n\nBody of %s.\n",
		title, date.UTC().Format(time.RFC3339), tagList, hidden, slug)
	return s.WithFile(content, "content", "posts", category, slug+".md")
}

// WithCategoryMeta writes the .category.yaml of category.
func (s *Site) WithCategoryMeta(category, yaml string) *Site {
	s.t.Helper()
	return s.WithFile(yaml, "content", "posts", category, ".category.yaml")
}

// WithPage writes content/pages/{slug}.md.
func (s *Site) WithPage(slug, content string) *Site {
	s.t.Helper()
	return s.WithFile(content, "content", "pages", slug+".md")
}

// WithTemplate writes templates/{name}.
func (s *Site) WithTemplate(name, src string) *Site {
	s.t.Helper()
	return s.WithFile(src, "templates", filepath.FromSlash(name))
}

// WithStatic writes static/{name}.
func (s *Site) WithStatic(name, content string) *Site {
	s.t.Helper()
	return s.WithFile(content, "static", filepath.FromSlash(name))
}

// WithFile writes content to the path built from elems.
func (s *Site) WithFile(content string, elems ...string) *Site {
	s.t.Helper()
	path := s.Path(elems...)
	s.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		s.t.Fatalf("write %s: %v", path, err)
	}
	return s
}

// Remove deletes the file built from elems.
func (s *Site) Remove(elems ...string) *Site {
	s.t.Helper()
	if err := os.Remove(s.Path(elems...)); err != nil {
		s.t.Fatalf("remove: %v", err)
	}
	return s
}

// Output returns assertions over the generated dist directory.
func (s *Site) Output() *FileAssertions {
	return NewFileAssertions(s.t, s.Path("dist"))
}

func (s *Site) mkdir(rel string) {
	s.t.Helper()
	path := rel
	if !filepath.IsAbs(rel) {
		path = s.Path(rel)
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		s.t.Fatalf("mkdir %s: %v", path, err)
	}
}
