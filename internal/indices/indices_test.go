package indices

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		total     int
		pages     []int
		prev      string
		next      string
		jumpPrev  string
		jumpNext  string
		lastURL   string
		totalPage int
	}{
		{name: "fits window", current: 2, total: 30, pages: []int{1, 2, 3}, prev: "/dev/", next: "/dev/page/3", lastURL: "/dev/page/3", totalPage: 3},
		{name: "start of long list", current: 1, total: 100, pages: []int{1, 2, 3, 4, 5}, next: "/dev/page/6", jumpNext: "/dev/page/6", lastURL: "/dev/page/10", totalPage: 10},
		{name: "middle", current: 5, total: 100, pages: []int{3, 4, 5, 6, 7}, prev: "/dev/page/2", next: "/dev/page/8", jumpPrev: "/dev/page/2", jumpNext: "/dev/page/8", lastURL: "/dev/page/10", totalPage: 10},
		{name: "jump back to first", current: 4, total: 100, pages: []int{2, 3, 4, 5, 6}, prev: "/dev/", next: "/dev/page/7", jumpPrev: "/dev/", jumpNext: "/dev/page/7", lastURL: "/dev/page/10", totalPage: 10},
		{name: "end", current: 9, total: 100, pages: []int{6, 7, 8, 9, 10}, prev: "/dev/page/5", next: "/dev/page/10", jumpPrev: "/dev/page/5", lastURL: "/dev/page/10", totalPage: 10},
		{name: "last page", current: 10, total: 100, pages: []int{6, 7, 8, 9, 10}, prev: "/dev/page/5", jumpPrev: "/dev/page/5", lastURL: "/dev/page/10", totalPage: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.current, tt.total, 10, 5, "/dev/")

			var numbers []int
			for _, link := range p.Pages {
				numbers = append(numbers, link.Number)
				require.Equal(t, link.Number == tt.current, link.IsCurrent)
			}
			require.Equal(t, tt.pages, numbers)
			require.Equal(t, tt.totalPage, p.TotalPages)
			require.Equal(t, tt.prev, p.PrevURL)
			require.Equal(t, tt.next, p.NextURL)
			require.Equal(t, tt.prev != "", p.HasPrev)
			require.Equal(t, tt.next != "", p.HasNext)
			require.Equal(t, tt.jumpPrev, p.JumpPrevURL)
			require.Equal(t, tt.jumpNext, p.JumpNextURL)
			require.Equal(t, "/dev/", p.FirstURL)
			require.Equal(t, tt.lastURL, p.LastURL)
		})
	}
}

func TestPageURL(t *testing.T) {
	require.Equal(t, "/tag/go/", PageURL("/tag/go/", 1))
	require.Equal(t, "/tag/go/page/2", PageURL("/tag/go/", 2))
	require.Equal(t, 1, TotalPages(0, 5))
	require.Equal(t, 3, TotalPages(12, 5))
}

var testTemplates = map[string]string{
	"index.html":    `{{range .posts}}{{.Slug}} {{end}}|{{range .category_posts}}{{.Category.Slug}}:{{len .Posts}} {{end}}`,
	"category.html": `{{.category.Name}}|{{range .posts}}{{.Permalink}} {{end}}|{{with .pagination}}{{.CurrentPage}}/{{.TotalPages}}{{else}}single{{end}}`,
	"tag.html":      `#{{.tag}}|{{.post_count}}|{{with .pagination}}{{.CurrentPage}}{{else}}single{{end}}`,
	"tags.html":     `{{range .tags}}{{.Name}}={{.Count}} {{end}}`,
}

func fixture(t *testing.T) (*Writer, *config.Config, *metadata.Index) {
	t.Helper()
	cfg := config.Default()
	cfg.Build.OutputDir = t.TempDir()
	cfg.Build.PostsPerPage = 5
	cfg.Build.HomepagePostsLimit = 3

	engine, err := templates.New(testTemplates)
	require.NoError(t, err)

	idx := metadata.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		tags := []string{"go"}
		if i%2 == 0 {
			tags = append(tags, "even")
		}
		idx.Upsert(fmt.Sprintf("post-%02d", i), "dev", docmodel.FrontMatter{
			Title: fmt.Sprintf("Post %d", i),
			Date:  docmodel.PostDate{Posted: base.AddDate(0, 0, i)},
			Tags:  tags,
		})
	}
	idx.Upsert("secret", "archive", docmodel.FrontMatter{
		Title: "Secret",
		Date:  docmodel.PostDate{Posted: base.AddDate(1, 0, 0)},
		Tags:  []string{},
	})
	idx.Upsert("draft", "dev", docmodel.FrontMatter{
		Title:  "Draft",
		Date:   docmodel.PostDate{Posted: base.AddDate(2, 0, 0)},
		Tags:   []string{"go"},
		Hidden: true,
	})
	idx.SetCategoryInfo([]category.Category{
		{Slug: "dev", Name: "Development", Index: 1},
		{Slug: "archive", Name: "Archive", Index: 2, Hidden: true},
	})
	idx.Recalculate()

	gen := generator.New(engine, cfg)
	return New(gen, imagepipe.NewProcessor("")), cfg, idx
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	w, cfg, idx := fixture(t)
	out := cfg.Build.OutputDir

	summary, err := w.Generate(idx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.CategoryPages)
	require.Equal(t, 2, summary.TagPages)

	require.Equal(t, "post-12 post-11 post-10 |dev:3 ", read(t, filepath.Join(out, "index.html")))

	page1 := read(t, filepath.Join(out, "dev", "index.html"))
	require.Contains(t, page1, "Development|/dev/post-12/ ")
	require.Contains(t, page1, "|1/3")
	require.Contains(t, read(t, filepath.Join(out, "dev", "page", "2", "index.html")), "|2/3")
	require.Contains(t, read(t, filepath.Join(out, "dev", "page", "3", "index.html")), "/dev/post-02/ /dev/post-01/ |3/3")
	require.NoFileExists(t, filepath.Join(out, "dev", "page", "4", "index.html"))
	require.NoDirExists(t, filepath.Join(out, "archive"))

	require.Equal(t, "#go|12|1", read(t, filepath.Join(out, "tag", "go", "index.html")))
	require.FileExists(t, filepath.Join(out, "tag", "go", "page", "3", "index.html"))
	require.Equal(t, "#even|6|1", read(t, filepath.Join(out, "tag", "even", "index.html")))
	require.Equal(t, "#even|6|2", read(t, filepath.Join(out, "tag", "even", "page", "2", "index.html")))

	require.Equal(t, "go=12 even=6 ", read(t, filepath.Join(out, "tags", "index.html")))
}

func TestGenerateSinglePageHasNoPagination(t *testing.T) {
	w, cfg, idx := fixture(t)
	cfg.Build.PostsPerPage = 50

	_, err := w.Generate(idx)
	require.NoError(t, err)
	require.Contains(t, read(t, filepath.Join(cfg.Build.OutputDir, "dev", "index.html")), "|single")
	require.NoDirExists(t, filepath.Join(cfg.Build.OutputDir, "dev", "page"))
}

func TestGenerateMissingTemplate(t *testing.T) {
	w, cfg, idx := fixture(t)
	engine, err := templates.New(map[string]string{"index.html": "home"})
	require.NoError(t, err)
	w = New(generator.New(engine, cfg), nil)

	_, err = w.Generate(idx)
	require.Error(t, err)
}
