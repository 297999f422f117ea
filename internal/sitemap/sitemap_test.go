package sitemap

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

func fixture(t *testing.T) (*config.Config, *metadata.Index, []*docmodel.Page) {
	t.Helper()
	cfg := config.Default()
	cfg.Site.URL = "https://example.com"
	cfg.Build.OutputDir = t.TempDir()
	cfg.Build.PostsPerPage = 2

	idx := metadata.New()
	day := func(d int) docmodel.PostDate {
		return docmodel.PostDate{Posted: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)}
	}
	modified := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	idx.Upsert("a", "dev", docmodel.FrontMatter{Title: "A", Date: docmodel.PostDate{Posted: day(1).Posted, Modified: &modified}, Tags: []string{"go"}})
	idx.Upsert("b", "dev", docmodel.FrontMatter{Title: "B", Date: day(2), Tags: []string{"go"}})
	idx.Upsert("c d", "dev", docmodel.FrontMatter{Title: "C", Date: day(3), Tags: []string{"go"}})
	idx.Upsert("hidden", "dev", docmodel.FrontMatter{Title: "H", Date: day(4), Tags: []string{"go"}, Hidden: true})
	idx.Upsert("x", "private", docmodel.FrontMatter{Title: "X", Date: day(5), Tags: []string{}})
	idx.SetCategoryInfo([]category.Category{
		{Slug: "dev", Name: "Dev", Index: 1},
		{Slug: "private", Name: "Private", Index: 2, Hidden: true},
	})
	idx.Recalculate()

	pages := []*docmodel.Page{
		{Slug: "about", FrontMatter: docmodel.PageFrontMatter{Title: "About"}},
		{Slug: "secret", FrontMatter: docmodel.PageFrontMatter{Title: "Secret", Hidden: true}},
	}
	return cfg, idx, pages
}

func TestEntries(t *testing.T) {
	cfg, idx, pages := fixture(t)
	urls := Entries(cfg, idx, pages)

	byLoc := map[string]URL{}
	for _, u := range urls {
		byLoc[u.Loc] = u
	}

	require.Equal(t, URL{Loc: "https://example.com", ChangeFreq: "daily", Priority: "1.0"}, urls[0])
	require.Equal(t, "2024-04-01T00:00:00Z", byLoc["https://example.com/dev/a/"].LastMod)
	require.Equal(t, "0.8", byLoc["https://example.com/dev/a/"].Priority)
	require.Contains(t, byLoc, "https://example.com/dev/c%20d/")
	require.NotContains(t, byLoc, "https://example.com/dev/hidden/")

	require.Equal(t, "0.7", byLoc["https://example.com/dev/"].Priority)
	require.Equal(t, "0.5", byLoc["https://example.com/dev/page/2/"].Priority)
	require.NotContains(t, byLoc, "https://example.com/dev/page/3/")
	require.NotContains(t, byLoc, "https://example.com/private/")
	require.NotContains(t, byLoc, "https://example.com/private/x/")

	require.Equal(t, "0.6", byLoc["https://example.com/tags/"].Priority)
	require.Equal(t, "0.5", byLoc["https://example.com/tag/go/"].Priority)
	require.Equal(t, "0.4", byLoc["https://example.com/tag/go/page/2/"].Priority)

	require.Equal(t, "monthly", byLoc["https://example.com/about/"].ChangeFreq)
	require.NotContains(t, byLoc, "https://example.com/secret/")
}

func TestGenerate(t *testing.T) {
	cfg, idx, pages := fixture(t)
	require.NoError(t, Generate(cfg, idx, pages))

	data, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)

	var parsed urlSet
	require.NoError(t, xml.Unmarshal(data, &parsed))
	require.Equal(t, Entries(cfg, idx, pages), parsed.URLs)

	robots, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "robots.txt"))
	require.NoError(t, err)
	require.Equal(t, "User-agent: *\nAllow: /\n\nSitemap: https://example.com/sitemap.xml\n", string(robots))
}
