// Package sitemap writes sitemap.xml and robots.txt.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/indices"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

const namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one sitemap entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

func priority(p float64) string { return strconv.FormatFloat(p, 'f', 1, 64) }

// Entries lists every public URL of the site: the homepage, visible posts,
// visible categories and their extra pages, tags and their extra pages, and
// non-hidden standalone pages. Paths are always percent-encoded.
func Entries(cfg *config.Config, idx *metadata.Index, pages []*docmodel.Page) []URL {
	site := strings.TrimSuffix(cfg.Site.URL, "/")
	perPage := cfg.Build.PostsPerPage
	urls := []URL{{Loc: cfg.Site.URL, ChangeFreq: "daily", Priority: priority(1.0)}}

	for _, p := range idx.Visible() {
		urls = append(urls, URL{
			Loc:        site + p.URL(true),
			LastMod:    p.FrontMatter.Date.LastModified().Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   priority(0.8),
		})
	}

	for _, c := range idx.VisibleCategories() {
		base := site + "/" + docmodel.EncodePath(c.Slug, true) + "/"
		urls = append(urls, URL{Loc: base, ChangeFreq: "weekly", Priority: priority(0.7)})
		urls = appendPages(urls, base, len(idx.PostsByCategoryTree(c.Slug)), perPage, 0.5)
	}

	urls = append(urls, URL{Loc: site + "/tags/", ChangeFreq: "weekly", Priority: priority(0.6)})
	for _, t := range idx.Tags() {
		base := site + "/tag/" + docmodel.EncodePath(t.Name, true) + "/"
		urls = append(urls, URL{Loc: base, ChangeFreq: "weekly", Priority: priority(0.5)})
		urls = appendPages(urls, base, t.Count, perPage, 0.4)
	}

	for _, p := range pages {
		if p.FrontMatter.Hidden {
			continue
		}
		urls = append(urls, URL{
			Loc:        site + "/" + docmodel.EncodePath(p.Slug, true) + "/",
			ChangeFreq: "monthly",
			Priority:   priority(0.6),
		})
	}
	return urls
}

func appendPages(urls []URL, base string, total, perPage int, prio float64) []URL {
	for n := 2; n <= indices.TotalPages(total, perPage); n++ {
		urls = append(urls, URL{
			Loc:        indices.PageURL(base, n) + "/",
			ChangeFreq: "weekly",
			Priority:   priority(prio),
		})
	}
	return urls
}

// Generate writes {out}/sitemap.xml and {out}/robots.txt.
func Generate(cfg *config.Config, idx *metadata.Index, pages []*docmodel.Page) error {
	urls := Entries(cfg, idx, pages)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(urlSet{Xmlns: namespace, URLs: urls}); err != nil {
		return err
	}
	buf.WriteString("\n")
	if err := generator.WriteFile(filepath.Join(cfg.Build.OutputDir, "sitemap.xml"), buf.Bytes()); err != nil {
		return err
	}

	if err := generator.WriteFile(filepath.Join(cfg.Build.OutputDir, "robots.txt"), []byte(Robots(cfg.Site.URL))); err != nil {
		return err
	}
	slog.Debug("Generated sitemap", logfields.Count(len(urls)))
	return nil
}

// Robots returns the robots.txt body pointing crawlers at the sitemap.
func Robots(siteURL string) string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + strings.TrimSuffix(siteURL, "/") + "/sitemap.xml\n"
}
