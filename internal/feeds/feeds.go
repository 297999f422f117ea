// Package feeds writes the RSS 2.0 and Atom syndication documents.
package feeds

import (
	"bytes"
	"encoding/xml"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

// Limit is the number of entries in every feed.
const Limit = 10

// Language is the channel language advertised by RSS feeds.
const Language = "ko-KR"

// ContentFunc returns the HTML body of a post for feed entries.
type ContentFunc func(p metadata.PostMetadata) string

// Options configures feed generation.
type Options struct {
	// Content supplies entry bodies. When nil, or when it returns "", the
	// post description (or title) is used.
	Content ContentFunc
	// Now stamps lastBuildDate and the Atom feed's updated element.
	Now func() time.Time
}

// Writer produces feed.xml, {category}/feed.xml and atom.xml.
type Writer struct {
	cfg  *config.Config
	opts Options
}

// New returns a feed Writer.
func New(cfg *config.Config, opts Options) *Writer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Writer{cfg: cfg, opts: opts}
}

// Generate writes every feed for idx and returns the number of files written.
func (w *Writer) Generate(idx *metadata.Index) (int, error) {
	written := 0
	recent := idx.RecentPosts(Limit)

	if len(recent) > 0 {
		channel := w.channel(w.cfg.Site.Title, w.cfg.Site.Description, w.siteURL("/feed.xml"), w.cfg.Site.URL, recent, idx)
		if err := writeXML(filepath.Join(w.cfg.Build.OutputDir, "feed.xml"), newRSS(channel)); err != nil {
			return written, err
		}
		written++

		if err := writeXML(filepath.Join(w.cfg.Build.OutputDir, "atom.xml"), w.atom(recent)); err != nil {
			return written, err
		}
		written++
	}

	for _, c := range idx.VisibleCategories() {
		posts := idx.PostsByCategoryTree(c.Slug)
		if len(posts) == 0 {
			continue
		}
		if len(posts) > Limit {
			posts = posts[:Limit]
		}
		encoded := docmodel.EncodePath(c.Slug, w.cfg.Build.EncodeFilenames)
		description := c.Description
		if description == "" {
			description = c.Name + " posts from " + w.cfg.Site.Title
		}
		channel := w.channel(
			w.cfg.Site.Title+" - "+c.Name,
			description,
			w.siteURL("/"+encoded+"/feed.xml"),
			w.siteURL("/"+encoded+"/"),
			posts, idx,
		)
		out := filepath.Join(w.cfg.Build.OutputDir, filepath.FromSlash(encoded), "feed.xml")
		if err := writeXML(out, newRSS(channel)); err != nil {
			return written, err
		}
		written++
	}

	slog.Debug("Generated feeds", logfields.Count(written))
	return written, nil
}

func (w *Writer) siteURL(path string) string {
	return strings.TrimSuffix(w.cfg.Site.URL, "/") + path
}

func (w *Writer) postURL(p metadata.PostMetadata) string {
	return w.siteURL(p.URL(w.cfg.Build.EncodeFilenames))
}

func (w *Writer) content(p metadata.PostMetadata) string {
	if w.opts.Content != nil {
		if html := w.opts.Content(p); html != "" {
			return html
		}
	}
	return summary(p)
}

func summary(p metadata.PostMetadata) string {
	if p.FrontMatter.Description != "" {
		return p.FrontMatter.Description
	}
	return p.FrontMatter.Title
}

func (w *Writer) channel(title, description, self, link string, posts []metadata.PostMetadata, idx *metadata.Index) rssChannel {
	ch := rssChannel{
		Title:           title,
		Description:     description,
		Language:        Language,
		AtomLink:        atomLink{Href: self, Rel: "self", Type: "application/rss+xml"},
		Link:            link,
		LastBuildDate:   w.opts.Now().UTC().Format(time.RFC1123Z),
		UpdatePeriod:    "hourly",
		UpdateFrequency: 1,
	}
	for _, p := range posts {
		url := w.postURL(p)
		categoryName := p.Category
		if c, ok := idx.FindCategory(p.Category); ok && c.Name != "" {
			categoryName = c.Name
		}
		item := rssItem{
			Title:       p.FrontMatter.Title,
			Link:        url,
			Creator:     cdata{Text: w.cfg.Site.Author},
			PubDate:     p.FrontMatter.Date.Posted.Format(time.RFC1123Z),
			Categories:  []cdata{{Text: categoryName}},
			GUID:        rssGUID{IsPermaLink: "false", Value: url},
			Description: cdata{Text: summary(p)},
			Content:     cdata{Text: w.content(p)},
		}
		for _, tag := range p.FrontMatter.Tags {
			item.Categories = append(item.Categories, cdata{Text: tag})
		}
		ch.Items = append(ch.Items, item)
	}
	return ch
}

func (w *Writer) atom(posts []metadata.PostMetadata) atomFeed {
	feed := atomFeed{
		Xmlns:    "http://www.w3.org/2005/Atom",
		Lang:     "ko",
		Title:    w.cfg.Site.Title,
		Subtitle: w.cfg.Site.Description,
		Links: []atomLink{
			{Href: w.siteURL("/atom.xml"), Rel: "self", Type: "application/atom+xml"},
			{Href: w.cfg.Site.URL, Rel: "alternate", Type: "text/html"},
		},
		ID:      w.cfg.Site.URL,
		Updated: w.opts.Now().UTC().Format(time.RFC3339),
		Author:  atomAuthor{Name: w.cfg.Site.Author},
	}
	for _, p := range posts {
		url := w.postURL(p)
		entry := atomEntry{
			Title:     p.FrontMatter.Title,
			Link:      atomLink{Href: url, Rel: "alternate", Type: "text/html"},
			ID:        EntryID(url),
			Published: p.FrontMatter.Date.Posted.Format(time.RFC3339),
			Updated:   p.FrontMatter.Date.LastModified().Format(time.RFC3339),
			Author:    atomAuthor{Name: w.cfg.Site.Author},
			Summary:   atomText{Type: "text", Text: summary(p)},
			Content:   atomCDATA{Type: "html", Text: w.content(p)},
		}
		for _, tag := range p.FrontMatter.Tags {
			entry.Categories = append(entry.Categories, atomCategory{Term: tag})
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}

// EntryID derives a stable Atom id from a post URL.
func EntryID(url string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

func writeXML(path string, v any) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.WriteString("\n")
	return generator.WriteFile(path, buf.Bytes())
}
