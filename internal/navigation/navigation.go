// Package navigation derives prev/next links and related posts from the
// metadata index.
package navigation

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

// RelatedCount is the number of related posts attached to a post page.
const RelatedCount = 4

// PostLink is a compact reference to another post.
type PostLink struct {
	Slug       string                       `json:"slug"`
	Title      string                       `json:"title"`
	URL        string                       `json:"url"`
	Category   string                       `json:"category"`
	Date       docmodel.PostDate            `json:"date"`
	CoverImage string                       `json:"cover_image,omitempty"`
	Thumbnail  *imagepipe.ThumbnailMetadata `json:"thumbnail_metadata,omitempty"`
}

// Navigation holds the neighbours of a post.
// Prev is the older post, Next the newer one.
type Navigation struct {
	Prev *PostLink `json:"prev"`
	Next *PostLink `json:"next"`
}

// Builder creates links against one metadata snapshot.
type Builder struct {
	index      *metadata.Index
	images     *imagepipe.Processor
	contentDir string
	encode     bool
	global     bool
}

// NewBuilder returns a Builder. images may be disabled, in which case links
// carry no thumbnail metadata.
func NewBuilder(index *metadata.Index, images *imagepipe.Processor, contentDir string, encode bool) *Builder {
	return &Builder{index: index, images: images, contentDir: contentDir, encode: encode}
}

// Global makes Build link across every listed post instead of within the
// post's category.
func (b *Builder) Global(global bool) *Builder {
	b.global = global
	return b
}

// Build returns the neighbours of (category, slug) among listed posts,
// ordered newest first.
func (b *Builder) Build(category, slug string) Navigation {
	var posts []metadata.PostMetadata
	if b.global {
		posts = b.index.Visible()
	} else {
		posts = b.index.PostsByCategory(category)
	}
	at := -1
	for i, p := range posts {
		if p.Slug == slug && p.Category == category {
			at = i
			break
		}
	}
	if at < 0 {
		return Navigation{}
	}

	var nav Navigation
	if at+1 < len(posts) {
		link := b.Link(posts[at+1])
		nav.Prev = &link
	}
	if at > 0 {
		link := b.Link(posts[at-1])
		nav.Next = &link
	}
	return nav
}

// Related returns up to n visible posts from the same category, newest
// first, excluding the post itself.
func (b *Builder) Related(category, slug string, n int) []PostLink {
	out := make([]PostLink, 0, n)
	for _, p := range b.index.PostsByCategory(category) {
		if len(out) == n {
			break
		}
		if p.Slug == slug {
			continue
		}
		out = append(out, b.Link(p))
	}
	return out
}

// Link builds the PostLink for p. Cover images are expected to be resolved
// site paths ("/category/post/cover.png").
func (b *Builder) Link(p metadata.PostMetadata) PostLink {
	link := PostLink{
		Slug:       p.Slug,
		Title:      p.FrontMatter.Title,
		URL:        p.URL(b.encode),
		Category:   p.Category,
		Date:       p.FrontMatter.Date,
		CoverImage: p.FrontMatter.Thumbnail(),
	}
	if link.CoverImage != "" && b.images.Enabled() {
		dir := filepath.Join(b.contentDir, filepath.FromSlash(p.Category))
		link.Thumbnail = b.images.ProcessThumbnail(imagepipe.ToRelative(link.CoverImage, p.Category), dir, p.Category)
	}
	return link
}
