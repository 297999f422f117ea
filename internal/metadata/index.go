// Package metadata aggregates every parsed post for cross-referencing.
//
// The Index is populated in full before rendering starts so navigation,
// related posts, listings, feeds and the sitemap all see the whole corpus.
// Hidden posts, and posts filed under a hidden category, are stored so they
// stay addressable by slug but never appear in listings or counts.
package metadata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// Version identifies the on-disk schema. A mismatch discards the persisted index.
const Version = "1"

// PostMetadata is the lightweight projection of a post kept in the index.
type PostMetadata struct {
	Slug        string                `json:"slug"`
	Category    string                `json:"category"`
	FrontMatter docmodel.FrontMatter `json:"frontmatter"`
}

// URL returns the canonical site-relative URL of the post.
func (p PostMetadata) URL(encode bool) string {
	return docmodel.PostURL(p.Category, p.Slug, encode)
}

// TagCount pairs a tag with its number of visible posts.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Index is the aggregate of all posts.
type Index struct {
	Version        string              `json:"version"`
	Posts          []PostMetadata      `json:"posts"`
	CategoryCounts map[string]int      `json:"categories"`
	TagCounts      map[string]int      `json:"tags"`
	CategoryInfo   []category.Category `json:"category_info"`
}

// New returns an empty index.
func New() *Index {
	return &Index{
		Version:        Version,
		Posts:          []PostMetadata{},
		CategoryCounts: map[string]int{},
		TagCounts:      map[string]int{},
	}
}

// Load reads the index at path. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	// #nosec G304 -- path is the configured cache location.
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read metadata").
			WithContext("path", path).
			Build()
	}

	idx := New()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to parse metadata").
			WithContext("path", path).
			Build()
	}
	if idx.Version != Version {
		return New(), nil
	}
	idx.Recalculate()
	return idx, nil
}

// Save writes the index to path, creating the parent directory.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create metadata directory").
			WithContext("path", path).
			Build()
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to encode metadata").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write metadata").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Clone returns a deep copy suitable for sharing read-only with workers.
func (idx *Index) Clone() *Index {
	out := New()
	out.Posts = append(out.Posts, idx.Posts...)
	out.CategoryInfo = append(out.CategoryInfo, idx.CategoryInfo...)
	out.Recalculate()
	return out
}

// Upsert inserts or replaces the post identified by (category, slug).
func (idx *Index) Upsert(slug, categorySlug string, fm docmodel.FrontMatter) {
	entry := PostMetadata{Slug: slug, Category: categorySlug, FrontMatter: fm}
	replaced := false
	for i := range idx.Posts {
		if idx.Posts[i].Slug == slug && idx.Posts[i].Category == categorySlug {
			idx.Posts[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Posts = append(idx.Posts, entry)
	}
	idx.Recalculate()
}

// Remove drops the post identified by (category, slug).
func (idx *Index) Remove(slug, categorySlug string) {
	kept := idx.Posts[:0]
	for _, p := range idx.Posts {
		if p.Slug == slug && p.Category == categorySlug {
			continue
		}
		kept = append(kept, p)
	}
	idx.Posts = kept
	idx.Recalculate()
}

// Retain drops every post whose key is not in keep.
func (idx *Index) Retain(keep sets.Set[string]) {
	kept := idx.Posts[:0]
	for _, p := range idx.Posts {
		if keep.Has(Key(p.Category, p.Slug)) {
			kept = append(kept, p)
		}
	}
	idx.Posts = kept
	idx.Recalculate()
}

// Key identifies a post inside the index.
func Key(categorySlug, slug string) string { return categorySlug + "/" + slug }

// Recalculate rebuilds the category and tag counts from the listed posts.
func (idx *Index) Recalculate() {
	cats := map[string]int{}
	tags := map[string]int{}
	hidden := idx.hiddenCategories()
	for _, p := range idx.Posts {
		if !listed(p, hidden) {
			continue
		}
		cats[p.Category]++
		for _, t := range p.FrontMatter.Tags {
			tags[t]++
		}
	}
	idx.CategoryCounts = cats
	idx.TagCounts = tags
}

// SetCategoryInfo replaces the discovered categories and recounts, since
// hiding a category unlists its posts.
func (idx *Index) SetCategoryInfo(categories []category.Category) {
	idx.CategoryInfo = append([]category.Category(nil), categories...)
	idx.Recalculate()
}

// hiddenCategories returns the slugs of hidden categories. Inheritance from
// hidden parents is already applied at discovery.
func (idx *Index) hiddenCategories() sets.Set[string] {
	hidden := sets.New[string]()
	for _, c := range idx.CategoryInfo {
		if c.Hidden {
			hidden.Add(c.Slug)
		}
	}
	return hidden
}

// listed reports whether p may appear in listings, feeds, the sitemap and the
// search index.
func listed(p PostMetadata, hidden sets.Set[string]) bool {
	return !p.FrontMatter.Hidden && !hidden.Has(p.Category)
}

// FindCategory returns the discovered category with the given slug.
func (idx *Index) FindCategory(slug string) (category.Category, bool) {
	return category.Find(idx.CategoryInfo, slug)
}

// VisibleCategories returns non-hidden categories, sorted by index then name.
func (idx *Index) VisibleCategories() []category.Category {
	out := make([]category.Category, 0, len(idx.CategoryInfo))
	for _, c := range idx.CategoryInfo {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FindBySlug returns a post by identity, hidden or not.
func (idx *Index) FindBySlug(categorySlug, slug string) (PostMetadata, bool) {
	for _, p := range idx.Posts {
		if p.Slug == slug && p.Category == categorySlug {
			return p, true
		}
	}
	return PostMetadata{}, false
}

// Visible returns every listed post, most recent first.
func (idx *Index) Visible() []PostMetadata {
	return idx.filter(func(PostMetadata) bool { return true })
}

// RecentPosts returns up to n listed posts, most recent first.
func (idx *Index) RecentPosts(n int) []PostMetadata {
	posts := idx.Visible()
	if n >= 0 && len(posts) > n {
		posts = posts[:n]
	}
	return posts
}

// PostsByCategory returns listed posts in exactly categorySlug.
func (idx *Index) PostsByCategory(categorySlug string) []PostMetadata {
	return idx.filter(func(p PostMetadata) bool { return p.Category == categorySlug })
}

// PostsByCategoryTree returns listed posts in categorySlug and all of its
// descendants. Posts of a hidden child category are left out.
func (idx *Index) PostsByCategoryTree(categorySlug string) []PostMetadata {
	prefix := categorySlug + "/"
	return idx.filter(func(p PostMetadata) bool {
		return p.Category == categorySlug || strings.HasPrefix(p.Category, prefix)
	})
}

// PostsByTag returns listed posts carrying tag.
func (idx *Index) PostsByTag(tag string) []PostMetadata {
	return idx.filter(func(p PostMetadata) bool {
		for _, t := range p.FrontMatter.Tags {
			if t == tag {
				return true
			}
		}
		return false
	})
}

// Categories returns the slugs of categories with listed posts, sorted.
func (idx *Index) Categories() []string {
	out := make([]string, 0, len(idx.CategoryCounts))
	for c := range idx.CategoryCounts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Tags returns tags sorted by count descending, then name.
func (idx *Index) Tags() []TagCount {
	out := make([]TagCount, 0, len(idx.TagCounts))
	for name, count := range idx.TagCounts {
		out = append(out, TagCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (idx *Index) filter(keep func(PostMetadata) bool) []PostMetadata {
	out := make([]PostMetadata, 0)
	hidden := idx.hiddenCategories()
	for _, p := range idx.Posts {
		if !listed(p, hidden) || !keep(p) {
			continue
		}
		out = append(out, p)
	}
	SortByDate(out)
	return out
}

// SortByDate orders posts by posted date, most recent first.
func SortByDate(posts []PostMetadata) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].FrontMatter.Date.Posted.After(posts[j].FrontMatter.Date.Posted)
	})
}
