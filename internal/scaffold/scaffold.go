// Package scaffold creates new post files.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/category"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ContextAvailable is the error context key holding the discovered categories
// when the requested one does not exist.
const ContextAvailable = "available"

const postTemplate = `---
title: "%s"
date: %s
category: %s
tags: []
hidden: false
---

Write your post here...
`

// Post describes a created post file.
type Post struct {
	Path     string
	Title    string
	Category string
	Slug     string
}

// Slugify lower-cases title, turns spaces into "-" and keeps only letters,
// digits and "-".
func Slugify(title string) string {
	lower := cases.Lower(language.Und).String(title)
	var b strings.Builder
	for _, r := range strings.ReplaceAll(lower, " ", "-") {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewPost writes a post skeleton to {contentDir}/{cat}/{slug}.md.
//
// A missing category is a not_found error carrying the discovered categories
// under ContextAvailable. An existing file is an already_exists error.
func NewPost(contentDir, cat, title string, now time.Time) (*Post, error) {
	var categories []category.Category
	if st, err := os.Stat(contentDir); err == nil && st.IsDir() {
		found, err := category.Discover(contentDir)
		if err != nil {
			return nil, err
		}
		categories = found
	}
	if !category.Exists(categories, cat) {
		return nil, errors.NotFoundError(fmt.Sprintf("Category '%s' doesn't exist yet", cat)).
			WithContext("category", cat).
			WithContext(ContextAvailable, categories).
			Build()
	}

	slug := Slugify(title)
	if slug == "" {
		return nil, errors.ValidationError("title produces an empty slug").
			WithContext("title", title).
			Build()
	}

	path := filepath.Join(contentDir, filepath.FromSlash(cat), slug+".md")
	if _, err := os.Stat(path); err == nil {
		return nil, errors.AlreadyExistsError(fmt.Sprintf("Post already exists: %s", path)).
			WithContext("path", path).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create category directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	content := fmt.Sprintf(postTemplate, title, now.UTC().Format(time.RFC3339), cat)
	// #nosec G304 -- path is built from the content directory and a sanitised slug.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.AlreadyExistsError(fmt.Sprintf("Post already exists: %s", path)).
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create post").
			WithContext("path", path).
			Build()
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write post").
			WithContext("path", path).
			Build()
	}
	if err := f.Close(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write post").
			WithContext("path", path).
			Build()
	}

	return &Post{Path: path, Title: title, Category: cat, Slug: slug}, nil
}

// Print writes the creation summary.
func (p *Post) Print(out io.Writer) {
	_, _ = fmt.Fprintf(out, "✅ Created: %s\n", p.Path)
	_, _ = fmt.Fprintf(out, "   Title: %s\n", p.Title)
	_, _ = fmt.Fprintf(out, "   Category: %s\n", p.Category)
	_, _ = fmt.Fprintf(out, "   Slug: %s\n", p.Slug)
}

// PrintMissingCategory explains how to create cat, listing the categories
// that already exist.
func PrintMissingCategory(out io.Writer, contentDir, cat string, available []category.Category) {
	dir := filepath.ToSlash(filepath.Join(contentDir, cat))
	_, _ = fmt.Fprintf(out, "⚠️  Category '%s' doesn't exist yet.\n\n", cat)

	if len(available) == 0 {
		_, _ = fmt.Fprintln(out, "No categories found. To create one:")
		_, _ = fmt.Fprintf(out, "  1. Create a directory: mkdir -p %s\n", dir)
		_, _ = fmt.Fprintf(out, "  2. Optionally add metadata: echo 'name: %s' > %s/%s\n", category.DisplayName(cat), dir, category.MetaFile)
		_, _ = fmt.Fprintln(out, "  3. Run this command again")
		return
	}

	_, _ = fmt.Fprintln(out, "Available categories:")
	for _, c := range available {
		_, _ = fmt.Fprintf(out, "  - %s (%s)\n", c.Slug, c.Name)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "To create a new category:")
	_, _ = fmt.Fprintf(out, "  1. Create a directory: mkdir -p %s\n", dir)
	_, _ = fmt.Fprintf(out, "  2. Optionally add metadata: echo 'name: Your Name' > %s/%s\n", dir, category.MetaFile)
	_, _ = fmt.Fprintln(out, "  3. Add at least one post to the category")
	_, _ = fmt.Fprintln(out, "  4. Run this command again")
}

// AvailableCategories extracts the categories attached to a not_found error
// returned by NewPost.
func AvailableCategories(err error) ([]category.Category, bool) {
	ce, ok := errors.AsClassified(err)
	if !ok || !ce.IsCategory(errors.CategoryNotFound) {
		return nil, false
	}
	v, ok := ce.Context().Get(ContextAvailable)
	if !ok {
		return nil, false
	}
	cats, ok := v.([]category.Category)
	return cats, ok
}
