package docmodel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func writePost(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParsePost_DerivesIdentityFromPath(t *testing.T) {
	path := writePost(t, "content/posts/work/apps/my-first-app.md", `---
title: "Test Post"
date: 2024-01-15T10:00:00Z
tags: [test, example]
hidden: false
---

# Hello
`)

	post, err := ParsePost(path)
	require.NoError(t, err)
	require.Equal(t, "my-first-app", post.Slug)
	require.Equal(t, "work/apps", post.Category)
	require.Equal(t, "Test Post", post.FrontMatter.Title)
	require.Equal(t, []string{"test", "example"}, post.FrontMatter.Tags)
	require.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), post.FrontMatter.Date.Posted.UTC())
	require.Nil(t, post.FrontMatter.Date.Modified)
	require.True(t, post.FrontMatter.Comments)
	require.Equal(t, "# Hello", post.Body)
	require.Equal(t, "/work/apps/my-first-app/", post.URL(false))
}

func TestParsePost_DateMappingAndAliases(t *testing.T) {
	path := writePost(t, "content/posts/dev/aliases.md", `---
title: Aliases
date:
  posted: 2024-01-15 10:00:00
  modified: 2024-02-01
coverImage: ./cover.png
og_image: ./og.png
displayAd: true
comments: false
---
body
`)

	post, err := ParsePost(path)
	require.NoError(t, err)
	fm := post.FrontMatter
	require.NotNil(t, fm.Date.Modified)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *fm.Date.Modified)
	require.Equal(t, *fm.Date.Modified, fm.Date.LastModified())
	require.Equal(t, "./cover.png", fm.CoverImage)
	require.Equal(t, "./og.png", fm.OGImage)
	require.Equal(t, "./cover.png", fm.Thumbnail())
	require.True(t, fm.DisplayAd)
	require.False(t, fm.Comments)
	require.Equal(t, []string{}, fm.Tags)
}

func TestParsePost_Errors(t *testing.T) {
	cases := []struct {
		name    string
		rel     string
		content string
		want    string
	}{
		{"missing title", "content/posts/dev/a.md", "---\ndate: 2024-01-15T10:00:00Z\n---\nbody", "title"},
		{"empty title", "content/posts/dev/a.md", "---\ntitle: \"\"\ndate: 2024-01-15T10:00:00Z\n---\nbody", "title"},
		{"missing date", "content/posts/dev/a.md", "---\ntitle: A\n---\nbody", "date"},
		{"invalid date", "content/posts/dev/a.md", "---\ntitle: A\ndate: not-a-date\n---\nbody", "invalid date"},
		{"single delimiter", "content/posts/dev/a.md", "---\ntitle: A\ndate: 2024-01-15\nbody", "invalid frontmatter format"},
		{"no delimiters", "content/posts/dev/a.md", "just text", "invalid frontmatter format"},
		{"no category", "content/posts/a.md", "---\ntitle: A\ndate: 2024-01-15\n---\nbody", "category"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePost(writePost(t, tc.rel, tc.content))
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryFormat))
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParsePost_MissingFileIsFilesystemError(t *testing.T) {
	_, err := ParsePost(filepath.Join(t.TempDir(), "content/posts/dev/missing.md"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestCategoryFromPath(t *testing.T) {
	cat, err := CategoryFromPath("content/posts/a/b/c/post.md")
	require.NoError(t, err)
	require.Equal(t, "a/b/c", cat)

	_, err = CategoryFromPath("content/drafts/a/post.md")
	require.Error(t, err)
}

func TestParsePage(t *testing.T) {
	t.Run("without front matter", func(t *testing.T) {
		page, err := ParsePage(writePost(t, "content/pages/about-me.md", "# About\n"))
		require.NoError(t, err)
		require.Equal(t, "about-me", page.Slug)
		require.Equal(t, "about me", page.FrontMatter.Title)
		require.True(t, page.FrontMatter.Comments)
		require.Equal(t, "# About\n", page.Body)
	})

	t.Run("with front matter", func(t *testing.T) {
		page, err := ParsePage(writePost(t, "content/pages/contact.md",
			"---\ntitle: Contact\ntemplate: wide.html\ncomments: false\n---\nHi"))
		require.NoError(t, err)
		require.Equal(t, "Contact", page.FrontMatter.Title)
		require.Equal(t, "wide.html", page.FrontMatter.Template)
		require.False(t, page.FrontMatter.Comments)
		require.Equal(t, "Hi", page.Body)
	})
}

func TestEncodePath(t *testing.T) {
	require.Equal(t, "dev/hello world", EncodePath("dev/hello world", false))
	require.Equal(t, "dev/hello%20world", EncodePath("dev/hello world", true))
	require.Equal(t, "/%EA%B0%9C%EB%B0%9C/post/", PostURL("개발", "post", true))
}
