package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func contentWithCategory(t *testing.T, slug string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "posts")
	dir := filepath.Join(root, slug)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.md"), []byte("---\ntitle: x\n---\n"), 0o600))
	return root
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"Rust & Go: A Tale!":   "rust--go-a-tale",
		"Release 2.0":          "release-20",
		"Ünïcode Títle":        "ünïcode-títle",
		"already-slugged-text": "already-slugged-text",
		"?!":                   "",
	}
	for in, want := range tests {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestNewPost(t *testing.T) {
	content := contentWithCategory(t, "dev")
	now := time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

	post, err := NewPost(content, "dev", "My First Post", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(content, "dev", "my-first-post.md"), post.Path)
	require.Equal(t, "my-first-post", post.Slug)

	data, err := os.ReadFile(post.Path)
	require.NoError(t, err)
	require.Equal(t, "---\ntitle: \"My First Post\"\ndate: 2024-03-09T08:30:00Z\ncategory: dev\ntags: []\nhidden: false\n---\n\nWrite your post here...\n", string(data))

	parsed, err := docmodel.ParsePost(post.Path)
	require.NoError(t, err)
	require.Equal(t, "My First Post", parsed.FrontMatter.Title)
	require.Equal(t, "dev", parsed.Category)

	var out bytes.Buffer
	post.Print(&out)
	require.Contains(t, out.String(), "✅ Created: "+post.Path)
	require.Contains(t, out.String(), "Slug: my-first-post")
}

func TestNewPost_AlreadyExists(t *testing.T) {
	content := contentWithCategory(t, "dev")

	_, err := NewPost(content, "dev", "Existing", time.Now())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))
}

func TestNewPost_MissingCategory(t *testing.T) {
	content := contentWithCategory(t, "dev")

	_, err := NewPost(content, "ops", "Anything", time.Now())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	available, ok := AvailableCategories(err)
	require.True(t, ok)
	require.Len(t, available, 1)
	require.Equal(t, "dev", available[0].Slug)

	var out bytes.Buffer
	PrintMissingCategory(&out, content, "ops", available)
	require.Contains(t, out.String(), "Category 'ops' doesn't exist yet.")
	require.Contains(t, out.String(), "  - dev (Dev)")
	require.NoFileExists(t, filepath.Join(content, "ops", "anything.md"))
}

func TestNewPost_NoContentDir(t *testing.T) {
	content := filepath.Join(t.TempDir(), "missing")

	_, err := NewPost(content, "dev", "Anything", time.Now())
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	available, ok := AvailableCategories(err)
	require.True(t, ok)
	require.Empty(t, available)

	var out bytes.Buffer
	PrintMissingCategory(&out, content, "dev", available)
	require.Contains(t, out.String(), "No categories found.")
	require.Contains(t, out.String(), "echo 'name: Dev'")
}

func TestNewPost_EmptySlug(t *testing.T) {
	content := contentWithCategory(t, "dev")

	_, err := NewPost(content, "dev", "!!!", time.Now())
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}
