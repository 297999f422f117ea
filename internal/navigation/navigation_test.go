package navigation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

func index() *metadata.Index {
	idx := metadata.New()
	add := func(cat, slug string, day int, hidden bool, cover string) {
		idx.Upsert(slug, cat, docmodel.FrontMatter{
			Title:      slug,
			Date:       docmodel.PostDate{Posted: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)},
			Tags:       []string{},
			Hidden:     hidden,
			CoverImage: cover,
		})
	}
	add("dev", "oldest", 1, false, "")
	add("dev", "middle", 2, false, "/dev/middle/cover.png")
	add("dev", "draft", 3, true, "")
	add("dev", "newest", 4, false, "")
	add("life", "elsewhere", 5, false, "")
	add("dev", "한글 글", 6, false, "")
	return idx
}

func TestBuild(t *testing.T) {
	b := NewBuilder(index(), imagepipe.NewProcessor(""), "", false)

	nav := b.Build("dev", "middle")
	require.NotNil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	require.Equal(t, "oldest", nav.Prev.Slug)
	require.Equal(t, "newest", nav.Next.Slug)
	require.Equal(t, "/dev/oldest/", nav.Prev.URL)

	nav = b.Build("dev", "oldest")
	require.Nil(t, nav.Prev)
	require.Equal(t, "middle", nav.Next.Slug)

	require.Equal(t, Navigation{}, b.Build("dev", "draft"))
	require.Equal(t, Navigation{}, b.Build("dev", "missing"))
}

func TestBuildGlobal(t *testing.T) {
	b := NewBuilder(index(), imagepipe.NewProcessor(""), "", false).Global(true)

	nav := b.Build("dev", "newest")
	require.Equal(t, "middle", nav.Prev.Slug)
	require.Equal(t, "elsewhere", nav.Next.Slug)
	require.Equal(t, "/life/elsewhere/", nav.Next.URL)

	nav = b.Build("life", "elsewhere")
	require.Equal(t, "newest", nav.Prev.Slug)
	require.Equal(t, "한글 글", nav.Next.Slug)

	require.Equal(t, Navigation{}, b.Build("life", "newest"))
	require.Equal(t, Navigation{}, b.Build("dev", "draft"))
}

func TestLinkEncodesURL(t *testing.T) {
	b := NewBuilder(index(), imagepipe.NewProcessor(""), "", true)
	nav := b.Build("dev", "newest")
	require.Equal(t, "/dev/%ED%95%9C%EA%B8%80%20%EA%B8%80/", nav.Next.URL)
}

func TestRelated(t *testing.T) {
	b := NewBuilder(index(), imagepipe.NewProcessor(""), "", false)

	var got []string
	for _, l := range b.Related("dev", "middle", RelatedCount) {
		got = append(got, l.Slug)
	}
	require.Equal(t, []string{"한글 글", "newest", "oldest"}, got)
	require.Len(t, b.Related("dev", "middle", 1), 1)
}

func TestLinkThumbnail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dev", "middle"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev", "middle", "cover.png"), []byte("x"), 0o600))

	b := NewBuilder(index(), imagepipe.NewProcessor("https://cdn.test"), dir, false)
	nav := b.Build("dev", "oldest")
	require.NotNil(t, nav.Next.Thumbnail)
	require.Equal(t, "https://cdn.test/images/dev/middle/cover.w500.png", nav.Next.Thumbnail.Src)
	require.Equal(t, "/dev/middle/cover.png", nav.Next.CoverImage)

	nav = b.Build("dev", "middle")
	require.Nil(t, nav.Prev.Thumbnail)
}
