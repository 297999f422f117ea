package search

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

func index() *metadata.Index {
	idx := metadata.New()
	idx.Upsert("goroutines", "dev", docmodel.FrontMatter{
		Title:       "Understanding Goroutines",
		Date:        docmodel.PostDate{Posted: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		Tags:        []string{"go", "concurrency"},
		Description: "Lightweight threads",
	})
	idx.Upsert("coffee", "life", docmodel.FrontMatter{
		Title: "Morning coffee",
		Date:  docmodel.PostDate{Posted: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	idx.Upsert("secret", "dev", docmodel.FrontMatter{
		Title:  "Secret goroutine tricks",
		Date:   docmodel.PostDate{Posted: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		Tags:   []string{},
		Hidden: true,
	})
	return idx
}

func TestDocuments(t *testing.T) {
	docs := Documents(index(), false, func(p metadata.PostMetadata) string {
		if p.Slug == "coffee" {
			return "fixed"
		}
		return ""
	})

	require.Len(t, docs, 2)
	require.Equal(t, "coffee", docs[0].Slug)
	require.Equal(t, "/life/coffee/", docs[0].URL)
	require.Equal(t, []string{}, docs[0].Tags)
	require.Equal(t, "fixed", docs[0].Fingerprint)
	require.NotEmpty(t, docs[1].Fingerprint)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), IndexFile)
	require.NoError(t, WriteJSON(path, Documents(index(), false, nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	require.Equal(t, "Morning coffee", raw[0]["title"])
	require.Equal(t, "2024-03-01T00:00:00Z", raw[0]["date"])
	require.NotContains(t, raw[0], "Fingerprint")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("title: A", "body")
	require.Equal(t, a, Fingerprint("title: A", "body"))
	require.NotEqual(t, a, Fingerprint("title: A", "other body"))
}

func TestStoreSyncAndQuery(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "out", "search.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	docs := Documents(index(), false, nil)
	stats, err := store.Sync(ctx, docs)
	require.NoError(t, err)
	require.Equal(t, SyncStats{Inserted: 2}, stats)

	stats, err = store.Sync(ctx, docs)
	require.NoError(t, err)
	require.Equal(t, SyncStats{Unchanged: 2}, stats)

	docs[1].Fingerprint = "changed"
	docs[1].Description = "Green threads"
	stats, err = store.Sync(ctx, docs[1:])
	require.NoError(t, err)
	require.Equal(t, SyncStats{Updated: 1, Deleted: 1}, stats)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	found, err := store.Query(ctx, "GREEN", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "goroutines", found[0].Slug)
	require.Equal(t, []string{"go", "concurrency"}, found[0].Tags)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), found[0].Date)

	found, err = store.Query(ctx, "concurrency", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = store.Query(ctx, "coffee", 10)
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = store.Query(ctx, "%", 10)
	require.NoError(t, err)
	require.Empty(t, found)
}
