package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path   string
		ignore bool
	}{
		{"content/posts/dev/hello.md", false},
		{"content/posts/dev/.category.yaml", false},
		{"templates/post.html", false},
		{"content/posts/dev/.hello.md.swp", true},
		{"content/posts/dev/hello.md.swx", true},
		{"content/posts/dev/hello.md~", true},
		{"content/posts/dev/#hello.md#", true},
		{"content/posts/dev/.DS_Store", true},
		{"static/Thumbs.db", true},
		{"content/posts/dev/4913", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.ignore, shouldIgnoreEvent(tt.path))
		})
	}
}

func TestWatcher_IgnoredDirs(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(nil, []string{filepath.Join(root, "dist")})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.True(t, w.inIgnoredDir(filepath.Join(root, "dist")))
	require.True(t, w.inIgnoredDir(filepath.Join(root, "dist", "dev", "index.html")))
	require.False(t, w.inIgnoredDir(filepath.Join(root, "distant", "a.md")))
}

func TestWatcher_TriggersOnChange(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content", "dev")
	require.NoError(t, os.MkdirAll(content, 0o750))

	w, err := NewWatcher([]string{filepath.Join(root, "content")}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	var calls atomic.Int32
	go func() { _ = w.Run(t.Context(), func() { calls.Add(1) }) }()

	require.NoError(t, os.WriteFile(filepath.Join(content, "hello.md"), []byte("hi"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	// Directories created after start are watched too.
	calls.Store(0)
	nested := filepath.Join(root, "content", "ops")
	require.NoError(t, os.Mkdir(nested, 0o750))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	calls.Store(0)
	require.NoError(t, os.WriteFile(filepath.Join(nested, "new.md"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
}
