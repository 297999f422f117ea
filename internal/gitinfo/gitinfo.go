// Package gitinfo reads commit dates for content files from the enclosing
// git repository.
package gitinfo

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is an opened repository. A nil *Repo answers every query with the zero time.
type Repo struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	cache map[string]time.Time
}

// Open finds the repository containing dir. It returns (nil, nil) when dir
// is not inside a repository.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root(), cache: map[string]time.Time{}}, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string {
	if r == nil {
		return ""
	}
	return r.root
}

// LastCommitTime returns the committer time of the newest commit on HEAD
// that touches path, or the zero time when there is none.
func (r *Repo) LastCommitTime(path string) (time.Time, error) {
	if r == nil {
		return time.Time{}, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return time.Time{}, fmt.Errorf("relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[rel]; ok {
		return t, nil
	}

	iter, err := r.repo.Log(&git.LogOptions{FileName: &rel, Order: git.LogOrderCommitterTime})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// An empty repository has no HEAD yet.
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var when time.Time
	commit, err := iter.Next()
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return time.Time{}, fmt.Errorf("walk history: %w", err)
	default:
		when = commitTime(commit)
	}
	r.cache[rel] = when
	return when, nil
}

func commitTime(c *object.Commit) time.Time {
	return c.Committer.When.UTC()
}
