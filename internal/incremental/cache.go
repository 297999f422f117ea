package incremental

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// Version identifies the on-disk cache schema. A mismatch discards the cache.
const Version = "1"

// Entry records what a source file looked like when its output was last written.
type Entry struct {
	ContentFingerprint  string `json:"content_fingerprint"`
	TemplateFingerprint string `json:"template_fingerprint"`
	OutputPath          string `json:"output_path"`
	BuiltAt             string `json:"built_at"`
}

// BuildCache maps normalized source paths to their last build entry.
//
// A BuildCache is not safe for concurrent use; the orchestrator guards lookups
// with its own mutex and applies updates from a single goroutine.
type BuildCache struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`

	now func() time.Time
}

// New returns an empty cache at the current schema version.
func New() *BuildCache {
	return &BuildCache{Version: Version, Entries: map[string]Entry{}, now: time.Now}
}

// Load reads the cache at path. A missing file, or one written by another schema
// version, yields an empty cache.
func Load(path string) (*BuildCache, error) {
	// #nosec G304 -- path is the configured cache location.
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read build cache").
			WithContext("path", path).
			Build()
	}

	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to parse build cache").
			WithContext("path", path).
			Build()
	}
	if c.Version != Version {
		return New(), nil
	}
	if c.Entries == nil {
		c.Entries = map[string]Entry{}
	}
	return c, nil
}

// Key normalizes a source path into a cache key.
func Key(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// NeedsRebuild reports whether path has no entry or either fingerprint changed.
func (c *BuildCache) NeedsRebuild(path, contentFingerprint, templateFingerprint string) bool {
	entry, ok := c.Entries[Key(path)]
	if !ok {
		return true
	}
	return entry.ContentFingerprint != contentFingerprint || entry.TemplateFingerprint != templateFingerprint
}

// UpdateEntry records a successful build of path.
func (c *BuildCache) UpdateEntry(path, contentFingerprint, templateFingerprint, outputPath string) {
	if c.Entries == nil {
		c.Entries = map[string]Entry{}
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	c.Entries[Key(path)] = Entry{
		ContentFingerprint:  contentFingerprint,
		TemplateFingerprint: templateFingerprint,
		OutputPath:          outputPath,
		BuiltAt:             now().UTC().Format(time.RFC3339),
	}
}

// Get returns the entry for path.
func (c *BuildCache) Get(path string) (Entry, bool) {
	e, ok := c.Entries[Key(path)]
	return e, ok
}

// Prune drops entries whose source is not in existing and returns how many were removed.
func (c *BuildCache) Prune(existing []string) int {
	keep := sets.New[string]()
	for _, p := range existing {
		keep.Add(Key(p))
	}
	removed := 0
	for k := range c.Entries {
		if !keep.Has(k) {
			delete(c.Entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries.
func (c *BuildCache) Len() int { return len(c.Entries) }

// Save writes the cache to path, creating the parent directory.
func (c *BuildCache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create cache directory").
			WithContext("path", path).
			Build()
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to encode build cache").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write build cache").
			WithContext("path", path).
			Build()
	}
	return nil
}
