// Package category discovers the category tree from the post content directory.
package category

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// MetaFile is the optional per-directory category metadata file.
const MetaFile = ".category.yaml"

// DefaultIndex is the sort index of categories that do not declare one.
const DefaultIndex int32 = 999

// Category is a content directory with its display metadata.
type Category struct {
	Slug        string `yaml:"slug" json:"slug"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Index       int32  `yaml:"index" json:"index"`
	Hidden      bool   `yaml:"hidden" json:"hidden"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
	Color       string `yaml:"color" json:"color,omitempty"`
	CoverImage  string `yaml:"cover_image" json:"cover_image,omitempty"`
}

// Discover walks baseDir and returns every category, sorted by index then name.
//
// Directories starting with "." or "_" and directories without any Markdown
// below them are skipped. A hidden parent hides all of its descendants.
func Discover(baseDir string) ([]Category, error) {
	var out []Category
	if err := discover(baseDir, baseDir, false, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func discover(baseDir, dir string, parentHidden bool, out *[]Category) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read category directory").
			WithContext("path", dir).
			Build()
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		path := filepath.Join(dir, name)
		if !hasMarkdown(path) {
			continue
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		cat, err := load(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		cat.Hidden = cat.Hidden || parentHidden

		if err := discover(baseDir, path, cat.Hidden, out); err != nil {
			return err
		}
		*out = append(*out, cat)
	}
	return nil
}

func load(dir, slug string) (Category, error) {
	cat := Category{Index: DefaultIndex}
	metaPath := filepath.Join(dir, MetaFile)

	// #nosec G304 -- metaPath is derived from the content tree.
	data, err := os.ReadFile(metaPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Category{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read category metadata").
			WithContext("path", metaPath).
			Build()
	default:
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return Category{}, foundationerrors.WrapError(err, foundationerrors.CategoryFormat, "failed to parse category metadata").
				WithContext("path", metaPath).
				Build()
		}
	}

	cat.Slug = slug
	if cat.Name == "" {
		cat.Name = DisplayName(slug)
	}
	return cat, nil
}

// DisplayName derives a name from the last slug segment with its first letter upper-cased.
func DisplayName(slug string) string {
	last := slug
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		last = slug[i+1:]
	}
	if last == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(last)
	return cases.Upper(language.Und).String(string(first)) + last[size:]
}

func hasMarkdown(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// Exists reports whether slug names a discovered category.
func Exists(categories []Category, slug string) bool {
	for _, c := range categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// Find returns the category with the given slug.
func Find(categories []Category, slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}
