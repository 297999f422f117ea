package docmodel

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// AnchorDir is the directory name that roots the category tree.
const AnchorDir = "posts"

type rawFrontMatter struct {
	Title         *string   `yaml:"title"`
	Date          *PostDate `yaml:"date"`
	Tags          []string  `yaml:"tags"`
	CoverImage    string    `yaml:"cover_image"`
	CoverImageAlt string    `yaml:"coverImage"`
	OGImage       string    `yaml:"og_image"`
	OGImageAlt    string    `yaml:"ogImage"`
	Description   string    `yaml:"description"`
	DisplayAd     bool      `yaml:"display_ad"`
	DisplayAdAlt  bool      `yaml:"displayAd"`
	Hidden        bool      `yaml:"hidden"`
	Comments      *bool     `yaml:"comments"`
	Category      string    `yaml:"category"`
}

// ParsePost reads and parses the post at path.
func ParsePost(path string) (*Post, error) {
	// #nosec G304 -- path comes from content discovery.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read post").
			WithContext("path", path).
			Build()
	}
	return ParsePostContent(path, content)
}

// ParsePostContent parses post content; path is used for identity only.
func ParsePostContent(path string, content []byte) (*Post, error) {
	fmRaw, body, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFormat, "invalid frontmatter format").
			WithContext("path", path).
			Build()
	}

	fm, err := decodeFrontMatter(path, fmRaw)
	if err != nil {
		return nil, err
	}

	category, err := CategoryFromPath(path)
	if err != nil {
		return nil, err
	}

	return &Post{
		Slug:           Stem(path),
		Category:       category,
		FrontMatter:    fm,
		Body:           string(body),
		RawFrontMatter: string(fmRaw),
		SourcePath:     path,
	}, nil
}

func decodeFrontMatter(path string, fmRaw []byte) (FrontMatter, error) {
	var raw rawFrontMatter
	if err := frontmatter.Decode(fmRaw, &raw); err != nil {
		return FrontMatter{}, errors.WrapError(err, errors.CategoryFormat, "failed to parse frontmatter").
			WithContext("path", path).
			Build()
	}
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return FrontMatter{}, missingField(path, "title")
	}
	if raw.Date == nil || raw.Date.Posted.IsZero() {
		return FrontMatter{}, missingField(path, "date")
	}

	fm := FrontMatter{
		Title:       *raw.Title,
		Date:        *raw.Date,
		Tags:        raw.Tags,
		CoverImage:  firstNonEmpty(raw.CoverImage, raw.CoverImageAlt),
		OGImage:     firstNonEmpty(raw.OGImage, raw.OGImageAlt),
		Description: raw.Description,
		DisplayAd:   raw.DisplayAd || raw.DisplayAdAlt,
		Hidden:      raw.Hidden,
		Comments:    raw.Comments == nil || *raw.Comments,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	return fm, nil
}

func missingField(path, field string) error {
	return errors.FormatError("missing required field: "+field).
		WithContext("path", path).
		WithContext("field", field).
		Build()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CategoryFromPath returns the slash-joined directories between the first
// "posts" directory and the file.
func CategoryFromPath(path string) (string, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	if len(parts) == 0 {
		return "", noCategory(path)
	}
	dirs := parts[:len(parts)-1]
	for i, p := range dirs {
		if p != AnchorDir {
			continue
		}
		segments := dirs[i+1:]
		if len(segments) == 0 {
			return "", noCategory(path)
		}
		return strings.Join(segments, "/"), nil
	}
	return "", noCategory(path)
}

func noCategory(path string) error {
	return errors.FormatError("could not extract category from path: posts must live in a category directory").
		WithContext("path", path).
		Build()
}

// ParsePage reads and parses the standalone page at path. Front matter is optional.
func ParsePage(path string) (*Page, error) {
	// #nosec G304 -- path comes from content discovery.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read page").
			WithContext("path", path).
			Build()
	}

	slug := Stem(path)
	page := &Page{Slug: slug, SourcePath: path}

	if !frontmatter.Has(content) {
		page.FrontMatter = PageFrontMatter{Title: strings.ReplaceAll(slug, "-", " "), Comments: true}
		page.Body = string(content)
		return page, nil
	}

	fmRaw, body, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFormat, "invalid frontmatter format").
			WithContext("path", path).
			Build()
	}

	fm := PageFrontMatter{Comments: true}
	if err := frontmatter.Decode(fmRaw, &fm); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFormat, "failed to parse page frontmatter").
			WithContext("path", path).
			Build()
	}
	if fm.Title == "" {
		fm.Title = strings.ReplaceAll(slug, "-", " ")
	}
	page.FrontMatter = fm
	page.Body = string(body)
	return page, nil
}
