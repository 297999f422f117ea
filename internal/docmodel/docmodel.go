package docmodel

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PostDate is the normalized publication date of a post.
//
// In front matter it is either a bare timestamp (posted only) or a mapping
// with posted and modified keys.
type PostDate struct {
	Posted   time.Time  `json:"posted"`
	Modified *time.Time `json:"modified,omitempty"`
}

// timestampLayouts are tried in order when decoding a date scalar.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a front matter timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// UnmarshalYAML accepts either a scalar timestamp or a {posted, modified} mapping.
func (d *PostDate) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		posted, err := ParseTimestamp(value.Value)
		if err != nil {
			return err
		}
		*d = PostDate{Posted: posted}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Posted   string `yaml:"posted"`
			Modified string `yaml:"modified"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw.Posted) == "" {
			return fmt.Errorf("date.posted is required")
		}
		posted, err := ParseTimestamp(raw.Posted)
		if err != nil {
			return err
		}
		out := PostDate{Posted: posted}
		if strings.TrimSpace(raw.Modified) != "" {
			modified, err := ParseTimestamp(raw.Modified)
			if err != nil {
				return err
			}
			out.Modified = &modified
		}
		*d = out
		return nil
	default:
		return fmt.Errorf("invalid date: expected a timestamp or a posted/modified mapping")
	}
}

// LastModified returns the modified date when set, otherwise the posted date.
func (d PostDate) LastModified() time.Time {
	if d.Modified != nil {
		return *d.Modified
	}
	return d.Posted
}

// FrontMatter is the typed metadata block of a post.
type FrontMatter struct {
	Title       string   `json:"title"`
	Date        PostDate `json:"date"`
	Tags        []string `json:"tags"`
	CoverImage  string   `json:"cover_image,omitempty"`
	OGImage     string   `json:"og_image,omitempty"`
	Description string   `json:"description,omitempty"`
	DisplayAd   bool     `json:"display_ad"`
	Hidden      bool     `json:"hidden"`
	Comments    bool     `json:"comments"`
}

// Thumbnail returns the image used for cards: the cover image, else the OG image.
func (fm FrontMatter) Thumbnail() string {
	if fm.CoverImage != "" {
		return fm.CoverImage
	}
	return fm.OGImage
}

// Post is a parsed blog post.
type Post struct {
	Slug        string      `json:"slug"`
	Category    string      `json:"category"`
	FrontMatter FrontMatter `json:"frontmatter"`
	Body        string      `json:"-"`

	// RawFrontMatter is the undecoded YAML block, kept for fingerprinting.
	RawFrontMatter string `json:"-"`
	SourcePath     string `json:"-"`
	RenderedHTML   string `json:"-"`
}

// URL returns the canonical site-relative URL of the post.
func (p *Post) URL(encode bool) string {
	return PostURL(p.Category, p.Slug, encode)
}

// PostURL builds "/{category}/{slug}/", escaping each path segment when encode is set.
func PostURL(category, slug string, encode bool) string {
	return "/" + EncodePath(category, encode) + "/" + EncodePath(slug, encode) + "/"
}

// EncodePath percent-encodes every segment of a slash-separated path when encode is set.
func EncodePath(p string, encode bool) string {
	if !encode {
		return p
	}
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// PageFrontMatter is the optional metadata block of a standalone page.
type PageFrontMatter struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
	Hidden      bool   `yaml:"hidden" json:"hidden"`
	Comments    bool   `yaml:"comments" json:"comments"`
	Template    string `yaml:"template" json:"template,omitempty"`
}

// Page is a parsed standalone page (about, contact, ...).
type Page struct {
	Slug         string          `json:"slug"`
	FrontMatter  PageFrontMatter `json:"frontmatter"`
	Body         string          `json:"-"`
	SourcePath   string          `json:"-"`
	RenderedHTML string          `json:"-"`
}
