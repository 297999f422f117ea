// Package search produces the client-side search index and an optional
// sqlite database that the search command queries.
package search

import (
	"encoding/json"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

// IndexFile is the name of the JSON search index in the output root.
const IndexFile = "search-index.json"

// Document is one searchable post.
type Document struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Date        time.Time `json:"date"`

	Fingerprint string `json:"-"`
}

// FingerprintFunc returns the content fingerprint of a post, or "" when unknown.
type FingerprintFunc func(p metadata.PostMetadata) string

// Fingerprint hashes raw front matter and body the same way for every caller.
func Fingerprint(frontMatter, body string) string {
	return mdfp.CalculateFingerprintFromParts(frontMatter, body)
}

// Documents lists visible posts, most recent first. fp may be nil; posts
// without a known fingerprint are fingerprinted from their metadata.
func Documents(idx *metadata.Index, encode bool, fp FingerprintFunc) []Document {
	posts := idx.Visible()
	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		d := Document{
			Title:       p.FrontMatter.Title,
			Slug:        p.Slug,
			Category:    p.Category,
			URL:         p.URL(encode),
			Description: p.FrontMatter.Description,
			Tags:        p.FrontMatter.Tags,
			Date:        p.FrontMatter.Date.Posted,
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		if fp != nil {
			d.Fingerprint = fp(p)
		}
		if d.Fingerprint == "" {
			d.Fingerprint = metadataFingerprint(p)
		}
		docs = append(docs, d)
	}
	return docs
}

func metadataFingerprint(p metadata.PostMetadata) string {
	fm, err := yaml.Marshal(p.FrontMatter)
	if err != nil {
		return ""
	}
	return Fingerprint(string(fm), "")
}

// WriteJSON writes docs as a JSON array to path.
func WriteJSON(path string, docs []Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return errors.WrapError(err, errors.CategorySearch, "failed to encode search index").Build()
	}
	return generator.WriteFile(path, data)
}
