// Package recent writes recent.json, the compact list of newest posts used by
// client-side widgets.
package recent

import (
	"encoding/json"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/generator"
	"git.home.luguber.info/inful/sitebuilder/internal/metadata"
)

// Count is the number of posts listed.
const Count = 6

// File is the output file name.
const File = "recent.json"

// Post is one recent.json entry.
type Post struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
	Date  string `json:"date"`
	Desc  string `json:"desc"`
}

// Posts returns the newest visible posts.
func Posts(idx *metadata.Index, encode bool) []Post {
	recent := idx.RecentPosts(Count)
	out := make([]Post, 0, len(recent))
	for _, p := range recent {
		out = append(out, Post{
			Title: p.FrontMatter.Title,
			URI:   p.URL(encode),
			Date:  p.FrontMatter.Date.Posted.Format(time.RFC3339),
			Desc:  p.FrontMatter.Description,
		})
	}
	return out
}

// Generate writes {outputDir}/recent.json and returns the number of entries.
func Generate(outputDir string, idx *metadata.Index, encode bool) (int, error) {
	posts := Posts(idx, encode)
	data, err := json.Marshal(posts)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryInternal, "failed to encode recent posts").Build()
	}
	if err := generator.WriteFile(filepath.Join(outputDir, File), data); err != nil {
		return 0, err
	}
	return len(posts), nil
}
