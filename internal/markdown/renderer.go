// Package markdown renders post and page bodies to HTML.
//
// Rendering runs as independent passes over one HTML string: structural
// emission (goldmark, with every generated element marked), syntax
// highlighting (chroma), component substitution (templates), raw media path
// resolution and marker stripping.
package markdown

import (
	"github.com/yuin/goldmark"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
)

// RenderOptions carries the per-document inputs of a render.
type RenderOptions struct {
	// BasePath is the document's category slug; relative paths resolve under it.
	BasePath string
	// CDNURL enables the responsive image pipeline when set.
	CDNURL string
	// ContentDir is the posts root used to locate local images.
	ContentDir string
}

// Renderer converts Markdown to HTML. A Renderer owns mutable highlighter
// state and must not be shared between goroutines.
type Renderer struct {
	md          goldmark.Markdown
	highlighter *Highlighter
	components  ComponentRenderer
}

// NewRenderer returns a Renderer substituting components from components,
// which may be nil.
func NewRenderer(components ComponentRenderer) *Renderer {
	return &Renderer{
		md:          newMarkdown(),
		highlighter: NewHighlighter(),
		components:  components,
	}
}

// Emit runs structural emission only; the result still carries markers.
func (r *Renderer) Emit(body string) (string, error) {
	out, err := emit(r.md, []byte(body))
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "failed to render markdown").Build()
	}
	return out, nil
}

// Render converts body to final HTML.
func (r *Renderer) Render(body string, opts RenderOptions) (string, error) {
	out, err := r.Emit(body)
	if err != nil {
		return "", err
	}
	out = r.highlighter.HighlightBlocks(out)
	out = r.SubstituteComponents(out, opts)
	out = ResolveRawPaths(out, opts.BasePath)
	return StripMarkers(out), nil
}

// SubstituteComponents replaces elements that have a component template.
func (r *Renderer) SubstituteComponents(src string, opts RenderOptions) string {
	if r.components == nil {
		return src
	}
	sub := &substitution{
		components: r.components,
		images:     imagepipe.NewProcessor(opts.CDNURL),
		opts:       opts,
		category:   opts.BasePath,
	}
	for _, tag := range ComponentTags {
		if r.components.Has(ComponentName(tag)) {
			src = sub.apply(src, tag)
		}
	}
	return src
}
