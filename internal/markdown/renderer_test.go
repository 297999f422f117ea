package markdown

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

func engine(t *testing.T, sources map[string]string) *templates.Engine {
	t.Helper()
	e, err := templates.New(sources)
	require.NoError(t, err)
	return e
}

func TestEmit_MarksGeneratedElements(t *testing.T) {
	r := NewRenderer(nil)
	out, err := r.Emit("# Hello\n\nThis is **bold** and `code`.\n\n![alt text](./image.png)\n")
	require.NoError(t, err)

	require.Contains(t, out, `data-md="">Hello</h1>`)
	require.Contains(t, out, `<strong data-md="">bold</strong>`)
	require.Contains(t, out, `<code data-md="">code</code>`)
	require.Contains(t, out, `<img src="./image.png" alt="alt text" data-md="" />`)
}

func TestEmit_RawHTMLIsNotMarked(t *testing.T) {
	r := NewRenderer(nil)

	out, err := r.Emit(`<img src="./image.png" alt="raw image">` + "\n")
	require.NoError(t, err)
	require.NotContains(t, out, MarkerAttr)
	require.Contains(t, out, `<img src="./image.png" alt="raw image">`)

	out, err = r.Emit(`<a href="https://example.com">raw link</a>` + "\n")
	require.NoError(t, err)
	require.NotContains(t, out, `<a data-md`)
	require.Contains(t, out, `<a href="https://example.com">raw link</a>`)
}

func TestEmit_CodeBlocks(t *testing.T) {
	r := NewRenderer(nil)
	out, err := r.Emit("```go\nif a < b {}\n```\n\n    indented\n")
	require.NoError(t, err)
	require.Contains(t, out, `<pre data-md=""><code class="language-go">if a &lt; b {}`)
	require.Contains(t, out, `<pre data-md=""><code>indented`)
}

func TestEmit_MarksFootnotes(t *testing.T) {
	r := NewRenderer(nil)
	out, err := r.Emit("Claim[^1].\n\n[^1]: Source.\n")
	require.NoError(t, err)

	tags := regexp.MustCompile(`<(sup|a|div|hr|ol|li)\b[^>]*>`).FindAllString(out, -1)
	require.Len(t, tags, 7)
	for _, tag := range tags {
		require.Equal(t, 1, strings.Count(tag, MarkerAttr), "unmarked or doubly marked: %s", tag)
	}
	require.Contains(t, out, `<a data-md="" href="#fn:1" class="footnote-ref" role="doc-noteref">1</a>`)
	require.Contains(t, out, `<hr data-md="" />`)
}

func TestRender_FootnoteLinksUseComponents(t *testing.T) {
	r := NewRenderer(engine(t, map[string]string{
		"components/a.html": `<a class="styled" href="{{.href}}">{{.content}}</a>`,
	}))
	out, err := r.Render("Claim[^1].\n\n[^1]: Source.\n", RenderOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, `class="styled"`))
	require.NotContains(t, out, MarkerAttr)
}

func TestRender_HighlightsKnownLanguages(t *testing.T) {
	r := NewRenderer(nil)
	out, err := r.Render("```go\nfunc main() {}\n```\n", RenderOptions{BasePath: "dev"})
	require.NoError(t, err)

	require.Contains(t, out, `<pre class="syntax-highlight"><code class="language-go">`)
	require.Contains(t, out, `<span class=`)
	require.Contains(t, out, "main")
	require.NotContains(t, out, MarkerAttr)
}

func TestRender_UnknownLanguageKeepsEscapedBlock(t *testing.T) {
	r := NewRenderer(nil)
	out, err := r.Render("```nosuchlang\nx < y\n```\n", RenderOptions{})
	require.NoError(t, err)
	require.Contains(t, out, `<pre><code class="language-nosuchlang">x &lt; y`)
}

func TestRender_SubstitutesMarkedImagesOnly(t *testing.T) {
	r := NewRenderer(engine(t, map[string]string{
		"components/img.html": `<figure data-has="{{.has_srcset}}"><img src="{{.src}}" alt="{{.alt}}"></figure>`,
	}))
	body := "![Alt](./photo.png)\n\n<img src=\"./raw.png\">\n"

	out, err := r.Render(body, RenderOptions{BasePath: "dev"})
	require.NoError(t, err)
	require.Contains(t, out, `<figure data-has="false"><img src="/dev/photo.png" alt="Alt"></figure>`)
	require.Contains(t, out, `<img src="./raw.png">`)
	require.NotContains(t, out, MarkerAttr)
}

func TestRender_ImagePipelineContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev", "post", "photo.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 700, 400))))
	require.NoError(t, f.Close())

	r := NewRenderer(engine(t, map[string]string{
		"components/img.html": `{{if .has_srcset}}<picture>{{range .webp_sources}}{{if not .Fallback}}<source src="{{.URL}}">{{end}}{{end}}<img src="{{.cdn_src}}" width="{{.width}}" height="{{.height}}"></picture>{{end}}`,
	}))
	out, err := r.Render("![A](./post/photo.png)\n", RenderOptions{
		BasePath:   "dev",
		CDNURL:     "https://cdn.test",
		ContentDir: dir,
	})
	require.NoError(t, err)
	require.Contains(t, out, `<source src="https://cdn.test/images/dev/post/photo.w600.png.webp">`)
	require.NotContains(t, out, "w860")
	require.Contains(t, out, `<img src="https://cdn.test/images/dev/post/photo.png" width="700" height="400">`)
}

func TestRender_NestedComponents(t *testing.T) {
	r := NewRenderer(engine(t, map[string]string{
		"components/blockquote.html": `<div class="quote">{{.content}}</div>`,
	}))
	out, err := r.Render("> outer\n>\n> > inner\n", RenderOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, `<div class="quote">`))
	require.NotContains(t, out, "<blockquote")
	require.Contains(t, out, "inner")
}

func TestRender_FailingComponentKeepsElement(t *testing.T) {
	r := NewRenderer(engine(t, map[string]string{
		"components/a.html": `{{template "missing.html" .}}`,
	}))
	out, err := r.Render("[x](./y)\n", RenderOptions{BasePath: "dev"})
	require.NoError(t, err)
	require.Contains(t, out, `<a href="./y">x</a>`)
}

func TestResolveRawPaths(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{
			"video",
			`<video autoPlay playsInline muted loop src="./folder/video.mp4"></video>`,
			`<video autoPlay playsInline muted loop src="/dev/folder/video.mp4"></video>`,
		},
		{
			"source",
			`<video><source src="./video.webm" type="video/webm"></video>`,
			`<video><source src="/dev/video.webm" type="video/webm"></video>`,
		},
		{
			"poster",
			`<video src="./video.mp4" poster="./thumb.jpg"></video>`,
			`<video src="/dev/video.mp4" poster="/dev/thumb.jpg"></video>`,
		},
		{
			"single quotes and parent",
			`<audio src='../audio.mp3'></audio>`,
			`<audio src='/audio.mp3'></audio>`,
		},
		{
			"absolute url untouched",
			`<video src="https://example.com/video.mp4"></video>`,
			`<video src="https://example.com/video.mp4"></video>`,
		},
		{
			"bare relative untouched",
			`<video src="video.mp4"></video>`,
			`<video src="video.mp4"></video>`,
		},
		{
			"marked untouched",
			`<iframe data-md="" src="./embed.html"></iframe>`,
			`<iframe data-md="" src="./embed.html"></iframe>`,
		},
		{
			"other tags untouched",
			`<img src="./image.png" />`,
			`<img src="./image.png" />`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveRawPaths(tc.in, "dev"))
		})
	}
}

func TestStripMarkers(t *testing.T) {
	require.Equal(t,
		`<p>a <code>x</code><br /></p>`,
		StripMarkers(`<p data-md="">a <code data-md="">x</code><br /></p>`))

	raw := `<p>write data-md="" in text</p>`
	require.Equal(t, raw, StripMarkers(raw))
}

func TestHighlighter(t *testing.T) {
	h := NewHighlighter()
	out, ok := h.Highlight("package main", "go")
	require.True(t, ok)
	require.Contains(t, out, "package")

	_, ok = h.Highlight("x", "definitely-not-a-language")
	require.False(t, ok)
}
