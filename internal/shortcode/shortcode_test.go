package shortcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestParseAttrs(t *testing.T) {
	attrs := parseAttrs(` src="image.jpg" alt="Test" width='100'`)
	require.Equal(t, Attrs{"src": "image.jpg", "alt": "Test", "width": "100"}, attrs)
}

func TestFigure(t *testing.T) {
	out, err := NewRegistry().Process(`[figure src="test.jpg" alt="Test image" caption="My caption" width="300"]`)
	require.NoError(t, err)
	require.Equal(t,
		`<figure><img src="test.jpg" alt="Test image" loading="lazy" width="300" /><figcaption>My caption</figcaption></figure>`,
		out)
}

func TestCallout(t *testing.T) {
	out, err := NewRegistry().Process("before\n[callout type=\"warning\" title=\"Note\"]\nThis is important\n[/callout]\nafter")
	require.NoError(t, err)
	require.Equal(t,
		"before\n"+`<div class="callout callout-warning"><div class="callout-title">Note</div><div class="callout-content">This is important</div></div>`+"\nafter",
		out)

	out, err = NewRegistry().Process(`[callout]plain[/callout]`)
	require.NoError(t, err)
	require.Contains(t, out, "callout-info")
	require.NotContains(t, out, "callout-title")
}

func TestYouTube(t *testing.T) {
	out, err := NewRegistry().Process(`[youtube id="dQw4w9WgXcQ"]`)
	require.NoError(t, err)
	require.Contains(t, out, "youtube.com/embed/dQw4w9WgXcQ")
	require.Contains(t, out, `title="YouTube video"`)

	_, err = NewRegistry().Process(`[youtube]`)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRender))
}

func TestCode(t *testing.T) {
	out, err := NewRegistry().Process(`[code lang="go" filename="main.go"]if a < b {}[/code]`)
	require.NoError(t, err)
	require.Equal(t,
		`<div class="code-block"><div class="code-filename">main.go</div><pre><code class="language-go">if a &lt; b {}</code></pre></div>`,
		out)
}

func TestReact(t *testing.T) {
	out, err := NewRegistry().Process(`[react component="Chart" data="1,2,3" title="Test"]`)
	require.NoError(t, err)
	require.Contains(t, out, `data-component="Chart"`)
	require.Contains(t, out, `data-props='{&quot;data&quot;:&quot;1,2,3&quot;,&quot;title&quot;:&quot;Test&quot;}'`)
	require.Contains(t, out, `data-loading="lazy"`)
	require.NotContains(t, out, "react-island__fallback")

	out, err = NewRegistry().Process(`[react component="CodeEditor" lang="ts" loading="eager"]const x = 1;[/react]`)
	require.NoError(t, err)
	require.Contains(t, out, `<div class="react-island__fallback">const x = 1;</div>`)
	require.Contains(t, out, `data-loading="eager"`)

	_, err = NewRegistry().Process(`[react data="1,2,3"]`)
	require.Error(t, err)
}

func TestLeavesLinksAndUnknownNamesAlone(t *testing.T) {
	in := "[link text](https://example.com) and [figure](./x) and [unknown a=\"b\"] and [note]x[/note]"
	out, err := NewRegistry().Process(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestEscapeHTML(t *testing.T) {
	require.Equal(t, "&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;", EscapeHTML("<script>alert('xss')</script>"))
}
