package markdown

import (
	"bufio"
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkerAttr tags every element produced from Markdown syntax so later passes
// can tell it apart from raw HTML written by the author.
const MarkerAttr = "data-md"

// markerText is how the marker appears in emitted HTML.
const markerText = ` data-md=""`

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(markerTransformer{}, -100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(codeBlockRenderer{}, 100),
				util.Prioritized(newFootnoteRenderer(), 100),
			),
		),
	)
}

// markerTransformer sets MarkerAttr on every element node. Raw HTML nodes
// carry no attributes and are left unmarked.
type markerTransformer struct{}

func (markerTransformer) Transform(doc *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.Kind() {
		case gmast.KindDocument, gmast.KindText, gmast.KindString,
			gmast.KindRawHTML, gmast.KindHTMLBlock:
			return gmast.WalkContinue, nil
		}
		n.SetAttributeString(MarkerAttr, []byte(""))
		return gmast.WalkContinue, nil
	})
}

// codeBlockRenderer emits fenced and indented code as
// <pre data-md=""><code class="language-X">, which the default renderer
// cannot mark.
type codeBlockRenderer struct{}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.render)
	reg.Register(gmast.KindCodeBlock, r.render)
}

func (codeBlockRenderer) render(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}

	_, _ = w.WriteString("<pre" + markerText + ">")
	var lang []byte
	if fenced, ok := node.(*gmast.FencedCodeBlock); ok {
		lang = fenced.Language(source)
	}
	if len(lang) > 0 {
		_, _ = w.WriteString(`<code class="language-`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_, _ = w.WriteString(`">`)
	} else {
		_, _ = w.WriteString("<code>")
	}

	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
	return gmast.WalkSkipChildren, nil
}

// footnoteRenderer wraps goldmark's footnote renderer, which writes its
// <sup>, <a>, <hr>, <ol> and <li> without node attributes, and marks every
// element it opens.
type footnoteRenderer struct {
	inner renderer.NodeRenderer
}

func newFootnoteRenderer() *footnoteRenderer {
	return &footnoteRenderer{inner: extension.NewFootnoteHTMLRenderer()}
}

// SetOption forwards renderer options such as XHTML to the wrapped renderer.
func (r *footnoteRenderer) SetOption(name renderer.OptionName, value any) {
	if s, ok := r.inner.(renderer.SetOptioner); ok {
		s.SetOption(name, value)
	}
}

func (r *footnoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	r.inner.RegisterFuncs(registerFunc(func(kind gmast.NodeKind, fn renderer.NodeRendererFunc) {
		reg.Register(kind, markOutput(fn))
	}))
}

type registerFunc func(gmast.NodeKind, renderer.NodeRendererFunc)

func (f registerFunc) Register(kind gmast.NodeKind, fn renderer.NodeRendererFunc) { f(kind, fn) }

// markOutput runs fn against a scratch buffer and copies the result with
// MarkerAttr added to each opening tag. Children are rendered by the caller,
// so only the wrapper markup passes through here.
func markOutput(fn renderer.NodeRendererFunc) renderer.NodeRendererFunc {
	return func(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		var buf bytes.Buffer
		bw := bufio.NewWriter(&buf)
		status, err := fn(bw, source, node, entering)
		if err != nil {
			return status, err
		}
		if err := bw.Flush(); err != nil {
			return status, err
		}
		_, _ = w.Write(markOpeningTags(buf.Bytes()))
		return status, nil
	}
}

var openingTag = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)([^>]*)>`)

func markOpeningTags(b []byte) []byte {
	return openingTag.ReplaceAllFunc(b, func(tag []byte) []byte {
		if bytes.Contains(tag, []byte(MarkerAttr)) {
			return tag
		}
		m := openingTag.FindSubmatchIndex(tag)
		out := make([]byte, 0, len(tag)+len(markerText))
		out = append(out, tag[:m[3]]...)
		out = append(out, markerText...)
		return append(out, tag[m[3]:]...)
	})
}

// emit converts Markdown to HTML with every generated element marked.
func emit(md goldmark.Markdown, body []byte) (string, error) {
	var buf bytes.Buffer
	buf.Grow(len(body) * 2)
	if err := md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
