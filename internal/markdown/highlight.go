package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
)

// HighlightClass is set on the <pre> of every highlighted block.
const HighlightClass = "syntax-highlight"

// Highlighter turns code into class-annotated token spans. It caches lexers
// and is not safe for concurrent use; give each worker its own.
type Highlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
	lexers    map[string]chroma.Lexer
}

// NewHighlighter returns a Highlighter emitting CSS classes instead of inline styles.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
			chromahtml.TabWidth(2),
		),
		style:  styles.Fallback,
		lexers: map[string]chroma.Lexer{},
	}
}

func (h *Highlighter) lexer(lang string) chroma.Lexer {
	key := strings.ToLower(lang)
	if l, ok := h.lexers[key]; ok {
		return l
	}
	l := lexers.Get(key)
	if l != nil {
		l = chroma.Coalesce(l)
	}
	h.lexers[key] = l
	return l
}

// Highlight renders code in lang. ok is false for unknown languages or when
// tokenizing fails.
func (h *Highlighter) Highlight(code, lang string) (string, bool) {
	l := h.lexer(lang)
	if l == nil {
		return "", false
	}
	it, err := l.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", false
	}
	return b.String(), true
}

// HighlightBlocks replaces each marked <pre><code class="language-X"> block
// with its highlighted form. Other blocks are kept as they are.
func (h *Highlighter) HighlightBlocks(src string) string {
	var b strings.Builder
	b.Grow(len(src) + len(src)/5)
	s := newScanner(src)
	for s.next() {
		if s.tt != html.StartTagToken || s.tok.Data != "pre" || !isMarked(s.tok) {
			b.WriteString(s.raw)
			continue
		}
		start := s.raw
		inner, end, ok := s.collect("pre")
		if ok {
			if out, done := h.block(inner); done {
				b.WriteString(out)
				continue
			}
		}
		b.WriteString(start)
		b.WriteString(inner)
		b.WriteString(end)
	}
	return b.String()
}

func (h *Highlighter) block(inner string) (string, bool) {
	s := newScanner(strings.TrimSpace(inner))
	if !s.next() || s.tt != html.StartTagToken || s.tok.Data != "code" {
		return "", false
	}
	class, _ := attrValue(s.tok, "class")
	lang, ok := strings.CutPrefix(class, "language-")
	if !ok || lang == "" {
		return "", false
	}

	var code strings.Builder
	for s.next() {
		if s.tt == html.EndTagToken && s.tok.Data == "code" {
			break
		}
		if s.tt == html.TextToken {
			code.WriteString(s.tok.Data)
		}
	}

	highlighted, ok := h.Highlight(code.String(), lang)
	if !ok {
		return "", false
	}
	return `<pre class="` + HighlightClass + `"><code class="language-` + html.EscapeString(lang) + `">` +
		highlighted + `</code></pre>`, true
}
