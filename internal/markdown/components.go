package markdown

import (
	"html/template"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/imagepipe"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ComponentTags are the elements that may be replaced by a component template,
// in the order they are substituted.
var ComponentTags = []string{
	"img", "code", "pre", "blockquote", "table", "a",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "ul", "ol", "li", "strong", "em", "del", "iframe",
}

// RawMediaTags are raw HTML elements whose relative src, poster and data
// attributes are resolved even though they are not marked.
var RawMediaTags = []string{"video", "audio", "source", "iframe", "embed", "object", "track"}

var urlAttrs = map[string]bool{"src": true, "href": true, "data": true, "poster": true, "srcset": true}

func isRawMedia(tag string) bool {
	for _, t := range RawMediaTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ComponentRenderer looks up and executes component templates.
type ComponentRenderer interface {
	Has(name string) bool
	Render(name string, data any) (string, error)
}

// ComponentName is the template name used for an HTML tag.
func ComponentName(tag string) string { return "components/" + tag + ".html" }

type substitution struct {
	components ComponentRenderer
	images     *imagepipe.Processor
	opts       RenderOptions
	category   string
}

// apply substitutes every marked occurrence of tag. Unmarked raw media tags
// are substituted as well.
func (c *substitution) apply(src, tag string) string {
	if !strings.Contains(src, "<"+tag) {
		return src
	}
	name := ComponentName(tag)

	var b strings.Builder
	b.Grow(len(src) + len(src)/10)
	s := newScanner(src)
	for s.next() {
		if !s.isStart(tag) || !(isMarked(s.tok) || isRawMedia(tag)) {
			b.WriteString(s.raw)
			continue
		}

		start, tok := s.raw, s.tok
		var inner, end string
		if s.tt == html.StartTagToken && tag != "img" {
			inner, end, _ = s.collect(tag)
			inner = c.apply(inner, tag)
		}

		out, err := c.components.Render(name, c.data(tag, tok, inner))
		if err != nil {
			slog.Debug("Component template failed, keeping element",
				logfields.Template(name),
				logfields.Error(err))
			b.WriteString(start)
			b.WriteString(inner)
			b.WriteString(end)
			continue
		}
		b.WriteString(out)
	}
	return b.String()
}

func (c *substitution) data(tag string, tok html.Token, inner string) map[string]any {
	attrs := make(map[string]string, len(tok.Attr))
	originalSrc := ""
	for _, a := range tok.Attr {
		if a.Key == MarkerAttr {
			continue
		}
		if urlAttrs[a.Key] {
			if a.Key == "src" {
				originalSrc = a.Val
			}
			attrs[a.Key] = ResolvePath(a.Val, c.category)
			continue
		}
		attrs[a.Key] = a.Val
	}

	data := make(map[string]any, len(attrs)+12)
	for k, v := range attrs {
		data[k] = v
	}
	data["attrs"] = attrs
	data["tag"] = tag
	data["content"] = template.HTML(inner) // #nosec G203 -- already rendered markup
	data["base_path"] = c.opts.BasePath
	data["category"] = c.category

	if tag == "img" {
		data["has_srcset"] = false
		if c.images.Enabled() && c.opts.ContentDir != "" {
			dir := filepath.Join(c.opts.ContentDir, filepath.FromSlash(strings.Trim(c.category, "/")))
			if meta := c.images.ProcessImage(originalSrc, dir, c.opts.BasePath); meta != nil {
				data["cdn_src"] = meta.Src
				data["lqip"] = meta.LQIP
				data["sources"] = meta.Sources
				data["webp_sources"] = meta.WebPSources
				data["width"] = meta.Width
				data["height"] = meta.Height
				data["has_srcset"] = true
			}
		}
	}
	return data
}

var rawURLAttr = regexp.MustCompile(`(?i)(\s(?:src|poster|data)\s*=\s*)("[^"]*"|'[^']*')`)

// ResolveRawPaths rewrites relative src, poster and data attributes of
// unmarked media tags. Only values starting with "./" or "../" are touched.
func ResolveRawPaths(src, category string) string {
	var b strings.Builder
	b.Grow(len(src))
	s := newScanner(src)
	for s.next() {
		if (s.tt == html.StartTagToken || s.tt == html.SelfClosingTagToken) &&
			isRawMedia(s.tok.Data) && !isMarked(s.tok) {
			b.WriteString(resolveTagURLs(s.raw, category))
			continue
		}
		b.WriteString(s.raw)
	}
	return b.String()
}

func resolveTagURLs(tag, category string) string {
	return rawURLAttr.ReplaceAllStringFunc(tag, func(m string) string {
		parts := rawURLAttr.FindStringSubmatch(m)
		prefix, quoted := parts[1], parts[2]
		quote := quoted[:1]
		value := quoted[1 : len(quoted)-1]
		if !strings.HasPrefix(value, "./") && !strings.HasPrefix(value, "../") {
			return m
		}
		return prefix + quote + ResolvePath(value, category) + quote
	})
}
