// Package shortcode expands square-bracket shortcodes in Markdown bodies
// into HTML before rendering.
//
//	[figure src="./a.png" caption="A"]
//	[callout type="warning" title="Note"]Careful.[/callout]
package shortcode

import (
	"regexp"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Attrs holds the parsed key="value" pairs of a shortcode.
type Attrs map[string]string

// Get returns the value for key, or def when absent.
func (a Attrs) Get(key, def string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

// Handler expands one shortcode. block is true for [name]inner[/name] forms.
type Handler func(attrs Attrs, inner string, block bool) (string, error)

// Registry maps shortcode names to handlers.
type Registry struct {
	handlers map[string]Handler
}

var (
	openRe = regexp.MustCompile(`\[(\w+)([^\]]*)\]`)
	attrRe = regexp.MustCompile(`(\w+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// NewRegistry returns a registry with the built-in shortcodes.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[string]Handler{}}
	r.Register("figure", figure)
	r.Register("callout", callout)
	r.Register("youtube", youtube)
	r.Register("code", code)
	r.Register("react", react)
	return r
}

// Register adds or replaces a handler.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Process expands block shortcodes until none remain, then inline ones.
// Unknown names and Markdown links ("[text](url)") are left untouched.
func (r *Registry) Process(content string) (string, error) {
	out, err := r.processBlocks(content)
	if err != nil {
		return "", err
	}
	return r.processInline(out)
}

func (r *Registry) processBlocks(content string) (string, error) {
	for {
		replaced := false
		for _, m := range openRe.FindAllStringSubmatchIndex(content, -1) {
			name := content[m[2]:m[3]]
			h, ok := r.handlers[name]
			if !ok {
				continue
			}
			closeTag := "[/" + name + "]"
			closeAt := strings.Index(content[m[1]:], closeTag)
			if closeAt < 0 {
				continue
			}
			inner := content[m[1] : m[1]+closeAt]
			out, err := r.call(name, h, parseAttrs(content[m[4]:m[5]]), strings.TrimSpace(inner), true)
			if err != nil {
				return "", err
			}
			content = content[:m[0]] + out + content[m[1]+closeAt+len(closeTag):]
			replaced = true
			break
		}
		if !replaced {
			return content, nil
		}
	}
}

func (r *Registry) processInline(content string) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range openRe.FindAllStringSubmatchIndex(content, -1) {
		if strings.HasPrefix(content[m[1]:], "(") {
			continue
		}
		name := content[m[2]:m[3]]
		h, ok := r.handlers[name]
		if !ok {
			continue
		}
		out, err := r.call(name, h, parseAttrs(content[m[4]:m[5]]), "", false)
		if err != nil {
			return "", err
		}
		b.WriteString(content[last:m[0]])
		b.WriteString(out)
		last = m[1]
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

func (r *Registry) call(name string, h Handler, attrs Attrs, inner string, block bool) (string, error) {
	out, err := h(attrs, inner, block)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "shortcode failed").
			WithContext("shortcode", name).
			Build()
	}
	return out, nil
}

func parseAttrs(s string) Attrs {
	attrs := Attrs{}
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		attrs[m[1]] = v
	}
	return attrs
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes text for use in element content and quoted attributes.
func EscapeHTML(s string) string { return escaper.Replace(s) }
