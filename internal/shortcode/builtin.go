package shortcode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func figure(a Attrs, _ string, _ bool) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<figure><img src="%s" alt="%s" loading="lazy"`, EscapeHTML(a.Get("src", "")), EscapeHTML(a.Get("alt", "")))
	if w, ok := a["width"]; ok {
		fmt.Fprintf(&b, ` width="%s"`, EscapeHTML(w))
	}
	if h, ok := a["height"]; ok {
		fmt.Fprintf(&b, ` height="%s"`, EscapeHTML(h))
	}
	b.WriteString(" />")
	if caption := a.Get("caption", ""); caption != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", EscapeHTML(caption))
	}
	b.WriteString("</figure>")
	return b.String(), nil
}

func callout(a Attrs, inner string, _ bool) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="callout callout-%s">`, EscapeHTML(a.Get("type", "info")))
	if title, ok := a["title"]; ok {
		fmt.Fprintf(&b, `<div class="callout-title">%s</div>`, EscapeHTML(title))
	}
	fmt.Fprintf(&b, `<div class="callout-content">%s</div></div>`, inner)
	return b.String(), nil
}

func youtube(a Attrs, _ string, _ bool) (string, error) {
	id := a.Get("id", "")
	if id == "" {
		return "", errors.New("youtube shortcode requires an id attribute")
	}
	return fmt.Sprintf(`<div class="video-container"><iframe src="https://www.youtube.com/embed/%s" title="%s" frameborder="0" `+
		`allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen loading="lazy"></iframe></div>`,
		EscapeHTML(id), EscapeHTML(a.Get("title", "YouTube video"))), nil
}

func code(a Attrs, inner string, _ bool) (string, error) {
	var b strings.Builder
	filename, hasFilename := a["filename"]
	if hasFilename {
		fmt.Fprintf(&b, `<div class="code-block"><div class="code-filename">%s</div>`, EscapeHTML(filename))
	}
	fmt.Fprintf(&b, `<pre><code class="language-%s">%s</code></pre>`, EscapeHTML(a.Get("lang", "")), EscapeHTML(inner))
	if hasFilename {
		b.WriteString("</div>")
	}
	return b.String(), nil
}

// react emits a hydration placeholder. Attributes other than component and
// loading become the island's JSON props.
func react(a Attrs, inner string, block bool) (string, error) {
	component, ok := a["component"]
	if !ok {
		return "", errors.New("react shortcode requires a component attribute")
	}
	props := map[string]string{}
	for k, v := range a {
		if k != "component" && k != "loading" {
			props[k] = v
		}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="react-island" data-component="%s" data-props='%s' data-loading="%s">`,
		EscapeHTML(component), EscapeHTML(string(propsJSON)), EscapeHTML(a.Get("loading", "lazy")))
	if block {
		fmt.Fprintf(&b, `<div class="react-island__fallback">%s</div>`, inner)
	}
	b.WriteString(`<noscript>Interactive component requires JavaScript</noscript></div>`)
	return b.String(), nil
}
