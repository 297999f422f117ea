package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// scanner walks an HTML fragment token by token, keeping each token's raw
// text so untouched markup is copied through byte for byte.
type scanner struct {
	z   *html.Tokenizer
	tt  html.TokenType
	raw string
	tok html.Token
}

func newScanner(src string) *scanner {
	return &scanner{z: html.NewTokenizer(strings.NewReader(src))}
}

func (s *scanner) next() bool {
	s.tt = s.z.Next()
	if s.tt == html.ErrorToken {
		return false
	}
	s.raw = string(s.z.Raw())
	s.tok = s.z.Token()
	return true
}

func (s *scanner) isStart(tag string) bool {
	return (s.tt == html.StartTagToken || s.tt == html.SelfClosingTagToken) && s.tok.Data == tag
}

// collect consumes tokens up to the end tag balancing the current tag.
// It returns the raw inner markup and the raw end tag; ok is false when the
// input ends first.
func (s *scanner) collect(tag string) (inner, end string, ok bool) {
	var b strings.Builder
	depth := 1
	for s.next() {
		switch {
		case s.tt == html.StartTagToken && s.tok.Data == tag:
			depth++
		case s.tt == html.EndTagToken && s.tok.Data == tag:
			depth--
			if depth == 0 {
				return b.String(), s.raw, true
			}
		}
		b.WriteString(s.raw)
	}
	return b.String(), "", false
}

func attrValue(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isMarked(tok html.Token) bool {
	_, ok := attrValue(tok, MarkerAttr)
	return ok
}

// StripMarkers removes the marker attribute from every tag.
func StripMarkers(src string) string {
	if !strings.Contains(src, MarkerAttr) {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	s := newScanner(src)
	for s.next() {
		if (s.tt == html.StartTagToken || s.tt == html.SelfClosingTagToken) && isMarked(s.tok) {
			b.WriteString(strings.ReplaceAll(s.raw, markerText, ""))
			continue
		}
		b.WriteString(s.raw)
	}
	return b.String()
}
