package markdown

import (
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// ResolvePath resolves a document-relative path against basePath (a category
// slug such as "work/apps") into a site-absolute path.
//
// External URLs, fragments and absolute paths are returned unchanged. Leading
// "./" segments are dropped, each "../" pops one segment off basePath (never
// past the root), and an empty result is "/".
func ResolvePath(path, basePath string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if isAbsoluteURL(trimmed) || strings.HasPrefix(trimmed, "/") {
		return trimmed
	}

	switch {
	case strings.HasPrefix(trimmed, "./"):
		rest := trimmed
		for strings.HasPrefix(rest, "./") {
			rest = rest[2:]
		}
		return joinSite(basePath, strings.TrimLeft(rest, "/"))

	case strings.HasPrefix(trimmed, "../"):
		parts := splitSegments(basePath)
		rest := trimmed
		up := 0
		for strings.HasPrefix(rest, "../") {
			up++
			rest = rest[3:]
		}
		if up >= len(parts) {
			parts = nil
		} else {
			parts = parts[:len(parts)-up]
		}
		return joinSite(strings.Join(parts, "/"), strings.TrimLeft(rest, "/"))

	default:
		return joinSite(basePath, strings.TrimLeft(trimmed, "/"))
	}
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "#") || schemePrefix.MatchString(s)
}

func splitSegments(p string) []string {
	out := make([]string, 0)
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinSite(base, rest string) string {
	switch {
	case base == "" && rest == "":
		return "/"
	case base == "":
		return "/" + rest
	case rest == "":
		return "/" + base
	default:
		return "/" + base + "/" + rest
	}
}
