package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Delimiter separates the front matter block from the document body.
const Delimiter = "---"

// ErrInvalidFormat indicates the document does not contain two front matter delimiters.
var ErrInvalidFormat = errors.New("invalid frontmatter format: expected two --- delimiters")

// Split separates YAML front matter from the Markdown body.
//
// The content is cut at the first two occurrences of "---"; anything before the
// first delimiter is discarded and later delimiters (thematic breaks) stay in the
// body. Both returned parts are trimmed of surrounding whitespace.
func Split(content []byte) (frontmatter []byte, body []byte, err error) {
	parts := bytes.SplitN(content, []byte(Delimiter), 3)
	if len(parts) < 3 {
		return nil, nil, ErrInvalidFormat
	}
	return bytes.TrimSpace(parts[1]), bytes.TrimSpace(parts[2]), nil
}

// Has reports whether the document opens with a front matter delimiter.
func Has(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(content), []byte(Delimiter))
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Decode unmarshals raw YAML front matter into out.
func Decode(frontmatter []byte, out any) error {
	return yaml.Unmarshal(frontmatter, out)
}
