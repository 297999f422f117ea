package templates

import (
	"encoding/json"
	"html/template"
	"net/url"
	"reflect"
	"time"
)

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"urldecode": urlDecode,
		"urlencode": url.PathEscape,
		"date":      formatDate,
		"rfc3339":   func(t time.Time) string { return t.Format(time.RFC3339) },
		"safe":      func(s string) template.HTML { return template.HTML(s) }, // #nosec G203 -- rendered Markdown
		"json":      toJSON,
		"default":   defaultValue,
	}
}

// urlDecode returns s unchanged when it is not valid percent-encoding.
func urlDecode(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func formatDate(layout string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func toJSON(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil // #nosec G203 -- json.Marshal escapes HTML characters
}

// defaultValue returns def when v is nil or the zero value of its type.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	if rv.IsZero() {
		return def
	}
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.Len() == 0 {
		return def
	}
	return v
}
