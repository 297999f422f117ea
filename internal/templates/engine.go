// Package templates loads the site's HTML templates once and renders them
// by slash-separated name ("post.html", "components/img.html").
package templates

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Ext is the extension of loadable template files.
const Ext = ".html"

// Engine is an immutable, parsed template set. It is safe for concurrent use.
type Engine struct {
	root  *template.Template
	names map[string]struct{}
}

// Load parses every *.html file below dir.
func Load(dir string) (*Engine, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, foundationerrors.ConfigError("Templates directory not found").
			WithContext("path", dir).
			Build()
	}

	sources := map[string]string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		// #nosec G304 -- path comes from walking the templates directory.
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sources[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read templates").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	return New(sources)
}

// New parses templates from memory, keyed by name.
func New(sources map[string]string) (*Engine, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	root := template.New("").Funcs(Funcs())
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, err := root.New(name).Parse(sources[name]); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse template").
				Fatal().
				WithContext("template", name).
				Build()
		}
		set[name] = struct{}{}
	}
	return &Engine{root: root, names: set}, nil
}

// Has reports whether a template with the given name was loaded.
func (e *Engine) Has(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.names[name]
	return ok
}

// Names lists the loaded template names, sorted.
func (e *Engine) Names() []string {
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ErrNotFound is returned by Render for unknown template names.
var ErrNotFound = errors.New("template not found")

// Render executes the named template with data.
func (e *Engine) Render(name string, data any) (string, error) {
	if !e.Has(name) {
		return "", foundationerrors.WrapError(ErrNotFound, foundationerrors.CategoryTemplate, "template not found").
			WithContext("template", name).
			Build()
	}
	var buf bytes.Buffer
	if err := e.root.ExecuteTemplate(&buf, name, data); err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryTemplate, "failed to render template").
			WithContext("template", name).
			Build()
	}
	return buf.String(), nil
}
