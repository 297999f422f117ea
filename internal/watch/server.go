package watch

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter serves the generated site from outputDir. metrics, when set, is
// mounted at /metrics.
func NewRouter(outputDir string, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Get("/*", siteHandler(outputDir))
	r.Head("/*", siteHandler(outputDir))
	return r
}

func siteHandler(outputDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, ok := resolve(outputDir, r.URL.Path)
		if !ok {
			notFound(w, outputDir)
			return
		}

		// #nosec G304 -- file is confined to outputDir by resolve.
		f, err := os.Open(file)
		if err != nil {
			notFound(w, outputDir)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			notFound(w, outputDir)
			return
		}
		http.ServeContent(w, r, filepath.Base(file), info.ModTime(), f)
	}
}

// resolve maps a request path to a file under outputDir. Paths ending in "/"
// and paths naming a directory resolve to its index.html.
func resolve(outputDir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") {
		clean = path.Join(clean, "index.html")
	}
	file := filepath.Join(outputDir, filepath.FromSlash(clean))

	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		if info, err = os.Stat(file); err != nil || info.IsDir() {
			return "", false
		}
	}
	return file, true
}

func notFound(w http.ResponseWriter, outputDir string) {
	// #nosec G304 -- fixed name inside the output directory.
	if page, err := os.ReadFile(filepath.Join(outputDir, "404.html")); err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(page)
		return
	}
	http.Error(w, "404 Not Found", http.StatusNotFound)
}
