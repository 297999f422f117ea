package watch

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

func writeOutput(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string, http.Header) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestRouter_ServesSite(t *testing.T) {
	out := t.TempDir()
	writeOutput(t, out, map[string]string{
		"index.html":             "home",
		"dev/hello/index.html":   "hello post",
		"css/style.css":          "body{}",
		"dev/hello-partial.html": "partial",
	})
	srv := httptest.NewServer(NewRouter(out, nil))
	defer srv.Close()

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, "home"},
		{"/dev/hello/", http.StatusOK, "hello post"},
		{"/dev/hello", http.StatusOK, "hello post"},
		{"/dev/hello-partial.html", http.StatusOK, "partial"},
		{"/css/style.css", http.StatusOK, "body{}"},
		{"/missing", http.StatusNotFound, "404 Not Found\n"},
		{"/dev/", http.StatusNotFound, "404 Not Found\n"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body, _ := get(t, srv, tt.path)
			require.Equal(t, tt.code, code)
			require.Equal(t, tt.body, body)
		})
	}

	_, _, header := get(t, srv, "/css/style.css")
	require.Contains(t, header.Get("Content-Type"), "text/css")
}

func TestRouter_CustomNotFoundPage(t *testing.T) {
	out := t.TempDir()
	writeOutput(t, out, map[string]string{"404.html": "<h1>gone</h1>"})
	srv := httptest.NewServer(NewRouter(out, nil))
	defer srv.Close()

	code, body, _ := get(t, srv, "/nope")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "<h1>gone</h1>", body)
}

func TestRouter_StaysInsideOutputDir(t *testing.T) {
	parent := t.TempDir()
	out := filepath.Join(parent, "dist")
	writeOutput(t, parent, map[string]string{"secret.txt": "secret", "dist/index.html": "home"})

	_, ok := resolve(out, "/../secret.txt")
	require.False(t, ok)

	file, ok := resolve(out, "/../")
	require.True(t, ok)
	require.Equal(t, filepath.Join(out, "index.html"), file)
}

func TestRouter_Metrics(t *testing.T) {
	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	rec.SetWorkers(3)

	srv := httptest.NewServer(NewRouter(t.TempDir(), rec.Handler()))
	defer srv.Close()

	code, body, _ := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "render_workers 3")
}

func TestRequestLoggerCapturesStatus(t *testing.T) {
	var status int
	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		status = w.(*responseWriter).statusCode
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, http.StatusTeapot, status)
}
