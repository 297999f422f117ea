package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeySlug       = "slug"
	KeyCategory   = "category"
	KeyTag        = "tag"
	KeyWorker     = "worker"
	KeyCount      = "count"
	KeyOutput     = "output"
	KeyTemplate   = "template"
	KeyReason     = "reason"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Slug(s string) slog.Attr          { return slog.String(KeySlug, s) }
func Category(c string) slog.Attr      { return slog.String(KeyCategory, c) }
func Tag(t string) slog.Attr           { return slog.String(KeyTag, t) }
func Worker(w string) slog.Attr        { return slog.String(KeyWorker, w) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Reason(r string) slog.Attr        { return slog.String(KeyReason, r) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
