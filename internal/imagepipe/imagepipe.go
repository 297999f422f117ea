// Package imagepipe derives CDN-addressed responsive image variants for
// locally referenced images.
//
// A Processor never fails: whenever an image cannot be served through the
// CDN (external source, no CDN configured, unreadable file) it returns nil
// and callers fall back to the plain image.
package imagepipe

import (
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // register decoder
)

// Sizes are the responsive breakpoints in pixels, ascending.
var Sizes = []uint32{480, 600, 860, 1180}

const (
	// ThumbnailSize is the width used for post cards and navigation.
	ThumbnailSize uint32 = 500
	// LQIPSize is the width of the low-quality placeholder.
	LQIPSize uint32 = 10
	// FallbackWidth marks the full-size entry closing every source list.
	FallbackWidth uint32 = math.MaxUint32

	defaultExt = "jpg"
)

// ImageSource is one breakpoint variant.
type ImageSource struct {
	URL      string `json:"url"`
	Width    uint32 `json:"width"`
	Fallback bool   `json:"fallback"`
}

// ImageMetadata describes a processed image.
type ImageMetadata struct {
	Width       uint32        `json:"width"`
	Height      uint32        `json:"height"`
	Src         string        `json:"src"`
	LQIP        string        `json:"lqip"`
	Sources     []ImageSource `json:"sources"`
	WebPSources []ImageSource `json:"webp_sources"`
}

// ThumbnailMetadata holds the fixed-width thumbnail URLs.
type ThumbnailMetadata struct {
	Src     string `json:"src"`
	WebPSrc string `json:"webp_src"`
}

// Processor builds image metadata against a CDN base URL.
type Processor struct {
	cdnURL string
}

// NewProcessor returns a Processor. An empty cdnURL disables processing.
func NewProcessor(cdnURL string) *Processor {
	return &Processor{cdnURL: strings.TrimRight(cdnURL, "/")}
}

// Enabled reports whether a CDN is configured.
func (p *Processor) Enabled() bool { return p != nil && p.cdnURL != "" }

// ProcessImage probes src (relative to contentDir) and returns its variants
// under basePath, or nil when the image cannot be served through the CDN.
func (p *Processor) ProcessImage(src, contentDir, basePath string) *ImageMetadata {
	if isExternal(src) || !p.Enabled() {
		return nil
	}

	width, height, err := dimensions(localPath(src, contentDir))
	if err != nil {
		return nil
	}

	sizes := make([]uint32, 0, len(Sizes))
	for _, s := range Sizes {
		if s <= width {
			sizes = append(sizes, s)
		}
	}

	name, ext := splitExt(src)
	return &ImageMetadata{
		Width:       width,
		Height:      height,
		Src:         p.url(basePath, name, 0, ext, false),
		LQIP:        p.url(basePath, name, LQIPSize, ext, false),
		Sources:     p.sources(basePath, name, ext, sizes, false),
		WebPSources: p.sources(basePath, name, ext, sizes, true),
	}
}

// ProcessThumbnail returns thumbnail URLs for src. Only existence is checked.
func (p *Processor) ProcessThumbnail(src, contentDir, basePath string) *ThumbnailMetadata {
	if isExternal(src) || !p.Enabled() {
		return nil
	}
	if _, err := os.Stat(localPath(src, contentDir)); err != nil {
		return nil
	}

	name, ext := splitExt(src)
	return &ThumbnailMetadata{
		Src:     p.url(basePath, name, ThumbnailSize, ext, false),
		WebPSrc: p.url(basePath, name, ThumbnailSize, ext, true),
	}
}

// ToRelative converts a resolved "/category/rest" path back to "./rest" so it
// can be re-processed against the category's content directory. Other
// site-absolute paths become "./path"; anything else is returned as is.
func ToRelative(resolved, category string) string {
	if !strings.HasPrefix(resolved, "/") || strings.HasPrefix(resolved, "//") {
		return resolved
	}
	trimmed := strings.TrimLeft(resolved, "/")
	if rest, ok := strings.CutPrefix(trimmed, strings.Trim(category, "/")+"/"); ok {
		return "./" + rest
	}
	return "./" + trimmed
}

func (p *Processor) sources(basePath, name, ext string, sizes []uint32, webp bool) []ImageSource {
	out := make([]ImageSource, 0, len(sizes)+1)
	for _, s := range sizes {
		out = append(out, ImageSource{URL: p.url(basePath, name, s, ext, webp), Width: s})
	}
	return append(out, ImageSource{URL: p.url(basePath, name, 0, ext, webp), Width: FallbackWidth, Fallback: true})
}

// url formats {cdn}/images/{base}/{name}[.w{size}].{ext}[.webp]. A zero size means full size.
func (p *Processor) url(basePath, name string, size uint32, ext string, webp bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/images/%s/%s", p.cdnURL, basePath, name)
	if size > 0 {
		fmt.Fprintf(&b, ".w%d", size)
	}
	b.WriteString(".")
	b.WriteString(ext)
	if webp {
		b.WriteString(".webp")
	}
	return b.String()
}

func isExternal(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "//")
}

func trimDot(src string) string {
	for strings.HasPrefix(src, "./") {
		src = src[2:]
	}
	return src
}

func localPath(src, contentDir string) string {
	return filepath.Join(contentDir, filepath.FromSlash(trimDot(src)))
}

// splitExt splits at the last dot. Names without one default to jpg.
func splitExt(src string) (string, string) {
	src = trimDot(src)
	if i := strings.LastIndex(src, "."); i >= 0 {
		return src[:i], src[i+1:]
	}
	return src, defaultExt
}

func dimensions(path string) (uint32, uint32, error) {
	// #nosec G304 -- path is resolved inside the content directory.
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return uint32(cfg.Width), uint32(cfg.Height), nil // #nosec G115 -- checked non-negative
}
