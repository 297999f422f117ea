package generator

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// contentAssetExts are the files copied verbatim from the content directory.
var contentAssetExts = map[string]struct{}{
	// images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {}, ".ico": {}, ".bmp": {},
	// media
	".mp4": {}, ".webm": {}, ".mp3": {}, ".wav": {},
	// documents
	".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {},
}

// IsContentAsset reports whether path is an image, media or document file
// that belongs in the output next to its post.
func IsContentAsset(path string) bool {
	_, ok := contentAssetExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// CopyStaticAssets mirrors the static directory into the output root and
// reports whether there was anything to copy.
func (g *Generator) CopyStaticAssets() (bool, error) {
	src := g.cfg.Build.StaticDir
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return false, nil
	}
	if err := copyDir(src, g.cfg.Build.OutputDir); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to copy static assets").
			WithContext("path", src).
			Build()
	}
	slog.Debug("Copied static assets", logfields.Path(src))
	return true, nil
}

// CopyContentAssets copies asset files from the content directory into the
// output, preserving their relative paths, and returns how many were copied.
func (g *Generator) CopyContentAssets() (int, error) {
	root := g.cfg.Build.ContentDir
	if _, err := os.Stat(root); err != nil {
		return 0, nil
	}

	var assets []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !IsContentAsset(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		assets = append(assets, rel)
		return nil
	})
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan content assets").
			WithContext("path", root).
			Build()
	}

	var eg errgroup.Group
	eg.SetLimit(max(1, g.cfg.Build.Threads))
	for _, rel := range assets {
		eg.Go(func() error {
			dst := filepath.Join(g.cfg.Build.OutputDir, rel)
			if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
				return err
			}
			return copyFile(filepath.Join(root, rel), dst)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to copy content assets").
			WithContext("path", root).
			Build()
	}

	slog.Debug("Copied content assets", logfields.Count(len(assets)))
	return len(assets), nil
}

// copyDir recursively copies src into dst.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read source directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}

	return nil
}

// copyFile copies a single file, keeping its permissions.
func copyFile(src, dst string) error {
	// #nosec G304 -- src is a walked path inside the site tree.
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- dst is inside the output directory.
	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	return os.Chmod(dst, srcInfo.Mode())
}
