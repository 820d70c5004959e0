package export

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// copyAssets mirrors the embedded stylesheet and then every configured asset
// source into <out>/static. Sources are copied in order, so a later source
// overwrites files of an earlier one. Entry images are mirrored to the path
// of their public URL when no asset source already contains them.
func (e *Exporter) copyAssets() error {
	staticOut := filepath.Join(e.cfg.OutputDir, "static")
	if err := e.copyEmbedded(staticOut); err != nil {
		return err
	}
	for _, src := range e.cfg.AssetSources {
		if err := e.copyTree(src, staticOut); err != nil {
			return err
		}
	}
	if !e.imagesCovered() {
		target := strings.TrimPrefix(path.Clean("/"+e.cfg.ImagesURL), "/")
		if target != "" {
			if err := e.copyTree(e.images.Dir(), filepath.Join(e.cfg.OutputDir, filepath.FromSlash(target))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Exporter) copyEmbedded(dst string) error {
	return fs.WalkDir(e.assets, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, "static"), "/")
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if d.IsDir() {
			return e.fs.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(e.assets, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(e.fs, target, data, 0o644)
	})
}

// copyTree copies src into dst, preserving relative paths and modification
// times. A missing source is skipped.
func (e *Exporter) copyTree(src, dst string) error {
	if _, err := e.fs.Stat(src); err != nil {
		if isNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	return afero.Walk(e.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return e.fs.MkdirAll(target, 0o755)
		}
		if err := e.copyFile(p, target); err != nil {
			return err
		}
		return e.fs.Chtimes(target, info.ModTime(), info.ModTime())
	})
}

func (e *Exporter) copyFile(src, dst string) error {
	in, err := e.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := e.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// imagesCovered reports whether the images directory lies inside one of the
// asset sources and is therefore already copied.
func (e *Exporter) imagesCovered() bool {
	dir := filepath.Clean(e.images.Dir())
	for _, src := range e.cfg.AssetSources {
		rel, err := filepath.Rel(filepath.Clean(src), dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
