// Package images resolves and converts the optional picture attached to an
// entry. Images live in one directory and are named after the entry title.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// CanonicalExt is the compressed format images are converted to.
const CanonicalExt = ".webp"

// LegacyExts are probed in order after CanonicalExt.
var LegacyExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

const maxImageWidth = 1200

// ErrUnsupportedImage is returned when an upload has an unknown extension.
var ErrUnsupportedImage = errors.New("unsupported image type")

// Resolver locates entry images on disk and maps them to public URLs.
type Resolver struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

// NewResolver returns a Resolver for images stored in dir and served under
// urlPrefix (for example "/static/images").
func NewResolver(fs afero.Fs, dir, urlPrefix string) *Resolver {
	return &Resolver{fs: fs, dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Dir returns the image directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve returns the URL of the image for title. The canonical format wins
// over legacy formats; ok is false when no image exists.
func (r *Resolver) Resolve(title string) (string, bool) {
	if !validName(title) {
		return "", false
	}
	if r.exists(title + CanonicalExt) {
		return r.url(title + CanonicalExt), true
	}
	if ext, ok := r.firstLegacy(title); ok {
		return r.url(title + ext), true
	}
	return "", false
}

// Convert re-encodes the first legacy image of title as WebP and removes the
// original. It returns ok=false when there is nothing to convert, so running
// it on an already converted title is a no-op.
func (r *Resolver) Convert(title string) (string, bool, error) {
	if !validName(title) {
		return "", false, nil
	}
	ext, ok := r.firstLegacy(title)
	if !ok {
		return "", false, nil
	}
	src := filepath.Join(r.dir, title+ext)
	f, err := r.fs.Open(src)
	if err != nil {
		return "", false, fmt.Errorf("open image: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", false, fmt.Errorf("decode image %s: %w", src, err)
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, downscale(img), nil); err != nil {
		return "", false, fmt.Errorf("encode webp: %w", err)
	}

	dst := filepath.Join(r.dir, title+CanonicalExt)
	if err := afero.WriteFile(r.fs, dst, buf.Bytes(), 0o644); err != nil {
		return "", false, fmt.Errorf("write image: %w", err)
	}
	if err := r.fs.Remove(src); err != nil {
		return "", false, fmt.Errorf("remove original image: %w", err)
	}
	return dst, true, nil
}

// ConvertAll converts every title that still has a legacy image and returns
// how many were converted. Failures are logged and joined into the error.
func (r *Resolver) ConvertAll(titles []string) (int, error) {
	var errs []error
	converted := 0
	for _, title := range titles {
		dst, ok, err := r.Convert(title)
		if err != nil {
			slog.Warn("convert image", "title", title, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", title, err))
			continue
		}
		if ok {
			slog.Info("converted image", "title", title, "path", dst)
			converted++
		}
	}
	return converted, errors.Join(errs...)
}

// Store writes an uploaded image for title. Only legacy extensions are
// accepted; conversion is a separate maintenance step.
func (r *Resolver) Store(title, ext string, src io.Reader) (string, error) {
	ext = strings.ToLower(ext)
	if !isLegacy(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	if !validName(title) {
		return "", fmt.Errorf("%w: invalid title %q", ErrUnsupportedImage, title)
	}
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	dst := filepath.Join(r.dir, title+ext)
	if err := afero.WriteReader(r.fs, dst, src); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return dst, nil
}

// Remove deletes every image variant stored for title.
func (r *Resolver) Remove(title string) error {
	if !validName(title) {
		return nil
	}
	var errs []error
	for _, ext := range append([]string{CanonicalExt}, LegacyExts...) {
		err := r.fs.Remove(filepath.Join(r.dir, title+ext))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Resolver) firstLegacy(title string) (string, bool) {
	for _, ext := range LegacyExts {
		if r.exists(title + ext) {
			return ext, true
		}
	}
	return "", false
}

func (r *Resolver) exists(name string) bool {
	ok, err := afero.Exists(r.fs, filepath.Join(r.dir, name))
	return err == nil && ok
}

func (r *Resolver) url(name string) string {
	return path.Join(r.urlPrefix, url.PathEscape(name))
}

// downscale shrinks images wider than maxImageWidth, keeping the aspect ratio.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxImageWidth {
		return img
	}
	newH := h * maxImageWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func isLegacy(ext string) bool {
	for _, e := range LegacyExts {
		if e == ext {
			return true
		}
	}
	return false
}

func validName(title string) bool {
	return strings.TrimSpace(title) != "" && !strings.ContainsAny(title, `/\`) && title != ".." && title != "."
}
