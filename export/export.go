// Package export builds a self-contained static copy of the wiki.
//
// An export always starts from an empty output directory and runs in one
// synchronous pass: reset, load metadata, copy assets, render entries, build
// the index, then the auxiliary pages (search, create stub, random,
// sitemap). Failures before the auxiliary pages abort the export; auxiliary
// failures are logged and reported as warnings.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	"github.com/eringen/wikiengine/config"
	"github.com/eringen/wikiengine/entries"
	"github.com/eringen/wikiengine/images"
	"github.com/eringen/wikiengine/markdown"
	"github.com/eringen/wikiengine/metadata"
	"github.com/eringen/wikiengine/metrics"
	"github.com/eringen/wikiengine/slug"
	"github.com/eringen/wikiengine/views"
)

var (
	// ErrOutputBusy is returned when the previous output tree cannot be
	// removed, typically because another process is serving it.
	ErrOutputBusy = errors.New("output directory is busy")
	// ErrUnsafeOutput is returned for output directories that must never be
	// wiped, such as "." or the entries directory.
	ErrUnsafeOutput = errors.New("unsafe output directory")
)

// Report summarizes a finished export.
type Report struct {
	OutputDir string
	Entries   int
	Pages     int
	Warnings  []string
}

// Exporter renders the wiki into cfg.OutputDir.
type Exporter struct {
	fs       afero.Fs
	cfg      *config.Config
	entries  *entries.Store
	meta     metadata.Store
	images   *images.Resolver
	assets   fs.FS
	recorder metrics.Recorder
}

// New returns an Exporter. All paths come from cfg.
func New(fsys afero.Fs, cfg *config.Config, store *entries.Store, meta metadata.Store, resolver *images.Resolver) *Exporter {
	return &Exporter{
		fs:       fsys,
		cfg:      cfg,
		entries:  store,
		meta:     meta,
		images:   resolver,
		assets:   views.Assets,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (e *Exporter) WithRecorder(r metrics.Recorder) *Exporter {
	e.recorder = r
	return e
}

// Export rebuilds the output tree from scratch.
func (e *Exporter) Export(ctx context.Context) (report Report, err error) {
	start := time.Now()
	report.OutputDir = e.cfg.OutputDir
	defer func() {
		e.recorder.ExportFinished(time.Since(start), report.Pages, len(report.Warnings), err)
	}()

	if err := e.reset(); err != nil {
		return report, err
	}

	records := make(map[string]metadata.Record)
	if e.meta != nil {
		for _, r := range e.meta.All() {
			k := metadata.Key(r.Title)
			if _, dup := records[k]; !dup {
				records[k] = r
			}
		}
	}

	if err := e.copyAssets(); err != nil {
		return report, fmt.Errorf("copy assets: %w", err)
	}

	site := newSite(e.cfg.Name)
	titles := e.entries.List()
	cards := make([]views.Card, 0, len(titles))
	slugs := make([]string, 0, len(titles))
	owners := make(map[string]string, len(titles))
	for _, title := range titles {
		s := slug.Make(title)
		if prev, ok := owners[s]; ok {
			slog.Warn("slug collision, later entry wins the slugged path", "slug", s, "first", prev, "second", title)
		}
		owners[s] = title
		if err := e.writeEntry(ctx, site, title, s, &report); err != nil {
			return report, err
		}
		rec := records[metadata.Key(title)]
		card := views.Card{
			Title:    title,
			Category: rec.Category,
			Author:   rec.Author,
			URL:      "/wiki/" + s + "/",
			Key:      strings.ToLower(title),
		}
		if u, ok := e.images.Resolve(title); ok {
			card.ImageURL = u
		}
		cards = append(cards, card)
		slugs = append(slugs, s)
	}
	report.Entries = len(titles)

	indexCards := make([]views.Card, len(cards))
	for i, c := range cards {
		c.Key = ""
		indexCards[i] = c
	}
	if err := e.writePage(ctx, "index.html", views.Index(site.page("Index"), indexCards), &report); err != nil {
		return report, fmt.Errorf("build index: %w", err)
	}

	e.auxiliary(&report, "search", func() error {
		return e.writePage(ctx, "search/index.html", views.StaticSearch(site.page("Search"), cards), &report)
	})
	e.auxiliary(&report, "newpage", func() error {
		return e.writePage(ctx, "newpage.html", views.StaticNewPage(site.page("Create New Page")), &report)
	})
	e.auxiliary(&report, "random", func() error {
		return e.writePage(ctx, "random.html", views.StaticRandom(site.page("Random Page"), slugs), &report)
	})
	if e.cfg.URL != "" {
		e.auxiliary(&report, "sitemap", func() error {
			return e.writeSitemap(slugs)
		})
	}

	slog.Info("built static site",
		"output", e.cfg.OutputDir,
		"entries", report.Entries,
		"pages", report.Pages,
		"warnings", len(report.Warnings))
	return report, nil
}

// reset deletes the previous output tree and recreates the fixed layout.
func (e *Exporter) reset() error {
	out := filepath.Clean(e.cfg.OutputDir)
	if out == "." || out == string(filepath.Separator) || out == filepath.Clean(e.entries.Dir()) {
		return fmt.Errorf("%w: %q", ErrUnsafeOutput, e.cfg.OutputDir)
	}
	if err := e.fs.RemoveAll(out); err != nil {
		return fmt.Errorf("%w: could not remove %s; stop any process serving or holding it and retry: %w", ErrOutputBusy, out, err)
	}
	for _, dir := range []string{out, filepath.Join(out, "wiki"), filepath.Join(out, "static")} {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (e *Exporter) writeEntry(ctx context.Context, site site, title, s string, report *Report) error {
	src, err := e.entries.Get(title)
	if err != nil {
		return fmt.Errorf("load entry %q: %w", title, err)
	}
	cmp := views.EntryPage(site.page(title), views.Entry{
		Title: title,
		Body:  template.HTML(markdown.Render(src)),
		Found: true,
	})
	if err := e.writePage(ctx, path.Join("wiki", s, "index.html"), cmp, report); err != nil {
		return fmt.Errorf("write entry %q: %w", title, err)
	}
	if err := e.writePage(ctx, path.Join("wiki", title+".html"), cmp, report); err != nil {
		return fmt.Errorf("write entry %q: %w", title, err)
	}
	return nil
}

func (e *Exporter) writePage(ctx context.Context, rel string, cmp templ.Component, report *Report) error {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	if err := e.writeFile(rel, buf.Bytes()); err != nil {
		return err
	}
	report.Pages++
	return nil
}

func (e *Exporter) writeFile(rel string, data []byte) error {
	dst := filepath.Join(e.cfg.OutputDir, filepath.FromSlash(rel))
	if err := e.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	if err := afero.WriteFile(e.fs, dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// auxiliary runs a best-effort phase.
func (e *Exporter) auxiliary(report *Report, name string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("auxiliary page failed, continuing", "page", name, "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", name, err))
	}
}

// site holds the chrome shared by every exported page.
type site struct {
	name string
}

func newSite(name string) site {
	return site{name: name}
}

func (s site) page(title string) views.Page {
	return views.Page{Site: s.name, Title: title, Nav: views.StaticNav}
}

// isNotExist reports whether err means a path is missing.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
