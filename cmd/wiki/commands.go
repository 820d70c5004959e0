package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/eringen/wikiengine"
	"github.com/eringen/wikiengine/config"
	"github.com/eringen/wikiengine/entries"
	"github.com/eringen/wikiengine/export"
	"github.com/eringen/wikiengine/images"
	"github.com/eringen/wikiengine/metadata"
	"github.com/eringen/wikiengine/metrics"
	"github.com/eringen/wikiengine/scaffold"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address; overrides the configuration"`
}

func (s *ServeCmd) Run(root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := wikiengine.New(cfg, wikiengine.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Start(ctx)
}

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output string `short:"o" help:"Output directory; overrides the configuration"`
	Watch  bool   `short:"w" help:"Rebuild whenever entries, metadata, images or assets change"`
}

func (x *ExportCmd) Run(root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if x.Output != "" {
		cfg.OutputDir = x.Output
	}

	exporter, closeFn, err := newExporter(afero.NewOsFs(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := exporter.Export(ctx)
	if err != nil {
		return err
	}
	printReport(report)
	if !x.Watch {
		return nil
	}
	return watch(ctx, cfg, func() {
		report, err := exporter.Export(ctx)
		if err != nil {
			slog.Warn("rebuild failed", "error", err)
			return
		}
		printReport(report)
	})
}

func newExporter(fsys afero.Fs, cfg *config.Config) (*export.Exporter, func(), error) {
	store := entries.NewStore(fsys, cfg.EntriesDir)
	resolver := images.NewResolver(fsys, cfg.ImagesDir, cfg.ImagesURL)
	meta, err := metadata.Open(cfg.MetadataBackend, fsys, cfg.MetadataPath, cfg.MetadataDBPath, resolver)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = meta.Close() }
	return export.New(fsys, cfg, store, meta, resolver), closeFn, nil
}

func printReport(r export.Report) {
	fmt.Printf("Static site generated in %s (%d entries, %d pages)\n", r.OutputDir, r.Entries, r.Pages)
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

// ConvertImagesCmd implements the 'convert-images' command.
type ConvertImagesCmd struct {
	Titles []string `arg:"" optional:"" help:"Entry titles to convert; all entries when omitted"`
}

func (ci *ConvertImagesCmd) Run(root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	fsys := afero.NewOsFs()
	titles := ci.Titles
	if len(titles) == 0 {
		titles = entries.NewStore(fsys, cfg.EntriesDir).List()
	}
	n, err := images.NewResolver(fsys, cfg.ImagesDir, cfg.ImagesURL).ConvertAll(titles)
	fmt.Printf("Converted %d image(s)\n", n)
	return err
}

// NewCmd implements the 'new' command.
type NewCmd struct {
	Dir  string `arg:"" help:"Directory of the new wiki"`
	Name string `help:"Site name; derived from the directory when empty"`
}

func (n *NewCmd) Run() error {
	name := n.Name
	if name == "" {
		name = scaffold.SiteName(n.Dir)
	}
	fmt.Printf("Creating new wiki: %s\n\n", n.Dir)
	created, err := scaffold.Create(afero.NewOsFs(), n.Dir, scaffold.Data{SiteName: name})
	for _, p := range created {
		fmt.Printf("  created %s\n", p)
	}
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", n.Dir)
	fmt.Println("  cp .env.example .env")
	fmt.Println("  wiki serve")
	return nil
}

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Printf("wiki %s\n", version)
	return nil
}
