// Package wikiengine serves a Markdown wiki with Echo.
//
// The App wires the entry store, the metadata store and the image resolver
// behind a small set of routes: index, entry, search, create, edit and
// random. The same stores feed the static exporter in package export.
package wikiengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/eringen/wikiengine/config"
	"github.com/eringen/wikiengine/entries"
	"github.com/eringen/wikiengine/images"
	"github.com/eringen/wikiengine/metadata"
	"github.com/eringen/wikiengine/metrics"
)

// App is the wiki HTTP application.
type App struct {
	Config  *config.Config
	Echo    *echo.Echo
	Entries *entries.Store
	Meta    metadata.Store
	Images  *images.Resolver
	Titles  *TitleCache

	fs           afero.Fs
	recorder     metrics.Recorder
	writeLimiter *WriteLimiter
	rnd          *rand.Rand
}

// Option configures an App.
type Option func(*App)

// WithFs replaces the OS filesystem, mostly for tests.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithRecorder sets the metrics recorder. A recorder that also exposes
// Handler() http.Handler is mounted at /metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithRand fixes the random source used by /random.
func WithRand(r *rand.Rand) Option {
	return func(a *App) { a.rnd = r }
}

// New opens the stores named by cfg and registers middleware and routes.
// The returned App is ready to serve; call Close when done.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("wikiengine: SessionSecret is required")
	}

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		fs:       afero.NewOsFs(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	a.Entries = entries.NewStore(a.fs, cfg.EntriesDir)
	a.Images = images.NewResolver(a.fs, cfg.ImagesDir, cfg.ImagesURL)
	meta, err := metadata.Open(cfg.MetadataBackend, a.fs, cfg.MetadataPath, cfg.MetadataDBPath, a.Images)
	if err != nil {
		return nil, fmt.Errorf("wikiengine: open metadata: %w", err)
	}
	a.Meta = meta
	a.Titles = NewTitleCache(a.Entries, cfg.EntryCacheTTL)
	a.writeLimiter = NewWriteLimiter(cfg.WriteLimit, cfg.WriteWindow)

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *App) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("wiki listening", "addr", a.Config.Addr)
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("wikiengine: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	a.mountStatic()

	e.GET("/", a.handleIndex)
	e.GET("/wiki/:title", a.handleEntry)
	e.GET("/wiki/:title/edit", a.handleEditForm)
	e.POST("/wiki/:title/edit", a.handleEdit, a.limitWrites)
	e.GET("/search", a.handleSearch)
	e.GET("/newpage", a.handleNewPageForm)
	e.POST("/newpage", a.handleNewPage, a.limitWrites)
	e.GET("/random", a.handleRandom)

	if h, ok := a.recorder.(interface{ Handler() http.Handler }); ok {
		e.GET("/metrics", echo.WrapHandler(h.Handler()))
	}
}

// Close releases the metadata store and stops the limiter.
func (a *App) Close() error {
	if a.writeLimiter != nil {
		a.writeLimiter.Stop()
	}
	if a.Meta != nil {
		return a.Meta.Close()
	}
	return nil
}
