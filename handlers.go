package wikiengine

import (
	"errors"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/wikiengine/entries"
	"github.com/eringen/wikiengine/images"
	"github.com/eringen/wikiengine/markdown"
	"github.com/eringen/wikiengine/metadata"
	"github.com/eringen/wikiengine/search"
	"github.com/eringen/wikiengine/views"
)

const maxUploadSize = 10 << 20 // 10MB

const (
	msgDuplicateEntry    = "An entry with this title already exists :(..."
	msgDuplicateMetadata = "Metadata for an entry with this title already exists :(..."
	msgMetadataRejected  = "The metadata could not be saved (possible duplicate)."
	msgNoEntries         = "There are no entries yet."
)

func (a *App) page(c echo.Context, title string) views.Page {
	return views.Page{
		Site:  a.Config.Name,
		Title: title,
		Nav:   views.DynamicNav,
		Flash: popFlash(c),
		CSRF:  CsrfToken(c),
	}
}

func entryURL(title string) string {
	return "/wiki/" + url.PathEscape(title)
}

// titleParam returns the decoded :title path parameter.
func titleParam(c echo.Context) string {
	raw := c.Param("title")
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if t, err := url.PathUnescape(raw); err == nil {
		return t
	}
	return raw
}

// cards enriches titles with metadata. Titles without a record are skipped.
func (a *App) cards(titles []string) []views.Card {
	byKey := make(map[string]string, len(titles))
	for _, t := range titles {
		byKey[metadata.Key(t)] = t
	}
	found := a.Meta.Query(titles)
	out := make([]views.Card, 0, len(found))
	for _, rec := range found {
		title := rec.Title
		if t, ok := byKey[metadata.Key(rec.Title)]; ok {
			title = t
		}
		out = append(out, views.Card{
			Title:    rec.Title,
			Category: rec.Category,
			Author:   rec.Author,
			ImageURL: rec.ImageURL,
			URL:      entryURL(title),
		})
	}
	return out
}

func (a *App) renderEntry(c echo.Context, title, src string, found bool) error {
	e := views.Entry{Title: title, Found: found}
	if found {
		e.Body = template.HTML(markdown.Render(src))
		e.EditURL = entryURL(title) + "/edit"
	}
	return Render(c, views.EntryPage(a.page(c, title), e))
}

func (a *App) handleIndex(c echo.Context) error {
	return Render(c, views.Index(a.page(c, "Encyclopedia"), a.cards(a.Titles.List())))
}

func (a *App) handleEntry(c echo.Context) error {
	title := titleParam(c)
	src, err := a.Entries.Get(title)
	if errors.Is(err, entries.ErrNotFound) {
		return a.renderEntry(c, title, "", false)
	}
	if err != nil {
		return err
	}
	return a.renderEntry(c, title, src, true)
}

func (a *App) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	titles := a.Titles.List()

	if query != "" {
		if a.Entries.Exists(query) {
			return c.Redirect(http.StatusSeeOther, entryURL(query))
		}
		if title, ok := search.Exact(titles, query); ok {
			return c.Redirect(http.StatusSeeOther, entryURL(title))
		}
	}

	matches := search.Match(titles, query)
	return Render(c, views.Results(a.page(c, "Search"), query, a.cards(matches)))
}

func (a *App) handleNewPageForm(c echo.Context) error {
	return Render(c, views.NewPage(a.page(c, "Create New Page"), views.NewPageForm{}))
}

func (a *App) handleNewPage(c echo.Context) error {
	in := newPageInput{
		Title:    c.FormValue("title"),
		Category: c.FormValue("category"),
		Author:   c.FormValue("author"),
		Content:  c.FormValue("content"),
	}
	in.normalize()
	form := views.NewPageForm{
		Title:    in.Title,
		Category: in.Category,
		Author:   in.Author,
		Content:  in.Content,
	}
	rerender := func(status int) error {
		return RenderStatus(c, status, views.NewPage(a.page(c, "Create New Page"), form))
	}

	if err := in.Validate(); err != nil {
		form.Errors = fieldErrors(err)
		return rerender(http.StatusUnprocessableEntity)
	}

	upload, ext, err := formImage(c)
	if err != nil {
		form.Errors = map[string]string{"image": err.Error()}
		return rerender(http.StatusUnprocessableEntity)
	}

	if _, dup := search.Exact(a.Titles.List(), in.Title); dup || a.Entries.Exists(in.Title) {
		a.recorder.DuplicateRejected()
		form.Error = msgDuplicateEntry
		return rerender(http.StatusConflict)
	}
	if len(a.Meta.Query([]string{in.Title})) > 0 {
		a.recorder.DuplicateRejected()
		form.Error = msgDuplicateMetadata
		return rerender(http.StatusConflict)
	}

	if upload != nil {
		if err := a.storeImage(in.Title, ext, upload); err != nil {
			a.rollback(in.Title, false, true)
			return err
		}
	}
	if err := a.Entries.Save(in.Title, in.Content); err != nil {
		a.rollback(in.Title, false, upload != nil)
		return err
	}
	a.Titles.Invalidate()

	saved, err := a.Meta.Save(in.Title, in.Category, in.Author)
	if err != nil || !saved {
		a.rollback(in.Title, true, upload != nil)
		if err != nil {
			return err
		}
		a.recorder.DuplicateRejected()
		form.Error = msgMetadataRejected
		return rerender(http.StatusConflict)
	}

	a.recorder.EntrySaved(true)
	slog.Info("entry created", "title", in.Title, "image", upload != nil)
	if err := addFlash(c, "Entry created."); err != nil {
		slog.Warn("set flash", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, entryURL(in.Title))
}

// formImage returns the optional uploaded image and its extension.
func formImage(c echo.Context) (*multipart.FileHeader, string, error) {
	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", errors.New("could not read the uploaded image")
	}
	if file.Size > maxUploadSize {
		return nil, "", errors.New("image too large (max 10MB)")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	for _, legacy := range images.LegacyExts {
		if ext == legacy {
			return file, ext, nil
		}
	}
	return nil, "", errors.New("unsupported image type; use jpg, png, gif or bmp")
}

func (a *App) storeImage(title, ext string, file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = a.Images.Store(title, ext, src)
	return err
}

// rollback undoes a partially created entry.
func (a *App) rollback(title string, entry, image bool) {
	if entry {
		if err := a.Entries.Delete(title); err != nil {
			slog.Error("rollback entry", "title", title, "error", err)
		}
		a.Titles.Invalidate()
	}
	if image {
		if err := a.Images.Remove(title); err != nil {
			slog.Error("rollback image", "title", title, "error", err)
		}
	}
}

func (a *App) handleEditForm(c echo.Context) error {
	title := titleParam(c)
	src, err := a.Entries.Get(title)
	if errors.Is(err, entries.ErrNotFound) {
		return a.renderEntry(c, title, "", false)
	}
	if err != nil {
		return err
	}
	return Render(c, views.Edit(a.page(c, "Edit "+title), title, src))
}

func (a *App) handleEdit(c echo.Context) error {
	title := titleParam(c)
	if !a.Entries.Exists(title) {
		return a.renderEntry(c, title, "", false)
	}
	in := editInput{Content: c.FormValue("content")}
	if err := in.Validate(); err != nil {
		p := a.page(c, "Edit "+title)
		p.Flash = fieldErrors(err)["content"]
		return RenderStatus(c, http.StatusUnprocessableEntity, views.Edit(p, title, in.Content))
	}
	if err := a.Entries.Save(title, in.Content); err != nil {
		return err
	}
	a.recorder.EntrySaved(false)
	if err := addFlash(c, "Entry saved."); err != nil {
		slog.Warn("set flash", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, entryURL(title))
}

func (a *App) handleRandom(c echo.Context) error {
	title := search.PickRandom(a.Titles.List(), a.rnd)
	if title == "" {
		return RenderStatus(c, http.StatusNotFound, views.Error(a.page(c, "Random Page"), msgNoEntries))
	}
	return c.Redirect(http.StatusSeeOther, entryURL(title))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.Error(a.page(c, "Not Found"), "Page not found."))
	case code >= 500:
		slog.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, views.Error(a.page(c, "Error"), "Something went wrong."))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
