// Package views renders the wiki's HTML pages. Every page is a
// templ.Component so the HTTP handlers and the static exporter share one
// rendering path.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

// Assets contains the stylesheet shipped with the wiki, rooted at "static".
//
//go:embed static
var Assets embed.FS

// NotFoundMessage is shown in place of the body of a missing entry.
const NotFoundMessage = "Entry not found :(..."

// NoResultsMessage is shown when a search matches nothing.
const NoResultsMessage = "No results :(..."

var pages = map[string]*template.Template{}

func init() {
	layout := template.Must(template.ParseFS(templateFS, "templates/layout.html"))
	for _, name := range []string{
		"index", "entry", "results", "newpage", "edit", "error",
		"static_search", "static_newpage", "static_random",
	} {
		t := template.Must(layout.Clone())
		pages[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", data)
	})
}

// Index lists every entry as a card.
func Index(p Page, cards []Card) templ.Component {
	return page("index", struct {
		Page
		Cards []Card
	}{p, cards})
}

// EntryPage shows a single entry, or NotFoundMessage when e.Found is false.
func EntryPage(p Page, e Entry) templ.Component {
	return page("entry", struct {
		Page
		Entry   Entry
		Missing string
	}{p, e, NotFoundMessage})
}

// Results lists search matches, or NoResultsMessage when cards is empty.
func Results(p Page, query string, cards []Card) templ.Component {
	return page("results", struct {
		Page
		Query   string
		Cards   []Card
		Message string
	}{p, query, cards, NoResultsMessage})
}

// NewPage renders the create form.
func NewPage(p Page, f NewPageForm) templ.Component {
	return page("newpage", struct {
		Page
		Form NewPageForm
	}{p, f})
}

// Edit renders the edit form for an existing entry.
func Edit(p Page, title, content string) templ.Component {
	return page("edit", struct {
		Page
		EntryTitle string
		Content    string
	}{p, title, content})
}

// Error renders a plain error page.
func Error(p Page, message string) templ.Component {
	return page("error", struct {
		Page
		Message string
	}{p, message})
}

// StaticSearch renders the export's search page; filtering runs in the
// browser against each card's Key.
func StaticSearch(p Page, cards []Card) templ.Component {
	return page("static_search", struct {
		Page
		Cards []Card
	}{p, cards})
}

// StaticNewPage renders the export's informational create-page stub.
func StaticNewPage(p Page) templ.Component {
	return page("static_newpage", p)
}

// StaticRandom renders a page that redirects to a random entry chosen in the
// browser from slugs.
func StaticRandom(p Page, slugs []string) templ.Component {
	return page("static_random", struct {
		Page
		Slugs []string
	}{p, slugs})
}
