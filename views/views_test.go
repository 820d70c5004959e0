package views

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

var testPage = Page{Site: "Wiki", Title: "Home", Nav: DynamicNav}

func TestIndexCards(t *testing.T) {
	got := renderString(t, Index(testPage, []Card{
		{Title: "Python", Category: "Lang", Author: "Guido", ImageURL: "/static/images/Python.webp", URL: "/wiki/Python"},
		{Title: "<b>Raw</b>", URL: "/wiki/raw"},
	}))
	assert.Contains(t, got, "<h3>Python</h3>")
	assert.Contains(t, got, `<img src="/static/images/Python.webp"`)
	assert.Contains(t, got, "Category: -")
	assert.Contains(t, got, "&lt;b&gt;Raw&lt;/b&gt;")
	assert.Contains(t, got, `href="/search"`)
	assert.Contains(t, got, `action="/search"`)
	assert.Contains(t, got, `<html lang="en">`)
	assert.NotContains(t, got, "data-key")
}

func TestStaticNavLinks(t *testing.T) {
	got := renderString(t, Index(Page{Site: "Wiki", Title: "Home", Nav: StaticNav}, nil))
	assert.Contains(t, got, `href="/search/"`)
	assert.Contains(t, got, `href="/newpage.html"`)
	assert.Contains(t, got, `href="/random.html"`)
}

func TestEntryPage(t *testing.T) {
	got := renderString(t, EntryPage(testPage, Entry{Title: "Go", Body: template.HTML("<p><strong>fast</strong></p>"), Found: true, EditURL: "/wiki/Go/edit"}))
	assert.Contains(t, got, "<p><strong>fast</strong></p>")
	assert.Contains(t, got, `href="/wiki/Go/edit"`)

	got = renderString(t, EntryPage(testPage, Entry{Title: "Nope"}))
	assert.Contains(t, got, NotFoundMessage)
	assert.NotContains(t, got, "Edit</a>")
}

func TestResults(t *testing.T) {
	got := renderString(t, Results(testPage, "zzz", nil))
	assert.Contains(t, got, NoResultsMessage)
}

func TestNewPageShowsErrors(t *testing.T) {
	got := renderString(t, NewPage(Page{Site: "Wiki", Title: "New", Nav: DynamicNav, CSRF: "tok"}, NewPageForm{
		Title:  "Cats",
		Errors: map[string]string{"category": "cannot be blank"},
		Error:  "duplicate",
	}))
	assert.Contains(t, got, `value="tok"`)
	assert.Contains(t, got, `value="Cats"`)
	assert.Contains(t, got, "cannot be blank")
	assert.Contains(t, got, "duplicate")
}

func TestStaticPages(t *testing.T) {
	p := Page{Site: "Wiki", Title: "Search", Nav: StaticNav}
	got := renderString(t, StaticSearch(p, []Card{{Title: "Cat", Key: "cat", URL: "/wiki/cat/"}}))
	assert.Contains(t, got, `data-key="cat"`)
	assert.Contains(t, got, `href="/random.html"`)

	got = renderString(t, StaticRandom(p, []string{"cat", "dog"}))
	assert.Contains(t, got, `["cat","dog"]`)
	assert.Contains(t, got, "Math.random()")

	got = renderString(t, StaticNewPage(p))
	assert.Contains(t, got, "<fieldset disabled>")
}

func TestAssetsEmbedded(t *testing.T) {
	data, err := fs.ReadFile(Assets, "static/wiki/styles.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
