package views

import "html/template"

// Nav holds the URLs of the sidebar links. The live site and the static
// export use different URLs for the same pages.
type Nav struct {
	Home    string
	Search  string
	NewPage string
	Random  string
}

// DynamicNav is used by the HTTP server.
var DynamicNav = Nav{Home: "/", Search: "/search", NewPage: "/newpage", Random: "/random"}

// StaticNav is used by the static export.
var StaticNav = Nav{Home: "/", Search: "/search/", NewPage: "/newpage.html", Random: "/random.html"}

// Page carries what the shared layout needs.
type Page struct {
	Site  string
	Title string
	Nav   Nav
	Flash string
	CSRF  string
}

// Card is one entry tile on the index, results and search pages.
type Card struct {
	Title    string
	Category string
	Author   string
	ImageURL string
	URL      string
	Key      string // lowercased title, used by the static search filter
}

// Entry is a rendered wiki article. Body must already be sanitized.
type Entry struct {
	Title   string
	Body    template.HTML
	Found   bool
	EditURL string
}

// NewPageForm holds submitted create-form values and per-field errors.
type NewPageForm struct {
	Title    string
	Category string
	Author   string
	Content  string
	Errors   map[string]string
	Error    string
}
