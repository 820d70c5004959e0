// Package markdown converts entry sources to sanitized HTML. Render is the
// only path from Markdown to markup shown to readers, for both the live site
// and the static export.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// AllowedTags lists every element that survives sanitization.
var AllowedTags = []string{
	"p", "br", "ul", "ol", "li", "strong", "em", "a", "img",
	"h1", "h2", "h3", "pre", "code", "blockquote",
	"table", "thead", "tbody", "tr", "th", "td",
}

var (
	engine = goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	policy = newPolicy()

	// A raw HTML block of this kind ends on the line holding its closing tag;
	// anything after that tag is moved to its own paragraph.
	reClosedRawBlock = regexp.MustCompile(`(?i)^( {0,3}<(?:script|pre|style|textarea)\b.*?</(?:script|pre|style|textarea)>)(.*\S.*)$`)
	reFence          = regexp.MustCompile("^ {0,3}(```|~~~)")
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	p.AllowNoAttrs().OnElements(AllowedTags...)
	p.AllowAttrs("href", "title", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowAttrs("colspan", "rowspan", "scope").OnElements("th")
	p.AllowAttrs("colspan", "rowspan").OnElements("td")
	p.AllowAttrs("class").Globally()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Render converts Markdown to HTML and strips every tag and attribute outside
// the allow-list.
func Render(src string) string {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(splitRawBlocks(src)), &buf); err != nil {
		// goldmark only fails when the writer fails; bytes.Buffer does not.
		return ""
	}
	return policy.Sanitize(buf.String())
}

// splitRawBlocks breaks lines such as "<script>x</script>**bold**" so the
// text after the closing tag is parsed as Markdown. Fenced code is untouched.
func splitRawBlocks(src string) string {
	if !strings.Contains(src, "</") {
		return src
	}
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	fence := ""
	for _, line := range lines {
		if m := reFence.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
			case fence == m[1]:
				fence = ""
			}
			out = append(out, line)
			continue
		}
		if fence == "" {
			if m := reClosedRawBlock.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
				out = append(out, m[1], "", strings.TrimSpace(m[2]))
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
