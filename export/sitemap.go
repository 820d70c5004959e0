package export

import (
	"bytes"
	"encoding/xml"
	"net/url"
	"path"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// writeSitemap lists the index, the search page and every slugged entry URL.
func (e *Exporter) writeSitemap(slugs []string) error {
	base := e.cfg.URL
	urls := []sitemapURL{
		{Loc: buildURL(base)},
		{Loc: buildURL(base, "search")},
	}
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if seen[s] {
			continue
		}
		seen[s] = true
		urls = append(urls, sitemapURL{Loc: buildURL(base, "wiki", s)})
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return e.writeFile("sitemap.xml", buf.Bytes())
}

// buildURL joins a base URL with path segments, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}
