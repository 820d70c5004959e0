// Package search holds the pure lookups behind the search and random-page
// features. The static export runs the same logic in the browser.
package search

import (
	"math/rand/v2"
	"strings"
)

// Match returns the titles of corpus that contain query, ignoring case, in
// corpus order. An empty query matches every title.
func Match(corpus []string, query string) []string {
	q := strings.ToLower(query)
	out := make([]string, 0, len(corpus))
	for _, title := range corpus {
		if strings.Contains(strings.ToLower(title), q) {
			out = append(out, title)
		}
	}
	return out
}

// Exact returns the title in corpus equal to query ignoring case.
func Exact(corpus []string, query string) (string, bool) {
	for _, title := range corpus {
		if strings.EqualFold(title, query) {
			return title, true
		}
	}
	return "", false
}

// PickRandom returns a uniformly chosen element of items, or "" when items
// is empty. A nil rnd uses the global source.
func PickRandom(items []string, rnd *rand.Rand) string {
	if len(items) == 0 {
		return ""
	}
	if rnd == nil {
		return items[rand.IntN(len(items))]
	}
	return items[rnd.IntN(len(items))]
}
