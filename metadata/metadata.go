// Package metadata keeps the descriptive sidecar fields (category, author)
// of wiki entries, with at most one record per normalized title.
package metadata

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Record is one metadata entry as persisted.
type Record struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Author   string `json:"author"`
}

// Enriched is a Record together with the entry's resolved image URL.
type Enriched struct {
	Record
	ImageURL string `json:"image_url,omitempty"`
}

// ImageResolver maps a title to its image URL.
type ImageResolver interface {
	Resolve(title string) (string, bool)
}

// Store is implemented by every metadata backend.
//
// Save returns false, and leaves the store untouched, when a record with the
// same normalized title already exists. The error is reserved for write
// failures. Query keeps the order of titles and skips titles without a
// record.
type Store interface {
	Save(title, category, author string) (bool, error)
	Query(titles []string) []Enriched
	All() []Record
	Close() error
}

// Key normalizes a title for duplicate detection and lookups.
func Key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Open returns the Store for backend. jsonPath is used by the JSON backend
// and dbPath by the SQLite backend.
func Open(backend string, fs afero.Fs, jsonPath, dbPath string, images ImageResolver) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewJSONStore(fs, jsonPath, images), nil
	case BackendSQLite:
		return NewSQLiteStore(dbPath, images)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", backend)
	}
}

func enrich(rec Record, title string, images ImageResolver) Enriched {
	e := Enriched{Record: rec}
	if images != nil {
		if u, ok := images.Resolve(title); ok {
			e.ImageURL = u
		}
	}
	return e
}
