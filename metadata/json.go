package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// JSONStore keeps all records in a single JSON array that is rewritten on
// every save. It is meant for small corpora.
type JSONStore struct {
	fs     afero.Fs
	path   string
	images ImageResolver
}

// NewJSONStore returns a JSONStore for the document at path.
func NewJSONStore(fs afero.Fs, path string, images ImageResolver) *JSONStore {
	return &JSONStore{fs: fs, path: path, images: images}
}

// Save appends a record unless its normalized title is already present.
func (s *JSONStore) Save(title, category, author string) (bool, error) {
	records := s.load()
	key := Key(title)
	for _, r := range records {
		if Key(r.Title) == key {
			return false, nil
		}
	}
	records = append(records, Record{Title: title, Category: category, Author: author})
	if err := s.write(records); err != nil {
		return false, err
	}
	return true, nil
}

// Query returns the records for titles in input order.
func (s *JSONStore) Query(titles []string) []Enriched {
	index := make(map[string]Record)
	for _, r := range s.load() {
		k := Key(r.Title)
		if _, dup := index[k]; !dup {
			index[k] = r
		}
	}
	out := make([]Enriched, 0, len(titles))
	for _, t := range titles {
		if r, ok := index[Key(t)]; ok {
			out = append(out, enrich(r, t, s.images))
		}
	}
	return out
}

// All returns every stored record in document order.
func (s *JSONStore) All() []Record {
	return s.load()
}

// Close is a no-op.
func (s *JSONStore) Close() error {
	return nil
}

// load reads the document, treating a missing, empty or malformed file as an
// empty array.
func (s *JSONStore) load() []Record {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("read metadata", "path", s.path, "error", err)
		}
		return []Record{}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("metadata is corrupt, treating as empty", "path", s.path, "error", err)
		return []Record{}
	}
	if records == nil {
		records = []Record{}
	}
	return records
}

func (s *JSONStore) write(records []Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
