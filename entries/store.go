// Package entries stores wiki entries as Markdown files, one file per title.
package entries

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Ext is the file extension of entry sources.
const Ext = ".md"

var (
	// ErrNotFound is returned when no entry exists for a title.
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidTitle is returned for titles that cannot name a file.
	ErrInvalidTitle = errors.New("invalid entry title")
)

// Store reads and writes entry files under a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a Store rooted at dir on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Dir returns the directory entries are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// List returns all entry titles sorted lexicographically. An unreadable
// directory yields an empty list. Files whose title ValidateTitle rejects,
// such as ".md", are skipped.
func (s *Store) List() []string {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("list entries", "dir", s.dir, "error", err)
		}
		return []string{}
	}
	titles := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		title := strings.TrimSuffix(name, Ext)
		if err := ValidateTitle(title); err != nil {
			slog.Warn("skipping entry file with an unusable title", "dir", s.dir, "file", name, "error", err)
			continue
		}
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Get returns the Markdown source of the entry with the given title.
func (s *Store) Get(title string) (string, error) {
	path, err := s.path(title)
	if err != nil {
		return "", ErrNotFound
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read entry %q: %w", title, err)
	}
	return string(data), nil
}

// Exists reports whether an entry file exists for title.
func (s *Store) Exists(title string) bool {
	path, err := s.path(title)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Save writes content for title, replacing any existing entry.
func (s *Store) Save(title, content string) error {
	path, err := s.path(title)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create entries dir: %w", err)
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace entry %q: %w", title, err)
	}
	if err := afero.WriteFile(s.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write entry %q: %w", title, err)
	}
	return nil
}

// Delete removes the entry file for title. Deleting a missing entry is not
// an error.
func (s *Store) Delete(title string) error {
	path, err := s.path(title)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete entry %q: %w", title, err)
	}
	return nil
}

func (s *Store) path(title string) (string, error) {
	if err := ValidateTitle(title); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, title+Ext), nil
}

// ValidateTitle rejects titles that are blank or would escape the entries
// directory.
func ValidateTitle(title string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return ErrInvalidTitle
	case strings.ContainsAny(title, `/\`), strings.ContainsRune(title, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidTitle, title)
	case title == "." || title == "..":
		return fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return nil
}
