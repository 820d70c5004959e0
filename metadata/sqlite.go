package metadata

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per title, indexed by the normalized title. It
// serves the same contract as JSONStore without rewriting the whole store on
// every save.
type SQLiteStore struct {
	db     *sql.DB
	images ImageResolver
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string, images ImageResolver) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, images: images}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS wiki_metadata (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title_key TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    author TEXT NOT NULL
);
`)
	return err
}

// Save inserts a record unless its normalized title already exists.
func (s *SQLiteStore) Save(title, category, author string) (bool, error) {
	res, err := s.db.Exec(`INSERT INTO wiki_metadata (title_key, title, category, author) VALUES (?, ?, ?, ?) ON CONFLICT(title_key) DO NOTHING`,
		Key(title), title, category, author)
	if err != nil {
		return false, fmt.Errorf("insert metadata: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert metadata: %w", err)
	}
	return n == 1, nil
}

// Query looks up each title by its normalized key, in input order.
func (s *SQLiteStore) Query(titles []string) []Enriched {
	out := make([]Enriched, 0, len(titles))
	stmt, err := s.db.Prepare(`SELECT title, category, author FROM wiki_metadata WHERE title_key = ?`)
	if err != nil {
		slog.Warn("query metadata", "error", err)
		return out
	}
	defer stmt.Close()
	for _, t := range titles {
		var r Record
		err := stmt.QueryRow(Key(t)).Scan(&r.Title, &r.Category, &r.Author)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			slog.Warn("query metadata", "title", t, "error", err)
			continue
		}
		out = append(out, enrich(r, t, s.images))
	}
	return out
}

// All returns every record in insertion order.
func (s *SQLiteStore) All() []Record {
	records := []Record{}
	rows, err := s.db.Query(`SELECT title, category, author FROM wiki_metadata ORDER BY id`)
	if err != nil {
		slog.Warn("list metadata", "error", err)
		return records
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.Category, &r.Author); err != nil {
			slog.Warn("list metadata", "error", err)
			return records
		}
		records = append(records, r)
	}
	return records
}
