package marmite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = sql.ErrNoRows

// Store keeps the last generated snapshot of every recipe page in SQLite so
// a restarted server can serve pages before the backend answers.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page regeneration write while requests read; synchronous=NORMAL
	// is safe with WAL and skips an fsync per snapshot.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS recipes (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
`)
	return err
}

// SaveRecipe upserts the snapshot of r generated at the given time.
func (s *Store) SaveRecipe(r Recipe, generated time.Time) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe %s: %w", r.Slug, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO recipes (slug, title, payload, updated_at, generated_at) VALUES (?, ?, ?, ?, ?)`,
		r.Slug, r.Title, string(payload), r.UpdatedAt.UTC().Format(time.RFC3339), generated.UTC().Format(time.RFC3339Nano))
	return err
}

// GetRecipe returns the snapshot for slug and when it was generated.
func (s *Store) GetRecipe(slug string) (Recipe, time.Time, error) {
	var payload, generated string
	err := s.db.QueryRow(`SELECT payload, generated_at FROM recipes WHERE slug = ?`, slug).
		Scan(&payload, &generated)
	if err != nil {
		return Recipe{}, time.Time{}, err
	}
	return decodeSnapshot(payload, generated)
}

// ListRecipes returns every snapshot ordered by title.
func (s *Store) ListRecipes() ([]Recipe, error) {
	rows, err := s.db.Query(`SELECT payload, generated_at FROM recipes ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var payload, generated string
		if err := rows.Scan(&payload, &generated); err != nil {
			return nil, err
		}
		r, _, err := decodeSnapshot(payload, generated)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// DeleteRecipe removes the snapshot for slug.
func (s *Store) DeleteRecipe(slug string) error {
	_, err := s.db.Exec(`DELETE FROM recipes WHERE slug = ?`, slug)
	return err
}

func decodeSnapshot(payload, generated string) (Recipe, time.Time, error) {
	var r Recipe
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return Recipe{}, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, generated)
	if err != nil {
		return Recipe{}, time.Time{}, fmt.Errorf("parse generated_at %q: %w", generated, err)
	}
	return r, at, nil
}
