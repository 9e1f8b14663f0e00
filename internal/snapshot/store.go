// Package snapshot persists the last successful content fetch in a
// local SQLite database. When the external store is unreachable the
// repositories serve this snapshot before falling back to the built-in
// fixtures, so a transient outage degrades to slightly stale data
// instead of sample data.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yumetolab/yumeji/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contents (
	id          TEXT PRIMARY KEY,
	slug        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	keywords    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	category    TEXT NOT NULL DEFAULT '[]',
	reading     TEXT NOT NULL DEFAULT '',
	kana_index  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	symbolism   TEXT NOT NULL DEFAULT '',
	article     TEXT NOT NULL DEFAULT '',
	situations  TEXT NOT NULL DEFAULT '[]',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contents_slug ON contents(slug);
`

// Store wraps a sql.DB with snapshot operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the snapshot database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Replace swaps the snapshot for the given contents in one transaction.
func (s *Store) Replace(items []*models.Content) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM contents`); err != nil {
		return fmt.Errorf("snapshot: clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO contents
			(id, slug, title, keywords, tags, category, reading, kana_index,
			 description, symbolism, article, situations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range items {
		tagsJSON, _ := json.Marshal(c.Tags)
		catJSON, _ := json.Marshal(c.Category)
		sitJSON, _ := json.Marshal(c.Situations)
		if _, err := stmt.Exec(c.ID, c.Slug, c.Title, c.Keywords,
			string(tagsJSON), string(catJSON), c.Reading, c.KanaIndex,
			c.Description, c.Symbolism, c.Article, string(sitJSON), now); err != nil {
			return fmt.Errorf("snapshot: insert %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// List returns every snapshotted content.
func (s *Store) List() ([]*models.Content, error) {
	return s.query(`SELECT ` + columns + ` FROM contents ORDER BY rowid`)
}

// GetBySlug returns the snapshotted content with the given slug, or nil.
func (s *Store) GetBySlug(slug string) (*models.Content, error) {
	items, err := s.query(`SELECT `+columns+` FROM contents WHERE slug = ? LIMIT 1`, slug)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// ByCategory returns snapshotted contents whose category list contains
// the given display name.
func (s *Store) ByCategory(name string) ([]*models.Content, error) {
	like := "%" + strings.ReplaceAll(name, "%", "") + "%"
	return s.query(`SELECT `+columns+` FROM contents WHERE category LIKE ? ORDER BY rowid`, like)
}

// Search mirrors the store-side substring predicate: title, tags, or
// reading.
func (s *Store) Search(query string) ([]*models.Content, error) {
	like := "%" + strings.ReplaceAll(query, "%", "") + "%"
	return s.query(`
		SELECT `+columns+` FROM contents
		WHERE title LIKE ? OR tags LIKE ? OR reading LIKE ?
		ORDER BY rowid
	`, like, like, like)
}

// Count returns the number of snapshotted contents.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM contents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: count: %w", err)
	}
	return n, nil
}

const columns = `id, slug, title, keywords, tags, category, reading, kana_index,
	description, symbolism, article, situations`

func (s *Store) query(q string, args ...any) ([]*models.Content, error) {
	rows, err := s.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query: %w", err)
	}
	defer rows.Close()

	var out []*models.Content
	for rows.Next() {
		var c models.Content
		var tagsJSON, catJSON, sitJSON string
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.Keywords,
			&tagsJSON, &catJSON, &c.Reading, &c.KanaIndex,
			&c.Description, &c.Symbolism, &c.Article, &sitJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &c.Tags)
		_ = json.Unmarshal([]byte(catJSON), &c.Category)
		_ = json.Unmarshal([]byte(sitJSON), &c.Situations)
		c.Status = models.StatusPublished
		c.Initial = firstRune(c.Reading)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
