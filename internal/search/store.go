package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultLimit caps Query results when the caller passes a non-positive limit.
const DefaultLimit = 20

// SyncStats reports what Sync changed.
type SyncStats struct {
	Inserted  int
	Updated   int
	Unchanged int
	Deleted   int
}

// Store is the sqlite search database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create search database directory").
				WithContext("path", path).
				Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySearch, "failed to open search database").
			WithContext("path", path).
			Build()
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategorySearch, "failed to initialize search database").
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		category TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		tags TEXT NOT NULL,
		url TEXT NOT NULL,
		date INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (category, slug)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Sync makes the table mirror docs: new rows are inserted, rows whose
// fingerprint changed are updated, and rows for absent posts are deleted.
func (s *Store) Sync(ctx context.Context, docs []Document) (SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats SyncStats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := loadFingerprints(ctx, tx)
	if err != nil {
		return stats, err
	}

	for _, d := range docs {
		key := rowKey{d.Category, d.Slug}
		fp, found := existing[key]
		delete(existing, key)
		if found && fp == d.Fingerprint {
			stats.Unchanged++
			continue
		}
		tags, err := json.Marshal(d.Tags)
		if err != nil {
			return stats, fmt.Errorf("marshal tags: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (category, slug, title, description, tags, url, date, fingerprint)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(category, slug) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				tags = excluded.tags,
				url = excluded.url,
				date = excluded.date,
				fingerprint = excluded.fingerprint`,
			d.Category, d.Slug, d.Title, d.Description, string(tags), d.URL, d.Date.Unix(), d.Fingerprint,
		)
		if err != nil {
			return stats, fmt.Errorf("upsert document: %w", err)
		}
		if found {
			stats.Updated++
		} else {
			stats.Inserted++
		}
	}

	for key := range existing {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE category = ? AND slug = ?", key.category, key.slug); err != nil {
			return stats, fmt.Errorf("delete document: %w", err)
		}
		stats.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit transaction: %w", err)
	}
	return stats, nil
}

type rowKey struct {
	category string
	slug     string
}

func loadFingerprints(ctx context.Context, tx *sql.Tx) (map[rowKey]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT category, slug, fingerprint FROM documents")
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[rowKey]string{}
	for rows.Next() {
		var category, slug, fp string
		if err := rows.Scan(&category, &slug, &fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out[rowKey{category, slug}] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Query returns up to limit documents whose title, description or tags
// contain term, case-insensitively, most recent first.
func (s *Store) Query(ctx context.Context, term string, limit int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, slug, title, description, tags, url, date, fingerprint
		FROM documents
		WHERE lower(title) LIKE ? ESCAPE '\'
			OR lower(description) LIKE ? ESCAPE '\'
			OR lower(tags) LIKE ? ESCAPE '\'
		ORDER BY date DESC, slug
		LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySearch, "search query failed").
			WithContext("term", term).
			Build()
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		var tags string
		var date int64
		if err := rows.Scan(&d.Category, &d.Slug, &d.Title, &d.Description, &tags, &d.URL, &date, &d.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		d.Date = time.Unix(date, 0).UTC()
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
