package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultLimit = 20

// Fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one completed generation.
type Entry struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Topic        string    `json:"topic,omitempty"`
	SlideCount   int       `json:"slide_count"`
	TemplateMode bool      `json:"template_mode"`
	FileName     string    `json:"file_name"`
	ArchiveURL   string    `json:"archive_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store keeps generation history in SQLite.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS generations (
			id             TEXT PRIMARY KEY,
			mode           TEXT NOT NULL,
			topic          TEXT NOT NULL DEFAULT '',
			slide_count    INTEGER NOT NULL,
			template_mode  INTEGER NOT NULL DEFAULT 0,
			file_name      TEXT NOT NULL,
			archive_url    TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
	`)
	return err
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, mode, topic, slide_count, template_mode, file_name, archive_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Mode, e.Topic, e.SlideCount, e.TemplateMode, e.FileName, e.ArchiveURL, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// List returns the most recent entries first. A non-positive limit means
// DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, topic, slide_count, template_mode, file_name, archive_url, created_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Mode, &e.Topic, &e.SlideCount, &e.TemplateMode, &e.FileName, &e.ArchiveURL, &created); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all entries and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations`)
	if err != nil {
		return 0, fmt.Errorf("clear generations: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
