package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/doccompare/internal/models"
)

// SQLiteCache implements Cache using SQLite.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteCache opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCache{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS extracted_texts (
		content_id TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		text TEXT NOT NULL,
		warnings TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_extracted_texts_created_at ON extracted_texts(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached text for contentID, or ErrNotFound.
func (s *SQLiteCache) Get(ctx context.Context, contentID string) (*models.CachedText, error) {
	var entry models.CachedText
	var warningsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT content_id, format, text, warnings, created_at
		 FROM extracted_texts WHERE content_id = ?`, contentID,
	).Scan(&entry.ContentID, &entry.Format, &entry.Text, &warningsJSON, &entry.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
	}
	if err != nil {
		return nil, err
	}

	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &entry.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	return &entry, nil
}

// Put inserts or replaces the entry for entry.ContentID.
func (s *SQLiteCache) Put(ctx context.Context, entry *models.CachedText) error {
	var warningsJSON []byte
	if len(entry.Warnings) > 0 {
		var err error
		warningsJSON, err = json.Marshal(entry.Warnings)
		if err != nil {
			return fmt.Errorf("failed to marshal warnings: %w", err)
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO extracted_texts (content_id, format, text, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ContentID, entry.Format, entry.Text, string(warningsJSON), entry.CreatedAt,
	)
	return err
}

// Count returns the number of cached entries.
func (s *SQLiteCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extracted_texts`).Scan(&n)
	return n, err
}

// Purge deletes every entry and returns how many were removed.
func (s *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM extracted_texts`)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return n, fmt.Errorf("failed to checkpoint: %w", err)
	}
	return n, nil
}

// DiskUsage returns the combined size of the database file and its WAL
// and shared-memory files. Missing files count as zero.
func (s *SQLiteCache) DiskUsage() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Path returns the database file path.
func (s *SQLiteCache) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
