// Package storage provides the SQLite-backed translation cache.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TranslationCache stores translated text keyed by (source, target, text) so
// repeated requests skip the translation backend.
type TranslationCache interface {
	Get(ctx context.Context, sourceLang, targetLang, text string) (string, bool, error)
	Put(ctx context.Context, sourceLang, targetLang, text, translated string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// SQLiteCache implements TranslationCache using SQLite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		key TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_translations_langs ON translations(source_lang, target_lang);
	`
	_, err := db.Exec(schema)
	return err
}

// cacheKey derives the row key from the language pair and source text.
func cacheKey(sourceLang, targetLang, text string) string {
	h := sha256.New()
	h.Write([]byte(sourceLang))
	h.Write([]byte{0})
	h.Write([]byte(targetLang))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached translation for the language pair and text.
func (s *SQLiteCache) Get(ctx context.Context, sourceLang, targetLang, text string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated FROM translations WHERE key = ?`,
		cacheKey(sourceLang, targetLang, text),
	).Scan(&translated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return translated, true, nil
}

// Put stores a translation, replacing any previous entry for the same key.
func (s *SQLiteCache) Put(ctx context.Context, sourceLang, targetLang, text, translated string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translations (key, source_lang, target_lang, translated, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		cacheKey(sourceLang, targetLang, text), sourceLang, targetLang, translated, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Count returns the number of cached translations.
func (s *SQLiteCache) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
