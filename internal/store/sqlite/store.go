// Package sqlite is the SQLite-backed catalog store.
//
// Users, novels and chapters map to their own tables. Volumes, tags and library
// entries live in child tables, but every write that touches one document runs in a
// single transaction so it behaves like a single-document update.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for the catalog.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// uniqueIndexes maps the column lists SQLite reports in constraint errors to index
// names. More specific entries come first.
var uniqueIndexes = []struct {
	columns string
	index   string
}{
	{"users.username", store.IndexUsername},
	{"users.uid", store.IndexUserUID},
	{"novels.author_id, novels.nid", store.IndexNovelAuthorNID},
	{"novels.nid", store.IndexNovelNID},
	{"volumes.nid, volumes.vid", store.IndexVolumeVID},
	{"chapters.nid, chapters.idx", store.IndexChapterOrdinal},
	{"chapters.nid, chapters.cid", store.IndexChapterNIDCID},
	{"chapters.cid", store.IndexChapterCID},
}

// mapUniqueErr turns a SQLite unique or primary key violation into a store.IndexError.
// Other errors are returned unchanged.
func mapUniqueErr(err error, key string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "PRIMARY KEY") {
		return err
	}
	for _, u := range uniqueIndexes {
		if strings.Contains(msg, u.columns) {
			return store.Conflict(u.index, key)
		}
	}
	return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a sql.NullString, NULL for the empty string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeBlocks(blocks []domain.ContentBlock) (string, error) {
	if blocks == nil {
		blocks = []domain.ContentBlock{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("encode content blocks: %w", err)
	}
	return string(data), nil
}

func decodeBlocks(s string) ([]domain.ContentBlock, error) {
	var blocks []domain.ContentBlock
	if err := json.Unmarshal([]byte(s), &blocks); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}
	return blocks, nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// orderDirection renders a sort order.
func orderDirection(o store.SortOrder) string {
	if o == store.SortDesc {
		return "DESC"
	}
	return "ASC"
}
