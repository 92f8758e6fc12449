// Package badgerstore is the embedded key-value catalog store built on BadgerDB.
//
// Each user, novel (with its volumes) and chapter is one JSON document. Unique
// constraints are index keys written in the same transaction as the document, and
// every update is a read-modify-write inside one transaction, so single-document
// updates are atomic. Novel filtering and sorting run in memory over a full scan.
package badgerstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

// Key prefixes.
const (
	userPrefix    = "user:"
	novelPrefix   = "novel:"
	chapterPrefix = "chapter:"
)

// userRecord persists the password hash, which domain.User keeps out of JSON.
type userRecord struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

func (r *userRecord) toDomain() *domain.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	if u.Library == nil {
		u.Library = []string{}
	}
	return &u
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users    *Entity[userRecord]
	novels   *Entity[domain.Novel]
	chapters *Entity[domain.Chapter]
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.initEntities()

	logger.Info("badger store opened", "path", path)
	return s, nil
}

func (s *Store) initEntities() {
	s.users = NewEntity[userRecord](s.db, userPrefix, store.IndexUserUID).
		WithIndex(store.IndexUsername, func(u *userRecord) []string {
			return []string{u.Username}
		})

	s.novels = NewEntity[domain.Novel](s.db, novelPrefix, store.IndexNovelNID).
		WithIndex(store.IndexNovelAuthorNID, func(n *domain.Novel) []string {
			return []string{n.AuthorID + ":" + n.NID}
		})

	s.chapters = NewEntity[domain.Chapter](s.db, chapterPrefix, store.IndexChapterCID).
		WithIndex(store.IndexChapterNIDCID, func(c *domain.Chapter) []string {
			return []string{c.NID + ":" + c.CID}
		}).
		WithIndex(store.IndexChapterOrdinal, func(c *domain.Chapter) []string {
			return []string{ordinalKey(c.NID, c.Index)}
		})
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger db: %w", err)
	}
	return nil
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	rec := &userRecord{User: *user, PasswordHash: user.PasswordHash}
	if rec.Library == nil {
		rec.Library = []string{}
	}
	if err := s.users.Create(ctx, user.UID, rec); err != nil {
		return err
	}
	s.logger.Debug("user created", "uid", user.UID, "username", user.Username)
	return nil
}

// GetUserByUsername retrieves a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	rec, err := s.users.GetByIndex(ctx, store.IndexUsername, username)
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// UpdateUser applies field changes and an optional library edit atomically.
func (s *Store) UpdateUser(ctx context.Context, username string, update store.UserUpdate) error {
	err := s.users.MutateByIndex(ctx, store.IndexUsername, username, func(u *userRecord) error {
		if update.FirstName != nil {
			u.FirstName = *update.FirstName
		}
		if update.LastName != nil {
			u.LastName = *update.LastName
		}
		if update.PasswordHash != nil {
			u.PasswordHash = *update.PasswordHash
		}
		if op := update.Library; op != nil {
			if !op.Operation.Valid() {
				return fmt.Errorf("unknown library operation %q", op.Operation)
			}
			u.Library = op.Apply(u.Library)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("user updated", "username", username, "library_op", update.Library != nil)
	return nil
}
