package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/shadownovel/catalog/internal/store"
)

// maxTxnAttempts bounds retries of a read-modify-write that lost a badger conflict.
const maxTxnAttempts = 5

// Entity provides generic CRUD operations with unique secondary indexes for any
// record type. Every write touches one record and its index entries in a single
// transaction.
type Entity[T any] struct {
	db           *badger.DB
	prefix       string
	primaryIndex string
	indexes      []Index[T]
}

// Index defines a unique secondary index on an entity.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates a new Entity instance for type T. primaryIndex names the id
// uniqueness constraint in conflict errors.
func NewEntity[T any](db *badger.DB, prefix, primaryIndex string) *Entity[T] {
	return &Entity[T]{
		db:           db,
		prefix:       prefix,
		primaryIndex: primaryIndex,
		indexes:      make([]Index[T], 0),
	}
}

// WithIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// Create creates a new entity with the given ID.
// Returns a store.IndexError if the ID or any index key is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.update(func(txn *badger.Txn) error {
		_, err := txn.Get(primaryKey(e.prefix, id))
		if err == nil {
			return store.Conflict(e.primaryIndex, id)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := e.checkIndexes(txn, entity, nil); err != nil {
			return err
		}

		if err := txn.Set(primaryKey(e.prefix, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity by a secondary index value.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.db.View(func(txn *badger.Txn) error {
		id, err := e.lookup(txn, indexName, value)
		if err != nil {
			return err
		}
		entity, err = e.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Mutate atomically applies fn to the stored entity and writes the result back,
// moving index entries whose keys changed. fn may run more than once if the
// transaction conflicts with a concurrent writer.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Mutate(ctx context.Context, id string, fn func(*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.update(func(txn *badger.Txn) error {
		return e.mutate(txn, id, fn)
	})
}

// MutateByIndex is Mutate addressed through a secondary index. The lookup and the
// write share one transaction.
func (e *Entity[T]) MutateByIndex(ctx context.Context, indexName, value string, fn func(*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.update(func(txn *badger.Txn) error {
		id, err := e.lookup(txn, indexName, value)
		if err != nil {
			return err
		}
		return e.mutate(txn, id, fn)
	})
}

// Delete deletes an entity by ID and returns the removed record.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var deleted *T
	err := e.update(func(txn *badger.Txn) error {
		var err error
		deleted, err = e.get(txn, id)
		if err != nil {
			return err
		}
		return e.delete(txn, id, deleted)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeleteByIndex deletes the entity a secondary index value points at.
func (e *Entity[T]) DeleteByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var deleted *T
	err := e.update(func(txn *badger.Txn) error {
		id, err := e.lookup(txn, indexName, value)
		if err != nil {
			return err
		}
		deleted, err = e.get(txn, id)
		if err != nil {
			return err
		}
		return e.delete(txn, id, deleted)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List returns an iterator over all entities in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index keys
				key := string(it.Item().Key())
				if strings.HasPrefix(key[len(e.prefix):], indexSegment) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}
			return nil
		})
	}
}

// ListByIndex iterates entities whose index value starts with valuePrefix, in index
// key order. reverse walks the range from the end.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, valuePrefix string, reverse bool) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.db.View(func(txn *badger.Txn) error {
			prefix := indexKey(e.prefix, indexName, valuePrefix)

			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.Reverse = reverse

			it := txn.NewIterator(opts)
			defer it.Close()

			seek := prefix
			if reverse {
				// Seek past every key carrying the prefix.
				seek = append(append([]byte{}, prefix...), 0xff)
			}

			for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				var id string
				if err := it.Item().Value(func(val []byte) error {
					id = string(val)
					return nil
				}); err != nil {
					yield(nil, err)
					return err
				}

				entity, err := e.get(txn, id)
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// update runs fn in a read-write transaction, retrying when badger reports a
// conflict with a concurrent transaction.
func (e *Entity[T]) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnAttempts {
		err = e.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (e *Entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(primaryKey(e.prefix, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (e *Entity[T]) lookup(txn *badger.Txn, indexName, value string) (string, error) {
	item, err := txn.Get(indexKey(e.prefix, indexName, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get index key: %w", err)
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

func (e *Entity[T]) mutate(txn *badger.Txn, id string, fn func(*T) error) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}

	// fn edits a private copy so the old index keys stay available.
	data, err := json.Marshal(old)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	var next T
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to copy entity: %w", err)
	}

	if err := fn(&next); err != nil {
		return err
	}

	if err := e.checkIndexes(txn, &next, old); err != nil {
		return err
	}
	if err := e.deleteIndexes(txn, old); err != nil {
		return err
	}

	data, err = json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set(primaryKey(e.prefix, id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return e.setIndexes(txn, id, &next)
}

func (e *Entity[T]) delete(txn *badger.Txn, id string, entity *T) error {
	if err := e.deleteIndexes(txn, entity); err != nil {
		return err
	}
	if err := txn.Delete(primaryKey(e.prefix, id)); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// checkIndexes reports the first index key of entity already held by another
// record. Keys that old already owns are not conflicts.
func (e *Entity[T]) checkIndexes(txn *badger.Txn, entity, old *T) error {
	for _, idx := range e.indexes {
		owned := make(map[string]bool)
		if old != nil {
			for _, k := range idx.keyGen(old) {
				owned[k] = true
			}
		}

		for _, value := range idx.keyGen(entity) {
			if owned[value] {
				continue
			}
			_, err := txn.Get(indexKey(e.prefix, idx.name, value))
			if err == nil {
				return store.Conflict(idx.name, value)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) setIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Set(indexKey(e.prefix, idx.name, value), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Delete(indexKey(e.prefix, idx.name, value)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}
