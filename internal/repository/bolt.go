package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps the ledger in a single bbolt file, one bucket per collection.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the ledger file at path and initializes buckets.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, c := range Collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(c)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", c, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// View implements Store.
func (s *BoltStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update implements Store.
func (s *BoltStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) bucket(c Collection) (*bolt.Bucket, error) {
	b := t.tx.Bucket([]byte(c))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", c)
	}
	return b, nil
}

func (t *boltTx) Get(_ context.Context, c Collection, key string) ([]byte, error) {
	b, err := t.bucket(c)
	if err != nil {
		return nil, err
	}
	data := b.Get([]byte(key))
	if data == nil {
		return nil, ErrNotFound
	}
	// the value is only valid during the transaction
	return clone(data), nil
}

func (t *boltTx) Put(_ context.Context, c Collection, key string, data []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	b, err := t.bucket(c)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func (t *boltTx) Delete(_ context.Context, c Collection, key string) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	b, err := t.bucket(c)
	if err != nil {
		return err
	}
	return b.Delete([]byte(key))
}

func (t *boltTx) List(_ context.Context, c Collection) ([][]byte, error) {
	b, err := t.bucket(c)
	if err != nil {
		return nil, err
	}
	var results [][]byte
	err = b.ForEach(func(_, v []byte) error {
		results = append(results, clone(v))
		return nil
	})
	return results, err
}
