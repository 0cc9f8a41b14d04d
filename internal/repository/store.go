package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedRecord is returned when a stored record fails decoding or validation.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrReadOnly is returned when writing inside a View.
	ErrReadOnly = errors.New("write in read-only transaction")
)

// Collection names a keyed set of records.
type Collection string

const (
	CollectionAccounts              Collection = "accounts"
	CollectionBudgets               Collection = "budgets"
	CollectionTransactions          Collection = "transactions"
	CollectionRecurringTransactions Collection = "recurringTransactions"
	CollectionStagedTransactions    Collection = "stagedTransactions"
)

// Collections lists every collection a store must provide.
var Collections = []Collection{
	CollectionAccounts,
	CollectionBudgets,
	CollectionTransactions,
	CollectionRecurringTransactions,
	CollectionStagedTransactions,
}

// Tx is a unit of work over the keyed collections.
// List returns records ordered by key.
type Tx interface {
	Get(ctx context.Context, c Collection, key string) ([]byte, error)
	Put(ctx context.Context, c Collection, key string, data []byte) error
	Delete(ctx context.Context, c Collection, key string) error
	List(ctx context.Context, c Collection) ([][]byte, error)
}

// Store is the durable ledger store.
// Update runs fn atomically: if fn returns an error none of its writes are kept.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
