package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/budget-ledger/internal/models"
)

// Repository provides typed record operations inside one store transaction
type Repository struct {
	tx Tx
}

// NewRepository wraps a store transaction
func NewRepository(tx Tx) *Repository {
	return &Repository{tx: tx}
}

func get[T any](ctx context.Context, tx Tx, c Collection, key string, validate func(*T) error) (*T, error) {
	raw, err := tx.Get(ctx, c, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", c, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s %s: %w", c, key, err)
	}
	return decodeRecord(c, raw, validate)
}

func put[T any](ctx context.Context, tx Tx, c Collection, key string, v *T, validate func(*T) error) error {
	if err := validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	data, err := encodeRecord(c, v)
	if err != nil {
		return err
	}
	if err := tx.Put(ctx, c, key, data); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", c, key, err)
	}
	return nil
}

func list[T any](ctx context.Context, tx Tx, c Collection, validate func(*T) error) ([]*T, error) {
	raws, err := tx.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		v, err := decodeRecord(c, raw, validate)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func remove(ctx context.Context, tx Tx, c Collection, key string) error {
	if err := tx.Delete(ctx, c, key); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", c, key, err)
	}
	return nil
}

// GetAccount retrieves an account by ID
func (r *Repository) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return get(ctx, r.tx, CollectionAccounts, id, ValidateAccount)
}

// PutAccount creates or replaces an account
func (r *Repository) PutAccount(ctx context.Context, a *models.Account) error {
	return put(ctx, r.tx, CollectionAccounts, a.ID, a, ValidateAccount)
}

// DeleteAccount removes an account
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	return remove(ctx, r.tx, CollectionAccounts, id)
}

// ListAccounts retrieves all accounts
func (r *Repository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return list(ctx, r.tx, CollectionAccounts, ValidateAccount)
}

// GetBudget retrieves a budget by ID
func (r *Repository) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	return get(ctx, r.tx, CollectionBudgets, id, ValidateBudget)
}

// PutBudget creates or replaces a budget
func (r *Repository) PutBudget(ctx context.Context, b *models.Budget) error {
	return put(ctx, r.tx, CollectionBudgets, b.ID, b, ValidateBudget)
}

// DeleteBudget removes a budget
func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	return remove(ctx, r.tx, CollectionBudgets, id)
}

// ListBudgets retrieves all budgets
func (r *Repository) ListBudgets(ctx context.Context) ([]*models.Budget, error) {
	return list(ctx, r.tx, CollectionBudgets, ValidateBudget)
}

// GetTransaction retrieves a transaction by ID
func (r *Repository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return get(ctx, r.tx, CollectionTransactions, id, ValidateTransaction)
}

// PutTransaction creates or replaces a transaction record. It does not touch balances.
func (r *Repository) PutTransaction(ctx context.Context, t *models.Transaction) error {
	return put(ctx, r.tx, CollectionTransactions, t.ID, t, ValidateTransaction)
}

// DeleteTransaction removes a transaction record. It does not touch balances.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return remove(ctx, r.tx, CollectionTransactions, id)
}

// ListTransactions retrieves all transactions
func (r *Repository) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return list(ctx, r.tx, CollectionTransactions, ValidateTransaction)
}

// GetRecurring retrieves a recurring transaction template by ID
func (r *Repository) GetRecurring(ctx context.Context, id string) (*models.RecurringTransaction, error) {
	return get(ctx, r.tx, CollectionRecurringTransactions, id, ValidateRecurring)
}

// PutRecurring creates or replaces a recurring transaction template
func (r *Repository) PutRecurring(ctx context.Context, rt *models.RecurringTransaction) error {
	return put(ctx, r.tx, CollectionRecurringTransactions, rt.ID, rt, ValidateRecurring)
}

// DeleteRecurring removes a recurring transaction template
func (r *Repository) DeleteRecurring(ctx context.Context, id string) error {
	return remove(ctx, r.tx, CollectionRecurringTransactions, id)
}

// ListRecurring retrieves all recurring transaction templates
func (r *Repository) ListRecurring(ctx context.Context) ([]*models.RecurringTransaction, error) {
	return list(ctx, r.tx, CollectionRecurringTransactions, ValidateRecurring)
}

// GetStaged retrieves a staged transaction by ID
func (r *Repository) GetStaged(ctx context.Context, id string) (*models.StagedTransaction, error) {
	return get(ctx, r.tx, CollectionStagedTransactions, id, ValidateStaged)
}

// PutStaged creates or replaces a staged transaction
func (r *Repository) PutStaged(ctx context.Context, s *models.StagedTransaction) error {
	return put(ctx, r.tx, CollectionStagedTransactions, s.ID, s, ValidateStaged)
}

// DeleteStaged removes a staged transaction
func (r *Repository) DeleteStaged(ctx context.Context, id string) error {
	return remove(ctx, r.tx, CollectionStagedTransactions, id)
}

// ListStaged retrieves all staged transactions, optionally filtered by owning account
func (r *Repository) ListStaged(ctx context.Context, accountID string) ([]*models.StagedTransaction, error) {
	all, err := list(ctx, r.tx, CollectionStagedTransactions, ValidateStaged)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		return all, nil
	}
	filtered := make([]*models.StagedTransaction, 0, len(all))
	for _, s := range all {
		if s.AccountID == accountID {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}
