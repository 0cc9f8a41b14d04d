package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Dan9191/budget-ledger/internal/models"
	"gopkg.in/yaml.v3"
)

// Dump is the full entity set of a ledger.
type Dump struct {
	Accounts              []*models.Account              `json:"accounts" yaml:"accounts"`
	Budgets               []*models.Budget               `json:"budgets" yaml:"budgets"`
	Transactions          []*models.Transaction          `json:"transactions" yaml:"transactions"`
	RecurringTransactions []*models.RecurringTransaction `json:"recurringTransactions" yaml:"recurringTransactions"`
	StagedTransactions    []*models.StagedTransaction    `json:"stagedTransactions" yaml:"stagedTransactions"`
}

// Export reads every record of the store.
func Export(ctx context.Context, store Store) (*Dump, error) {
	dump := &Dump{}
	err := store.View(ctx, func(tx Tx) error {
		repo := NewRepository(tx)
		var err error
		if dump.Accounts, err = repo.ListAccounts(ctx); err != nil {
			return err
		}
		if dump.Budgets, err = repo.ListBudgets(ctx); err != nil {
			return err
		}
		if dump.Transactions, err = repo.ListTransactions(ctx); err != nil {
			return err
		}
		if dump.RecurringTransactions, err = repo.ListRecurring(ctx); err != nil {
			return err
		}
		dump.StagedTransactions, err = repo.ListStaged(ctx, "")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export ledger: %w", err)
	}
	return dump, nil
}

// Import writes every record of dump into the store in one unit of work.
// Records are stored as-is: balances are restored, not recomputed.
// With clearBefore every existing record is removed first.
func Import(ctx context.Context, store Store, dump *Dump, clearBefore bool) error {
	if dump == nil {
		return fmt.Errorf("%w: no dump to import", ErrMalformedRecord)
	}
	err := store.Update(ctx, func(tx Tx) error {
		if clearBefore {
			if err := clearAll(ctx, tx); err != nil {
				return err
			}
		}
		repo := NewRepository(tx)
		if err := putAll(ctx, CollectionAccounts, dump.Accounts, repo.PutAccount); err != nil {
			return err
		}
		if err := putAll(ctx, CollectionBudgets, dump.Budgets, repo.PutBudget); err != nil {
			return err
		}
		if err := putAll(ctx, CollectionTransactions, dump.Transactions, repo.PutTransaction); err != nil {
			return err
		}
		if err := putAll(ctx, CollectionRecurringTransactions, dump.RecurringTransactions, repo.PutRecurring); err != nil {
			return err
		}
		if err := putAll(ctx, CollectionStagedTransactions, dump.StagedTransactions, repo.PutStaged); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import ledger: %w", err)
	}
	return nil
}

// putAll stores every entry of items, rejecting null entries.
func putAll[T any](ctx context.Context, c Collection, items []*T, putFn func(context.Context, *T) error) error {
	for i, v := range items {
		if v == nil {
			return fmt.Errorf("%w: %s entry %d is null", ErrMalformedRecord, c, i)
		}
		if err := putFn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func clearAll(ctx context.Context, tx Tx) error {
	for _, c := range Collections {
		raws, err := tx.List(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", c, err)
		}
		for _, raw := range raws {
			var env struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			}
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformedRecord, c, err)
			}
			if err := tx.Delete(ctx, c, env.Data.ID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", c, err)
			}
		}
	}
	return nil
}

// Dump encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EncodeDump writes dump to w in the given format.
func EncodeDump(w io.Writer, dump *Dump, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown dump format %q", format)
}

// DecodeDump reads a dump from r in the given format.
func DecodeDump(r io.Reader, format string) (*Dump, error) {
	dump := &Dump{}
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(dump); err != nil {
			return nil, fmt.Errorf("failed to decode dump: %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.NewDecoder(r).Decode(dump); err != nil {
			return nil, fmt.Errorf("failed to decode dump: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown dump format %q", format)
	}
	return dump, nil
}
