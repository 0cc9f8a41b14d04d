package service

import (
	"context"

	"github.com/Dan9191/budget-ledger/internal/repository"
)

// Export snapshots the whole ledger.
func (s *Service) Export(ctx context.Context) (*repository.Dump, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repository.Export(ctx, s.store)
}

// Import restores a snapshot. Cached balances are taken from the dump as-is;
// run AuditAll afterwards to check them.
func (s *Service) Import(ctx context.Context, dump *repository.Dump, clearBefore bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := repository.Import(ctx, s.store, dump, clearBefore); err != nil {
		return err
	}
	s.log.Infof("Ledger imported: %d accounts, %d transactions, %d recurring, %d staged",
		len(dump.Accounts), len(dump.Transactions), len(dump.RecurringTransactions), len(dump.StagedTransactions))
	return nil
}
