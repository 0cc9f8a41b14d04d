package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// validateLines applies the posting rules of mode to lines.
func validateLines(lines []models.PostingLine, mode models.Mode) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrEmptyPosting)
	}
	for i, l := range lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: line %d has no account", ErrInvalidInput, i)
		}
		if l.Amount.IsZero() {
			return fmt.Errorf("%w: line %d has a zero amount", ErrEmptyPosting, i)
		}
	}
	switch mode {
	case models.ModeDoubleEntry:
		if sum := models.SumLines(lines); sum.Abs().GreaterThan(Tolerance) {
			return fmt.Errorf("%w: lines sum to %s", ErrUnbalancedTransaction, sum)
		}
	case models.ModeSimple:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}
	return nil
}

// checkAccounts fails with ErrDanglingAccountReference if any line names a missing account.
func checkAccounts(ctx context.Context, repo *repository.Repository, lines ...[]models.PostingLine) error {
	seen := make(map[string]bool)
	for _, set := range lines {
		for _, l := range set {
			if seen[l.AccountID] {
				continue
			}
			seen[l.AccountID] = true
			if _, err := repo.GetAccount(ctx, l.AccountID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrDanglingAccountReference, l.AccountID)
				}
				return err
			}
		}
	}
	return nil
}

// applyLines adds (or with rollback, subtracts) each line amount to its account's cached balance.
// This is the only place balances move by posting.
func applyLines(ctx context.Context, repo *repository.Repository, lines []models.PostingLine, rollback, skipMissing bool) error {
	for _, l := range lines {
		acc, err := repo.GetAccount(ctx, l.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				if skipMissing {
					continue
				}
				return fmt.Errorf("%w: %s", ErrDanglingAccountReference, l.AccountID)
			}
			return err
		}
		if rollback {
			acc.Balance = acc.Balance.Sub(l.Amount)
		} else {
			acc.Balance = acc.Balance.Add(l.Amount)
		}
		if err := repo.PutAccount(ctx, acc); err != nil {
			return err
		}
	}
	return nil
}

// createTransaction validates, persists and posts tx inside an open unit of work.
func (s *Service) createTransaction(ctx context.Context, repo *repository.Repository, tx *models.Transaction, mode models.Mode) error {
	if err := validateLines(tx.Lines, mode); err != nil {
		return err
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrInvalidInput)
	}
	if tx.ID == "" {
		tx.ID = s.newID("tx")
	} else if _, err := repo.GetTransaction(ctx, tx.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := checkAccounts(ctx, repo, tx.Lines); err != nil {
		return err
	}
	if err := repo.PutTransaction(ctx, tx); err != nil {
		return err
	}
	return applyLines(ctx, repo, tx.Lines, false, false)
}

// CreateTransaction records tx and posts its lines to the referenced accounts.
func (s *Service) CreateTransaction(ctx context.Context, tx *models.Transaction, mode models.Mode) (*models.Transaction, error) {
	err := s.update(ctx, func(repo *repository.Repository) error {
		return s.createTransaction(ctx, repo, tx, mode)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"transaction": tx.ID, "lines": len(tx.Lines), "mode": mode}).Info("Transaction created")
	return tx, nil
}

// UpdateTransaction rolls back the stored version of tx and applies the new one as a single operation.
func (s *Service) UpdateTransaction(ctx context.Context, tx *models.Transaction, mode models.Mode) (*models.Transaction, error) {
	err := s.update(ctx, func(repo *repository.Repository) error {
		old, err := repo.GetTransaction(ctx, tx.ID)
		if err != nil {
			return notFound(err, ErrNotFound, "transaction "+tx.ID)
		}
		if err := validateLines(tx.Lines, mode); err != nil {
			return err
		}
		if tx.Date.IsZero() {
			return fmt.Errorf("%w: transaction date is required", ErrInvalidInput)
		}
		if err := checkAccounts(ctx, repo, old.Lines, tx.Lines); err != nil {
			return err
		}
		if err := applyLines(ctx, repo, old.Lines, true, false); err != nil {
			return err
		}
		if err := repo.PutTransaction(ctx, tx); err != nil {
			return err
		}
		return applyLines(ctx, repo, tx.Lines, false, false)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Transaction updated: %s", tx.ID)
	return tx, nil
}

// deleteTransaction rolls back and removes a transaction inside an open unit of work.
// It reports whether a record existed.
func deleteTransaction(ctx context.Context, repo *repository.Repository, id string) (bool, error) {
	old, err := repo.GetTransaction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// lines of since-deleted accounts have nothing left to restore
	if err := applyLines(ctx, repo, old.Lines, true, true); err != nil {
		return false, err
	}
	return true, repo.DeleteTransaction(ctx, id)
}

// DeleteTransaction removes a transaction and reverses its effect on balances. Deleting a missing transaction is a no-op.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	var deleted bool
	err := s.update(ctx, func(repo *repository.Repository) error {
		var err error
		deleted, err = deleteTransaction(ctx, repo, id)
		return err
	})
	if err != nil {
		return err
	}
	if deleted {
		s.log.Infof("Transaction deleted: %s", id)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx *models.Transaction
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		tx, err = repo.GetTransaction(ctx, id)
		return notFound(err, ErrNotFound, "transaction "+id)
	})
	return tx, err
}

// ListTransactions returns transactions ordered by date, optionally only those touching accountID.
func (s *Service) ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	txs := []*models.Transaction{}
	err := s.view(ctx, func(repo *repository.Repository) error {
		all, err := repo.ListTransactions(ctx)
		if err != nil {
			return err
		}
		for _, t := range all {
			if accountID == "" || t.References(accountID) {
				txs = append(txs, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	return txs, nil
}

func computeBalance(txs []*models.Transaction, accountID string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(models.AmountFor(t.Lines, accountID))
	}
	return sum
}

func audit(acc *models.Account, txs []*models.Transaction) models.BalanceAudit {
	computed := computeBalance(txs, acc.ID)
	return models.BalanceAudit{
		AccountID:  acc.ID,
		Cached:     acc.Balance,
		Computed:   computed,
		Difference: acc.Balance.Sub(computed),
	}
}

// RecomputeAccountBalance sums every posting of the account and compares it with the cached balance.
// It never writes.
func (s *Service) RecomputeAccountBalance(ctx context.Context, accountID string) (*models.BalanceAudit, error) {
	var result models.BalanceAudit
	err := s.view(ctx, func(repo *repository.Repository) error {
		acc, err := repo.GetAccount(ctx, accountID)
		if err != nil {
			return notFound(err, ErrAccountNotFound, "account "+accountID)
		}
		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			return err
		}
		result = audit(acc, txs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApplyBalanceCorrection overwrites the cached balance with the recomputed one and returns the audit it applied.
func (s *Service) ApplyBalanceCorrection(ctx context.Context, accountID string) (*models.BalanceAudit, error) {
	var result models.BalanceAudit
	err := s.update(ctx, func(repo *repository.Repository) error {
		acc, err := repo.GetAccount(ctx, accountID)
		if err != nil {
			return notFound(err, ErrAccountNotFound, "account "+accountID)
		}
		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			return err
		}
		result = audit(acc, txs)
		acc.Balance = result.Computed
		return repo.PutAccount(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"account":  accountID,
		"cached":   result.Cached.String(),
		"computed": result.Computed.String(),
	}).Warn("Account balance corrected")
	return &result, nil
}

// AuditAll returns the balance audit of every account.
func (s *Service) AuditAll(ctx context.Context) ([]models.BalanceAudit, error) {
	results := []models.BalanceAudit{}
	err := s.view(ctx, func(repo *repository.Repository) error {
		accounts, err := repo.ListAccounts(ctx)
		if err != nil {
			return err
		}
		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			results = append(results, audit(acc, txs))
		}
		return nil
	})
	return results, err
}
