package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Dan9191/budget-ledger/internal/integrations/camt"
	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReconciliationAccountID is the contra account that absorbs reconciliation adjustments in double-entry mode.
const ReconciliationAccountID = "acc:reconciliation"

const reconciliationAccountName = "Reconciliation Adjustments"

// CommitResult describes the outcome of committing an account's staged entries.
type CommitResult struct {
	AccountID   string              `json:"account_id"`
	Expected    decimal.Decimal     `json:"expected"`
	Reported    decimal.Decimal     `json:"reported"`
	Discrepancy decimal.Decimal     `json:"discrepancy"` // Reported - Expected
	Committed   []string            `json:"committed"`
	Adjustment  *models.Transaction `json:"adjustment,omitempty"`
}

// Stage appends a pending entry to the staged list of its account. Balances are untouched.
// Staged entries are not balance-checked: they usually mirror one side of real account activity.
func (s *Service) Stage(ctx context.Context, staged *models.StagedTransaction) (*models.StagedTransaction, error) {
	if staged.AccountID == "" {
		return nil, fmt.Errorf("%w: staged entry needs an account", ErrInvalidInput)
	}
	if staged.Date.IsZero() {
		return nil, fmt.Errorf("%w: staged entry date is required", ErrInvalidInput)
	}
	if err := validateLines(staged.Lines, models.ModeSimple); err != nil {
		return nil, err
	}
	if staged.ID == "" {
		staged.ID = s.newID("stg")
	}
	err := s.update(ctx, func(repo *repository.Repository) error {
		if _, err := repo.GetAccount(ctx, staged.AccountID); err != nil {
			return notFound(err, ErrAccountNotFound, "account "+staged.AccountID)
		}
		return repo.PutStaged(ctx, staged)
	})
	if err != nil {
		return nil, err
	}
	return staged, nil
}

// Unstage removes one staged entry.
func (s *Service) Unstage(ctx context.Context, id string) error {
	return s.update(ctx, func(repo *repository.Repository) error {
		if _, err := repo.GetStaged(ctx, id); err != nil {
			return notFound(err, ErrNotFound, "staged transaction "+id)
		}
		return repo.DeleteStaged(ctx, id)
	})
}

// ClearAll removes every staged entry of an account and returns how many were dropped.
func (s *Service) ClearAll(ctx context.Context, accountID string) (int, error) {
	n := 0
	err := s.update(ctx, func(repo *repository.Repository) error {
		staged, err := repo.ListStaged(ctx, accountID)
		if err != nil {
			return err
		}
		for _, st := range staged {
			if err := repo.DeleteStaged(ctx, st.ID); err != nil {
				return err
			}
		}
		n = len(staged)
		return nil
	})
	return n, err
}

// ListStaged returns the staged entries of an account ordered by date.
func (s *Service) ListStaged(ctx context.Context, accountID string) ([]*models.StagedTransaction, error) {
	var staged []*models.StagedTransaction
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		staged, err = repo.ListStaged(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortStaged(staged)
	return staged, nil
}

func sortStaged(staged []*models.StagedTransaction) {
	sort.SliceStable(staged, func(i, j int) bool {
		if staged[i].Date != staged[j].Date {
			return staged[i].Date.Before(staged[j].Date)
		}
		return staged[i].ID < staged[j].ID
	})
}

// ensureContraAccount returns the reconciliation contra account, creating it on first use.
func ensureContraAccount(ctx context.Context, repo *repository.Repository) error {
	_, err := repo.GetAccount(ctx, ReconciliationAccountID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return repo.PutAccount(ctx, &models.Account{
		ID:      ReconciliationAccountID,
		Name:    reconciliationAccountName,
		Type:    models.AccountTypeOther,
		Balance: decimal.Zero,
	})
}

// Commit turns every staged entry of accountID into a permanent transaction and settles
// the account on reportedBalance. If the reported figure differs from the expected one a
// reconciliation transaction tagged "reconciliation" is booked for the difference; in
// double-entry mode it is balanced against the contra account. The account's cached
// balance ends at exactly reportedBalance. All of it happens in one unit of work.
func (s *Service) Commit(ctx context.Context, accountID string, reportedBalance decimal.Decimal, mode models.Mode) (*CommitResult, error) {
	result := &CommitResult{AccountID: accountID, Reported: reportedBalance, Committed: []string{}}
	err := s.update(ctx, func(repo *repository.Repository) error {
		staged, err := repo.ListStaged(ctx, accountID)
		if err != nil {
			return err
		}
		if len(staged) == 0 {
			return fmt.Errorf("%w: %s", ErrNothingStaged, accountID)
		}
		account, err := repo.GetAccount(ctx, accountID)
		if err != nil {
			return notFound(err, ErrAccountNotFound, "account "+accountID)
		}
		sortStaged(staged)

		expected := account.Balance
		for _, st := range staged {
			expected = expected.Add(models.AmountFor(st.Lines, accountID))
		}
		result.Expected = expected
		result.Discrepancy = reportedBalance.Sub(expected)

		for _, st := range staged {
			tx := st.ToTransaction(s.newID("tx"))
			if err := validateLines(tx.Lines, models.ModeSimple); err != nil {
				return fmt.Errorf("staged transaction %s: %w", st.ID, err)
			}
			if err := checkAccounts(ctx, repo, tx.Lines); err != nil {
				return fmt.Errorf("staged transaction %s: %w", st.ID, err)
			}
			if err := repo.PutTransaction(ctx, tx); err != nil {
				return err
			}
			if err := applyLines(ctx, repo, tx.Lines, false, false); err != nil {
				return err
			}
			if err := repo.DeleteStaged(ctx, st.ID); err != nil {
				return err
			}
			result.Committed = append(result.Committed, tx.ID)
		}

		if result.Discrepancy.Abs().GreaterThan(Tolerance) {
			adj := &models.Transaction{
				Date:        latestDate(staged),
				Description: "Balance reconciliation",
				Tags:        []string{models.TagReconciliation},
				Lines:       []models.PostingLine{{AccountID: accountID, Amount: result.Discrepancy}},
			}
			if mode == models.ModeDoubleEntry {
				if err := ensureContraAccount(ctx, repo); err != nil {
					return err
				}
				adj.Lines = append(adj.Lines, models.PostingLine{AccountID: ReconciliationAccountID, Amount: result.Discrepancy.Neg()})
			}
			if err := s.createTransaction(ctx, repo, adj, mode); err != nil {
				return fmt.Errorf("failed to book reconciliation: %w", err)
			}
			result.Adjustment = adj
		}

		// the reported figure is authoritative for this account
		account, err = repo.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		account.Balance = reportedBalance
		return repo.PutAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account":     accountID,
		"committed":   len(result.Committed),
		"expected":    result.Expected.String(),
		"reported":    reportedBalance.String(),
		"discrepancy": result.Discrepancy.String(),
	}).Info("Staged transactions committed")
	return result, nil
}

func latestDate(staged []*models.StagedTransaction) models.Date {
	var latest models.Date
	for _, st := range staged {
		if latest.IsZero() || st.Date.After(latest) {
			latest = st.Date
		}
	}
	return latest
}

// ImportStatement stages one entry per booked entry of a CAMT.053 bank statement.
// The statement's closing balance, if present, is returned for use as the reported balance.
func (s *Service) ImportStatement(ctx context.Context, accountID string, r io.Reader) ([]*models.StagedTransaction, *decimal.Decimal, error) {
	stmt, err := camt.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var staged []*models.StagedTransaction
	for _, e := range stmt.Entries {
		if e.Amount.IsZero() {
			continue
		}
		staged = append(staged, &models.StagedTransaction{
			ID:          s.newID("stg"),
			AccountID:   accountID,
			Date:        e.BookingDate,
			Description: e.Description,
			Lines:       []models.PostingLine{{AccountID: accountID, Amount: e.Amount}},
		})
	}

	err = s.update(ctx, func(repo *repository.Repository) error {
		if _, err := repo.GetAccount(ctx, accountID); err != nil {
			return notFound(err, ErrAccountNotFound, "account "+accountID)
		}
		for _, st := range staged {
			if err := repo.PutStaged(ctx, st); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Infof("Statement imported for account %s: %d entries staged", accountID, len(staged))
	return staged, stmt.ClosingBalance, nil
}
