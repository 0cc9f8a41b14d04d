package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

// CreateAccount creates a new account with a zero balance
func (s *Service) CreateAccount(ctx context.Context, name string, accountType models.AccountType) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, accountType)
	}

	account := &models.Account{
		ID:      s.newID("acc"),
		Name:    name,
		Type:    accountType,
		Balance: decimal.Zero,
	}
	err := s.update(ctx, func(repo *repository.Repository) error {
		return repo.PutAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Account created: %s (%s)", account.Name, account.ID)
	return account, nil
}

// UpdateAccount renames or retypes an account. The balance is left untouched.
func (s *Service) UpdateAccount(ctx context.Context, id, name string, accountType models.AccountType) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, accountType)
	}

	var account *models.Account
	err := s.update(ctx, func(repo *repository.Repository) error {
		var err error
		account, err = repo.GetAccount(ctx, id)
		if err != nil {
			return notFound(err, ErrAccountNotFound, "account "+id)
		}
		account.Name = name
		account.Type = accountType
		return repo.PutAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount retrieves an account by ID
func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account *models.Account
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		account, err = repo.GetAccount(ctx, id)
		return notFound(err, ErrAccountNotFound, "account "+id)
	})
	return account, err
}

// ListAccounts retrieves all accounts
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		accounts, err = repo.ListAccounts(ctx)
		return err
	})
	return accounts, err
}

// DeleteAccount removes an account. While transactions reference it the deletion is refused
// unless cascade is set, in which case those transactions are deleted first and their
// effect on every other account is rolled back. Staged entries owned by the account go too.
func (s *Service) DeleteAccount(ctx context.Context, id string, cascade bool) (int, error) {
	removed := 0
	err := s.update(ctx, func(repo *repository.Repository) error {
		if _, err := repo.GetAccount(ctx, id); err != nil {
			return notFound(err, ErrAccountNotFound, "account "+id)
		}
		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			return err
		}
		var referencing []*models.Transaction
		for _, t := range txs {
			if t.References(id) {
				referencing = append(referencing, t)
			}
		}
		if len(referencing) > 0 && !cascade {
			return fmt.Errorf("%w: %d transaction(s)", ErrAccountInUse, len(referencing))
		}
		for _, t := range referencing {
			if _, err := deleteTransaction(ctx, repo, t.ID); err != nil {
				return err
			}
			removed++
		}

		staged, err := repo.ListStaged(ctx, id)
		if err != nil {
			return err
		}
		for _, st := range staged {
			if err := repo.DeleteStaged(ctx, st.ID); err != nil {
				return err
			}
		}
		return repo.DeleteAccount(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	s.log.Infof("Account deleted: %s (%d transaction(s) cascaded)", id, removed)
	return removed, nil
}
