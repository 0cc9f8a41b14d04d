package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

// CreateBudget creates a budget. Budgets are soft references: deleting one leaves transactions alone.
func (s *Service) CreateBudget(ctx context.Context, name string, amount decimal.Decimal) (*models.Budget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: budget name is required", ErrInvalidInput)
	}
	budget := &models.Budget{ID: s.newID("bud"), Name: name, Amount: amount}
	err := s.update(ctx, func(repo *repository.Repository) error {
		return repo.PutBudget(ctx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *Service) ListBudgets(ctx context.Context) ([]*models.Budget, error) {
	var budgets []*models.Budget
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		budgets, err = repo.ListBudgets(ctx)
		return err
	})
	return budgets, err
}

func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	return s.update(ctx, func(repo *repository.Repository) error {
		return repo.DeleteBudget(ctx, id)
	})
}
