package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Tolerance is the largest line sum still considered balanced.
var Tolerance = decimal.New(1, -6)

// Service handles ledger business logic.
// Every operation holds the ledger lock and runs in one store unit of work, so
// a failure partway through leaves no partial writes behind.
type Service struct {
	store repository.Store
	log   *logrus.Logger
	mu    sync.Mutex
	newID func(prefix string) string
}

// NewService initializes a new service
func NewService(store repository.Store, log *logrus.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		newID: func(prefix string) string { return prefix + ":" + uuid.NewString() },
	}
}

func (s *Service) update(ctx context.Context, fn func(repo *repository.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Update(ctx, func(tx repository.Tx) error {
		return fn(repository.NewRepository(tx))
	})
}

func (s *Service) view(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return s.store.View(ctx, func(tx repository.Tx) error {
		return fn(repository.NewRepository(tx))
	})
}

// notFound translates a repository miss into kind, keeping other errors intact.
func notFound(err error, kind error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, kind)
	}
	return err
}
