package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := NewService(repository.NewMemoryStore(), logger)
	n := 0
	s.newID = func(prefix string) string {
		n++
		return fmt.Sprintf("%s:%d", prefix, n)
	}
	return s
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) models.Date { return models.MustParseDate(s) }

func line(accountID, amount string) models.PostingLine {
	return models.PostingLine{AccountID: accountID, Amount: d(amount)}
}

func mustAccount(t *testing.T, s *Service, name string) *models.Account {
	t.Helper()
	acc, err := s.CreateAccount(context.Background(), name, models.AccountTypeBank)
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return acc
}

func balanceOf(t *testing.T, s *Service, id string) decimal.Decimal {
	t.Helper()
	acc, err := s.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount(%s) error = %v", id, err)
	}
	return acc.Balance
}

func wantBalance(t *testing.T, s *Service, id, want string) {
	t.Helper()
	if got := balanceOf(t, s, id); !got.Equal(d(want)) {
		t.Errorf("balance of %s = %s, want %s", id, got, want)
	}
}

// assertAudited checks that every cached balance equals the sum of its postings.
func assertAudited(t *testing.T, s *Service) {
	t.Helper()
	audits, err := s.AuditAll(context.Background())
	if err != nil {
		t.Fatalf("AuditAll() error = %v", err)
	}
	for _, a := range audits {
		if !a.InSync(Tolerance) {
			t.Errorf("account %s drifted: cached %s, computed %s", a.AccountID, a.Cached, a.Computed)
		}
	}
}
