package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/shopspring/decimal"
)

func TestTransferBetweenAccounts(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")

	tx, err := s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-10"),
		Lines: []models.PostingLine{line(a.ID, "100"), line(b.ID, "-100")},
	}, models.ModeDoubleEntry)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	wantBalance(t, s, a.ID, "100")
	wantBalance(t, s, b.ID, "-100")
	assertAudited(t, s)

	tx.Lines = []models.PostingLine{line(a.ID, "40"), line(b.ID, "-40")}
	if _, err := s.UpdateTransaction(ctx, tx, models.ModeDoubleEntry); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	wantBalance(t, s, a.ID, "40")
	wantBalance(t, s, b.ID, "-40")
	assertAudited(t, s)

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	wantBalance(t, s, a.ID, "0")
	wantBalance(t, s, b.ID, "0")
	assertAudited(t, s)
}

func TestCreateTransactionRejects(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")

	tests := []struct {
		name  string
		mode  models.Mode
		date  models.Date
		lines []models.PostingLine
		want  error
	}{
		{"unbalanced", models.ModeDoubleEntry, day("2024-01-01"), []models.PostingLine{line(a.ID, "10"), line(b.ID, "-9")}, ErrUnbalancedTransaction},
		{"single line in double mode", models.ModeDoubleEntry, day("2024-01-01"), []models.PostingLine{line(a.ID, "10")}, ErrUnbalancedTransaction},
		{"no lines", models.ModeSimple, day("2024-01-01"), nil, ErrEmptyPosting},
		{"zero amount", models.ModeSimple, day("2024-01-01"), []models.PostingLine{line(a.ID, "0")}, ErrEmptyPosting},
		{"missing account", models.ModeDoubleEntry, day("2024-01-01"), []models.PostingLine{line(a.ID, "5"), line("acc:ghost", "-5")}, ErrDanglingAccountReference},
		{"no date", models.ModeSimple, models.Date{}, []models.PostingLine{line(a.ID, "5")}, ErrInvalidInput},
		{"unknown mode", models.Mode("triple"), day("2024-01-01"), []models.PostingLine{line(a.ID, "5")}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTransaction(ctx, &models.Transaction{Date: tt.date, Lines: tt.lines}, tt.mode)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CreateTransaction() error = %v, want %v", err, tt.want)
			}
		})
	}

	wantBalance(t, s, a.ID, "0")
	wantBalance(t, s, b.ID, "0")
	txs, _ := s.ListTransactions(ctx, "")
	if len(txs) != 0 {
		t.Errorf("rejected transactions were stored: %d", len(txs))
	}
}

func TestBalanceTolerance(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")

	_, err := s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-01"),
		Lines: []models.PostingLine{line(a.ID, "10.0000005"), line(b.ID, "-10")},
	}, models.ModeDoubleEntry)
	if err != nil {
		t.Errorf("sum within tolerance rejected: %v", err)
	}
	_, err = s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-01"),
		Lines: []models.PostingLine{line(a.ID, "10.00001"), line(b.ID, "-10")},
	}, models.ModeDoubleEntry)
	if !errors.Is(err, ErrUnbalancedTransaction) {
		t.Errorf("sum outside tolerance error = %v", err)
	}
}

func TestSimpleModeSingleLine(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "Wallet")

	if _, err := s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-01"),
		Lines: []models.PostingLine{line(a.ID, "-12.5")},
	}, models.ModeSimple); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	wantBalance(t, s, a.ID, "-12.5")
	assertAudited(t, s)
}

func TestDuplicateTransactionID(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")

	tx := &models.Transaction{ID: "tx:fixed", Date: day("2024-01-01"), Lines: []models.PostingLine{line(a.ID, "1")}}
	if _, err := s.CreateTransaction(ctx, tx, models.ModeSimple); err != nil {
		t.Fatal(err)
	}
	again := &models.Transaction{ID: "tx:fixed", Date: day("2024-01-02"), Lines: []models.PostingLine{line(a.ID, "1")}}
	if _, err := s.CreateTransaction(ctx, again, models.ModeSimple); !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("CreateTransaction(duplicate) error = %v", err)
	}
	wantBalance(t, s, a.ID, "1")
}

func TestUpdateTransactionIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")

	tx, err := s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-01"),
		Lines: []models.PostingLine{line(a.ID, "30"), line(b.ID, "-30")},
	}, models.ModeDoubleEntry)
	if err != nil {
		t.Fatal(err)
	}

	bad := &models.Transaction{
		ID:    tx.ID,
		Date:  day("2024-01-02"),
		Lines: []models.PostingLine{line(a.ID, "30"), line("acc:ghost", "-30")},
	}
	if _, err := s.UpdateTransaction(ctx, bad, models.ModeDoubleEntry); !errors.Is(err, ErrDanglingAccountReference) {
		t.Fatalf("UpdateTransaction() error = %v, want ErrDanglingAccountReference", err)
	}
	wantBalance(t, s, a.ID, "30")
	wantBalance(t, s, b.ID, "-30")
	stored, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Date != day("2024-01-01") || stored.Lines[1].AccountID != b.ID {
		t.Errorf("stored transaction changed: %+v", stored)
	}

	if _, err := s.UpdateTransaction(ctx, &models.Transaction{ID: "tx:nope", Date: day("2024-01-01"), Lines: bad.Lines}, models.ModeDoubleEntry); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTransaction(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMissingTransactionIsNoop(t *testing.T) {
	s := newTestService(t)
	if err := s.DeleteTransaction(context.Background(), "tx:never"); err != nil {
		t.Errorf("DeleteTransaction() error = %v", err)
	}
}

func TestListTransactionsByAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	c := mustAccount(t, s, "C")

	for _, tx := range []*models.Transaction{
		{Date: day("2024-03-01"), Lines: []models.PostingLine{line(a.ID, "1"), line(b.ID, "-1")}},
		{Date: day("2024-01-01"), Lines: []models.PostingLine{line(a.ID, "2"), line(c.ID, "-2")}},
		{Date: day("2024-02-01"), Lines: []models.PostingLine{line(b.ID, "3"), line(c.ID, "-3")}},
	} {
		if _, err := s.CreateTransaction(ctx, tx, models.ModeDoubleEntry); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListTransactions(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date != day("2024-01-01") || got[1].Date != day("2024-03-01") {
		t.Errorf("ListTransactions(A) = %+v", got)
	}
}

func TestAuditAndCorrection(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	if _, err := s.CreateTransaction(ctx, &models.Transaction{
		Date:  day("2024-01-01"),
		Lines: []models.PostingLine{line(a.ID, "25")},
	}, models.ModeSimple); err != nil {
		t.Fatal(err)
	}

	// corrupt the cached balance behind the service's back
	dump, err := s.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	dump.Accounts[0].Balance = decimal.NewFromInt(99)
	if err := s.Import(ctx, dump, true); err != nil {
		t.Fatal(err)
	}

	audit, err := s.RecomputeAccountBalance(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !audit.Cached.Equal(d("99")) || !audit.Computed.Equal(d("25")) || !audit.Difference.Equal(d("74")) {
		t.Errorf("audit = %+v", audit)
	}
	wantBalance(t, s, a.ID, "99") // recompute never writes

	if _, err := s.ApplyBalanceCorrection(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	wantBalance(t, s, a.ID, "25")
	assertAudited(t, s)

	if _, err := s.RecomputeAccountBalance(ctx, "acc:ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("RecomputeAccountBalance(missing) error = %v", err)
	}
}

func TestZeroSumInDoubleEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	c := mustAccount(t, s, "C")

	for _, lines := range [][]models.PostingLine{
		{line(a.ID, "100"), line(b.ID, "-60"), line(c.ID, "-40")},
		{line(b.ID, "15.25"), line(a.ID, "-15.25")},
		{line(c.ID, "7"), line(a.ID, "-7")},
	} {
		if _, err := s.CreateTransaction(ctx, &models.Transaction{Date: day("2024-01-01"), Lines: lines}, models.ModeDoubleEntry); err != nil {
			t.Fatal(err)
		}
	}

	accounts, _ := s.ListAccounts(ctx)
	sum := decimal.Zero
	for _, acc := range accounts {
		sum = sum.Add(acc.Balance)
	}
	if !sum.IsZero() {
		t.Errorf("sum of balances = %s, want 0", sum)
	}
	assertAudited(t, s)
}
