package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// TagReconciliation marks transactions booked to force an account to a reported balance.
const TagReconciliation = "reconciliation"

// PostingLine is one (account, signed amount) effect within a transaction.
type PostingLine struct {
	AccountID string          `json:"accountId" yaml:"accountId"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount"`
}

// Transaction represents a committed money movement between accounts
type Transaction struct {
	ID          string        `json:"id" yaml:"id"`
	Date        Date          `json:"date" yaml:"date"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	BudgetID    string        `json:"budgetId,omitempty" yaml:"budgetId,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Lines       []PostingLine `json:"lines" yaml:"lines"`
}

// SumLines returns the sum of all line amounts.
func SumLines(lines []PostingLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// AmountFor returns the sum of the lines referencing accountID.
func AmountFor(lines []PostingLine, accountID string) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.AccountID == accountID {
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

// References reports whether any line of t names accountID.
func (t *Transaction) References(accountID string) bool {
	return slices.ContainsFunc(t.Lines, func(l PostingLine) bool { return l.AccountID == accountID })
}

// HasTag reports whether t carries tag.
func (t *Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// CopyLines returns a copy of lines safe to store in another record.
func CopyLines(lines []PostingLine) []PostingLine {
	if lines == nil {
		return nil
	}
	return slices.Clone(lines)
}
