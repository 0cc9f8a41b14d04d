package models

import "slices"

// StagedTransaction is a pending transaction held against the account being reconciled.
// It has no balance effect until committed.
type StagedTransaction struct {
	ID          string        `json:"id" yaml:"id"`
	AccountID   string        `json:"accountId" yaml:"accountId"`
	Date        Date          `json:"date" yaml:"date"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	BudgetID    string        `json:"budgetId,omitempty" yaml:"budgetId,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Lines       []PostingLine `json:"lines" yaml:"lines"`
}

// ToTransaction converts the staged entry into a permanent transaction with the given id.
func (s *StagedTransaction) ToTransaction(id string) *Transaction {
	return &Transaction{
		ID:          id,
		Date:        s.Date,
		Description: s.Description,
		BudgetID:    s.BudgetID,
		Tags:        slices.Clone(s.Tags),
		Lines:       CopyLines(s.Lines),
	}
}
