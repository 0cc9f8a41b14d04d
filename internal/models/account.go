package models

import "github.com/shopspring/decimal"

// AccountType is the category tag of an account.
type AccountType string

const (
	AccountTypeBank   AccountType = "bank"
	AccountTypeCash   AccountType = "cash"
	AccountTypeCredit AccountType = "credit"
	AccountTypeOther  AccountType = "other"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeCash, AccountTypeCredit, AccountTypeOther:
		return true
	}
	return false
}

// Account is a money container with a cached running balance.
// Balance is a materialized view over the transaction log and is only written by the service package.
type Account struct {
	ID      string          `json:"id" yaml:"id"`
	Name    string          `json:"name" yaml:"name"`
	Type    AccountType     `json:"type" yaml:"type"`
	Balance decimal.Decimal `json:"balance" yaml:"balance"`
}
