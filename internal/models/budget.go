package models

import "github.com/shopspring/decimal"

// Budget is a spending envelope transactions may be tagged with.
type Budget struct {
	ID     string          `json:"id" yaml:"id"`
	Name   string          `json:"name" yaml:"name"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}
