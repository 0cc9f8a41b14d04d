package models

import "github.com/shopspring/decimal"

// BalanceAudit compares an account's cached balance with the sum of its postings.
type BalanceAudit struct {
	AccountID  string          `json:"account_id"`
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"` // Cached - Computed
}

// InSync reports whether the cached balance matches the computed one within tolerance.
func (a BalanceAudit) InSync(tolerance decimal.Decimal) bool {
	return a.Difference.Abs().LessThanOrEqual(tolerance)
}
