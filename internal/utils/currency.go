package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount formats a decimal amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currency codes fall back to the plain decimal with two places.
func FormatAmount(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return currency.Formatter().Format(minor)
}
