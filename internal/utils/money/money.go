package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// The API accepts and returns decimal currency amounts; the ledger core works
// exclusively in integer minor units so balance arithmetic is exact. This
// package owns the conversion at that boundary.

var centsFactor = decimal.NewFromInt(100)

// ToCents converts a decimal currency amount to integer minor units. Amounts
// with sub-cent precision are rejected rather than rounded, so no drift can
// enter the books.
func ToCents(amount decimal.Decimal) (int64, error) {
	scaled := amount.Mul(centsFactor)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", amount.String())
	}
	return scaled.IntPart(), nil
}

// FromCents converts integer minor units back to a decimal currency amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsFactor)
}
