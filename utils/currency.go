package utils

import (
	"github.com/shopspring/decimal"
)

// FormatMoney rounds to two places for presentation. Stored and
// intermediate values are never rounded.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
