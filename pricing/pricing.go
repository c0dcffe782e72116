// Package pricing computes line totals, subtotals and checkout fees.
//
// All arithmetic is exact decimal arithmetic. Rounding happens only when a
// value is formatted for presentation.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/shagomeals/apperrors"
)

// Line is the pricing view of a line item.
type Line struct {
	BasePrice decimal.Decimal
	Quantity  int
	Deltas    []decimal.Decimal
}

// LineTotal returns base_price * quantity + sum(deltas).
//
// Surcharges are per line, not per unit.
func LineTotal(l Line) (decimal.Decimal, error) {
	total := l.BasePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	for _, d := range l.Deltas {
		total = total.Add(d)
	}
	if total.IsNegative() {
		return decimal.Zero, apperrors.New(apperrors.ErrInvalidPricingState,
			"line total %s is negative", total.String())
	}
	return total, nil
}

// Subtotal sums the line totals. An empty slice yields zero.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range lines {
		t, err := LineTotal(l)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(t)
	}
	return sum, nil
}
