package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VATMode says how FeeSchedule.VAT is applied.
type VATMode string

const (
	VATFlat VATMode = "flat"
	VATRate VATMode = "rate"
)

// Fee labels, in the order they are listed at checkout.
const (
	FeeDelivery   = "Delivery fee"
	FeeProcessing = "Service fee"
	FeeVAT        = "VAT"
)

// FeeSchedule holds the additive charges of one tenant.
type FeeSchedule struct {
	DeliveryFlat   decimal.Decimal
	VAT            decimal.Decimal
	VATMode        VATMode
	ProcessingFlat decimal.Decimal
}

// DefaultFeeSchedule mirrors the flat charges the platform launched with.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		DeliveryFlat:   decimal.RequireFromString("7.00"),
		VAT:            decimal.RequireFromString("1.23"),
		VATMode:        VATFlat,
		ProcessingFlat: decimal.RequireFromString("2.03"),
	}
}

// Validate rejects negative charges and unknown VAT modes.
func (f FeeSchedule) Validate() error {
	if f.DeliveryFlat.IsNegative() || f.VAT.IsNegative() || f.ProcessingFlat.IsNegative() {
		return fmt.Errorf("fee schedule: charges must not be negative")
	}
	switch f.VATMode {
	case VATFlat, VATRate:
	default:
		return fmt.Errorf("fee schedule: unknown vat mode %q", f.VATMode)
	}
	return nil
}

// Fee is one labelled charge.
type Fee struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Totals is the checkout breakdown of a set of lines.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Fees     []Fee           `json:"fees"`
	Total    decimal.Decimal `json:"total"`
}

// Fee returns the amount of the fee with the given label.
func (t Totals) Fee(label string) decimal.Decimal {
	for _, f := range t.Fees {
		if f.Type == label {
			return f.Amount
		}
	}
	return decimal.Zero
}

// DeliveryFee is charged once for any non-empty set of lines.
func (f FeeSchedule) DeliveryFee(lines []Line) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.Zero
	}
	return f.DeliveryFlat
}

// ProcessingFee is charged once for any non-empty set of lines.
func (f FeeSchedule) ProcessingFee(lines []Line) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.Zero
	}
	return f.ProcessingFlat
}

// VATAmount is either flat or a rate over the subtotal, depending on VATMode.
func (f FeeSchedule) VATAmount(lines []Line) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, nil
	}
	if f.VATMode != VATRate {
		return f.VAT, nil
	}
	sub, err := Subtotal(lines)
	if err != nil {
		return decimal.Zero, err
	}
	return sub.Mul(f.VAT), nil
}

// Totals computes subtotal + delivery + VAT + processing.
func (f FeeSchedule) Totals(lines []Line) (Totals, error) {
	sub, err := Subtotal(lines)
	if err != nil {
		return Totals{}, err
	}
	vat, err := f.VATAmount(lines)
	if err != nil {
		return Totals{}, err
	}

	fees := []Fee{
		{Type: FeeDelivery, Amount: f.DeliveryFee(lines)},
		{Type: FeeProcessing, Amount: f.ProcessingFee(lines)},
		{Type: FeeVAT, Amount: vat},
	}
	total := sub
	for _, fee := range fees {
		total = total.Add(fee.Amount)
	}
	return Totals{Subtotal: sub, Fees: fees, Total: total}, nil
}
