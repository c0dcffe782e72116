package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yeremiapane/shagomeals/pricing"
)

// FeeBook is the default fee schedule plus per-tenant overrides.
type FeeBook struct {
	Default   pricing.FeeSchedule
	overrides map[string]pricing.FeeSchedule
}

// feeEntry mirrors one tenant in the fees file. Amounts are strings so
// they never pass through a float.
type feeEntry struct {
	DeliveryFlat   *string `yaml:"delivery_fee_flat"`
	VAT            *string `yaml:"vat"`
	VATMode        *string `yaml:"vat_mode"`
	ProcessingFlat *string `yaml:"processing_fee_flat"`
}

type feeFile struct {
	Tenants map[string]feeEntry `yaml:"tenants"`
}

func NewFeeBook(def pricing.FeeSchedule) *FeeBook {
	return &FeeBook{Default: def, overrides: map[string]pricing.FeeSchedule{}}
}

// For returns the schedule of the tenant, or the default.
func (b *FeeBook) For(tenantSlug string) pricing.FeeSchedule {
	if s, ok := b.overrides[tenantSlug]; ok {
		return s
	}
	return b.Default
}

func (b *FeeBook) Set(tenantSlug string, s pricing.FeeSchedule) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("fees of %s: %w", tenantSlug, err)
	}
	b.overrides[tenantSlug] = s
	return nil
}

// LoadFeeFile reads overrides such as
//
//	tenants:
//	  mama-put:
//	    delivery_fee_flat: "5.00"
//	    vat: "0.075"
//	    vat_mode: rate
//
// Fields left out keep the default.
func (b *FeeBook) LoadFeeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fees file: %w", err)
	}
	return b.Parse(raw)
}

func (b *FeeBook) Parse(raw []byte) error {
	var file feeFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("parse fees file: empty document")
		}
		return fmt.Errorf("parse fees file: %w", err)
	}
	if file.Tenants == nil {
		return errors.New("parse fees file: missing tenants mapping")
	}

	for slug, entry := range file.Tenants {
		s := b.Default
		var err error
		if s.DeliveryFlat, err = override(entry.DeliveryFlat, s.DeliveryFlat); err != nil {
			return fmt.Errorf("%s delivery_fee_flat: %w", slug, err)
		}
		if s.VAT, err = override(entry.VAT, s.VAT); err != nil {
			return fmt.Errorf("%s vat: %w", slug, err)
		}
		if s.ProcessingFlat, err = override(entry.ProcessingFlat, s.ProcessingFlat); err != nil {
			return fmt.Errorf("%s processing_fee_flat: %w", slug, err)
		}
		if entry.VATMode != nil {
			s.VATMode = pricing.VATMode(strings.ToLower(*entry.VATMode))
		}
		if err := b.Set(slug, s); err != nil {
			return err
		}
	}
	return nil
}

func override(raw *string, current decimal.Decimal) (decimal.Decimal, error) {
	if raw == nil {
		return current, nil
	}
	return decimal.NewFromString(strings.TrimSpace(*raw))
}
