package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/money"
)

// Compose derives a charge breakdown from a subtotal. The order is fixed and
// shared by invoicing, POS and group bookings:
//
//  1. aggregate discount, clamped to [0, subtotal]
//  2. taxable base = subtotal - discount
//  3. tax on the post-discount base
//  4. total = base + tax + tip
//
// Tax is never computed on the pre-discount subtotal, and the tip is neither
// taxed nor discounted.
func Compose(subtotal money.Money, disc Discount, taxRate decimal.Decimal, tip money.Money) (ChargeBreakdown, error) {
	if err := subtotal.NonNegative(); err != nil {
		return ChargeBreakdown{}, fmt.Errorf("subtotal: %w", err)
	}
	zero := money.Zero(subtotal.Currency)
	if tip.Currency == "" {
		tip = zero
	}
	if err := tip.NonNegative(); err != nil {
		return ChargeBreakdown{}, fmt.Errorf("tip: %w", err)
	}
	if taxRate.IsNegative() {
		return ChargeBreakdown{}, fmt.Errorf("tax rate %s: %w", taxRate, ErrInvalidRate)
	}

	var discount money.Money
	switch disc.Type {
	case DiscountTypePercentage:
		if disc.Rate.IsNegative() {
			return ChargeBreakdown{}, fmt.Errorf("discount rate %s: %w", disc.Rate, ErrInvalidRate)
		}
		discount = subtotal.MulRate(disc.Rate)
	case DiscountTypeFixed, "":
		if err := disc.Amount.NonNegative(); err != nil {
			return ChargeBreakdown{}, fmt.Errorf("discount: %w", err)
		}
		discount = disc.Amount
		if discount.Currency == "" {
			discount = zero
		}
	default:
		return ChargeBreakdown{}, fmt.Errorf("unknown discount type %q", disc.Type)
	}
	// A rate above 100% or a fixed amount above the subtotal reduces the
	// charge to zero, never below.
	discount = discount.Clamp(zero, subtotal)

	base := subtotal.Sub(discount)
	tax := base.MulRate(taxRate)
	total := base.Add(tax).Add(tip)

	return ChargeBreakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: base,
		Tax:         tax,
		Tip:         tip,
		Total:       total,
	}, nil
}
