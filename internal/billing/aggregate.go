package billing

import (
	"fmt"

	"github.com/veloura-crm/veloura/internal/money"
)

// Subtotal reduces line items to a pre-discount, pre-tax subtotal.
// Each line contributes unit_price*quantity - discount, floored at zero so a
// per-line discount can never push a line negative. Input is validated
// strictly: quantities below one and negative amounts are rejected rather
// than coerced.
func Subtotal(items []LineItem) (money.Money, error) {
	if len(items) == 0 {
		return money.Money{}, ErrNoLineItems
	}

	total := money.Zero(items[0].UnitPrice.Currency)
	for i, item := range items {
		if item.Quantity < 1 {
			return money.Money{}, fmt.Errorf("line %d (%s): %w", i+1, item.Name, ErrInvalidQuantity)
		}
		if err := item.UnitPrice.NonNegative(); err != nil {
			return money.Money{}, fmt.Errorf("line %d (%s) unit price: %w", i+1, item.Name, err)
		}
		if err := item.Discount.NonNegative(); err != nil {
			return money.Money{}, fmt.Errorf("line %d (%s) discount: %w", i+1, item.Name, err)
		}

		line := item.UnitPrice.MulQty(item.Quantity).Sub(item.Discount)
		if line.IsNegative() {
			line = money.Zero(line.Currency)
		}
		total = total.Add(line)
	}
	return total, nil
}
