package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

func aed(amount int64) money.Money {
	return money.Money{Amount: amount, Currency: "AED"}
}

func TestSubtotal(t *testing.T) {
	items := []LineItem{
		{Name: "Haircut", UnitPrice: aed(8000), Quantity: 1},
		{Name: "Shampoo", UnitPrice: aed(2500), Quantity: 2, Discount: aed(500)},
	}
	got, err := Subtotal(items)
	require.NoError(t, err)
	require.EqualValues(t, 8000+5000-500, got.Amount)
}

func TestSubtotalClampsLineAtZero(t *testing.T) {
	items := []LineItem{
		{Name: "Promo item", UnitPrice: aed(1000), Quantity: 1, Discount: aed(5000)},
		{Name: "Manicure", UnitPrice: aed(6000), Quantity: 1},
	}
	got, err := Subtotal(items)
	require.NoError(t, err)
	require.EqualValues(t, 6000, got.Amount)
}

func TestSubtotalRejectsBadInput(t *testing.T) {
	_, err := Subtotal(nil)
	require.ErrorIs(t, err, ErrNoLineItems)

	_, err = Subtotal([]LineItem{{Name: "x", UnitPrice: aed(100), Quantity: 0}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Subtotal([]LineItem{{Name: "x", UnitPrice: aed(100), Quantity: -2}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Subtotal([]LineItem{{Name: "x", UnitPrice: aed(-100), Quantity: 1}})
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = Subtotal([]LineItem{{Name: "x", UnitPrice: aed(100), Quantity: 1, Discount: aed(-1)}})
	require.ErrorIs(t, err, money.ErrInvalidAmount)
}
