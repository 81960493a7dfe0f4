package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

func TestComposeTenPercentOffFivePercentTax(t *testing.T) {
	// 200.00 subtotal, 10% discount, 5% tax, no tip.
	got, err := Compose(aed(20000), Discount{Type: DiscountTypePercentage, Rate: money.PercentRate(10)}, money.PercentRate(5), money.Money{})
	require.NoError(t, err)

	require.EqualValues(t, 2000, got.Discount.Amount)     // 20.00
	require.EqualValues(t, 18000, got.TaxableBase.Amount) // 180.00
	require.EqualValues(t, 900, got.Tax.Amount)           // 9.00
	require.EqualValues(t, 18900, got.Total.Amount)       // 189.00
}

func TestComposeFixedDiscountWithTip(t *testing.T) {
	got, err := Compose(aed(10000), Discount{Type: DiscountTypeFixed, Amount: aed(1500)}, money.PercentRate(5), aed(1000))
	require.NoError(t, err)

	require.EqualValues(t, 1500, got.Discount.Amount)
	require.EqualValues(t, 8500, got.TaxableBase.Amount)
	require.EqualValues(t, 425, got.Tax.Amount)
	// Tip is added after tax and never taxed itself.
	require.EqualValues(t, 8500+425+1000, got.Total.Amount)
}

func TestComposeTaxOnPostDiscountBase(t *testing.T) {
	withDiscount, err := Compose(aed(20000), Discount{Type: DiscountTypeFixed, Amount: aed(10000)}, money.PercentRate(5), money.Money{})
	require.NoError(t, err)
	noDiscount, err := Compose(aed(20000), Discount{}, money.PercentRate(5), money.Money{})
	require.NoError(t, err)

	require.EqualValues(t, 500, withDiscount.Tax.Amount)
	require.EqualValues(t, 1000, noDiscount.Tax.Amount)
}

func TestComposeClampsRunawayDiscount(t *testing.T) {
	pct, err := Compose(aed(5000), Discount{Type: DiscountTypePercentage, Rate: money.PercentRate(150)}, money.PercentRate(5), money.Money{})
	require.NoError(t, err)
	require.EqualValues(t, 5000, pct.Discount.Amount)
	require.True(t, pct.TaxableBase.IsZero())
	require.True(t, pct.Total.IsZero())

	fixed, err := Compose(aed(5000), Discount{Type: DiscountTypeFixed, Amount: aed(9000)}, decimal.Zero, money.Money{})
	require.NoError(t, err)
	require.EqualValues(t, 5000, fixed.Discount.Amount)
	require.True(t, fixed.Total.IsZero())
}

func TestComposeRejectsInvalidInput(t *testing.T) {
	_, err := Compose(aed(-1), Discount{}, decimal.Zero, money.Money{})
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = Compose(aed(100), Discount{}, money.PercentRate(-5), money.Money{})
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Compose(aed(100), Discount{Type: DiscountTypePercentage, Rate: money.PercentRate(-10)}, decimal.Zero, money.Money{})
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Compose(aed(100), Discount{}, decimal.Zero, aed(-50))
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = Compose(aed(100), Discount{Type: "WEIRD"}, decimal.Zero, money.Money{})
	require.Error(t, err)
}

func TestComposeIsDeterministic(t *testing.T) {
	disc := Discount{Type: DiscountTypePercentage, Rate: money.PercentRate(12.5)}
	first, err := Compose(aed(33333), disc, money.PercentRate(5), aed(700))
	require.NoError(t, err)
	second, err := Compose(aed(33333), disc, money.PercentRate(5), aed(700))
	require.NoError(t, err)
	require.Equal(t, first, second)
}
