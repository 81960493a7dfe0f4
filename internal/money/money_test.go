package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(1500, "aed")
	require.NoError(t, err)
	require.Equal(t, "AED", m.Currency)
	require.EqualValues(t, 1500, m.Amount)

	_, err = New(100, "dirham")
	require.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	a := Money{Amount: 1000, Currency: "AED"}
	b := Money{Amount: 250, Currency: "AED"}

	require.EqualValues(t, 1250, a.Add(b).Amount)
	require.EqualValues(t, 750, a.Sub(b).Amount)
	require.EqualValues(t, 3000, a.MulQty(3).Amount)
	require.EqualValues(t, 250, a.Min(b).Amount)
	require.True(t, b.LessThan(a))
	require.True(t, a.GreaterThanOrEqual(b))
}

func TestCurrencyMismatchPanics(t *testing.T) {
	a := Money{Amount: 100, Currency: "AED"}
	b := Money{Amount: 100, Currency: "USD"}
	require.Panics(t, func() { a.Add(b) })
	require.Panics(t, func() { a.Sub(b) })
	require.Panics(t, func() { a.Min(b) })
}

func TestMulRateRoundsHalfAwayFromZero(t *testing.T) {
	m := Money{Amount: 1005, Currency: "AED"}

	// 1005 * 0.5 = 502.5 -> 503
	half := m.MulRate(decimal.NewFromFloat(0.5))
	require.EqualValues(t, 503, half.Amount)

	// 20000 * 0.05 = 1000 exactly
	tax := Money{Amount: 20000, Currency: "AED"}.MulRate(PercentRate(5))
	require.EqualValues(t, 1000, tax.Amount)

	neg := Money{Amount: -1005, Currency: "AED"}.MulRate(decimal.NewFromFloat(0.5))
	require.EqualValues(t, -503, neg.Amount)
}

func TestClamp(t *testing.T) {
	lo := Zero("AED")
	hi := Money{Amount: 500, Currency: "AED"}

	require.EqualValues(t, 0, Money{Amount: -10, Currency: "AED"}.Clamp(lo, hi).Amount)
	require.EqualValues(t, 500, Money{Amount: 900, Currency: "AED"}.Clamp(lo, hi).Amount)
	require.EqualValues(t, 250, Money{Amount: 250, Currency: "AED"}.Clamp(lo, hi).Amount)
}

func TestNonNegative(t *testing.T) {
	require.NoError(t, Money{Amount: 0, Currency: "AED"}.NonNegative())
	require.ErrorIs(t, Money{Amount: -1, Currency: "AED"}.NonNegative(), ErrInvalidAmount)
}

func TestMajorConversion(t *testing.T) {
	m := Money{Amount: 18900, Currency: "AED"}
	require.Equal(t, "189", m.Major().String())

	back := FromMajor(decimal.NewFromFloat(189.005), "AED")
	require.EqualValues(t, 18901, back.Amount)
}

func TestFormatFallback(t *testing.T) {
	m := Money{Amount: 18900, Currency: "XXZ"}
	require.Equal(t, "XXZ 189.00", m.Format())
}
