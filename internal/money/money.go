// Package money implements fixed-point currency arithmetic.
//
// Amounts are stored as an integer number of minor units (fils, cents).
// Rate application goes through shopspring/decimal and rounds half away
// from zero to the nearest minor unit. Formatting is display-only and
// never feeds back into computation.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidAmount indicates a negative amount where one is not allowed.
var ErrInvalidAmount = errors.New("invalid amount")

// minorPerMajor is the minor-unit factor for the two-decimal currencies the
// platform operates in (AED, USD, EUR and friends).
const minorPerMajor = 100

// Money is a currency amount in minor units.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New constructs a Money value. The currency must be a three-letter ISO code.
func New(amount int64, code string) (Money, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return Money{}, fmt.Errorf("money: invalid currency %q", code)
	}
	return Money{Amount: amount, Currency: code}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(code string) Money {
	return Money{Amount: 0, Currency: strings.ToUpper(code)}
}

// NonNegative validates the amount for contexts that forbid negatives
// (prices, discounts, balances).
func (m Money) NonNegative() error {
	if m.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, other.Currency))
	}
}

// Add returns m + other. Panics if currencies differ.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Sub returns m - other. Panics if currencies differ.
func (m Money) Sub(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// MulQty multiplies by an integer quantity.
func (m Money) MulQty(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// MulRate applies a decimal rate (0.05 == 5%) and rounds half away from zero
// to the nearest minor unit.
func (m Money) MulRate(rate decimal.Decimal) Money {
	amt := decimal.NewFromInt(m.Amount).Mul(rate).Round(0)
	return Money{Amount: amt.IntPart(), Currency: m.Currency}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Min returns the smaller of two amounts. Panics if currencies differ.
func (m Money) Min(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount < other.Amount {
		return m
	}
	return other
}

// Clamp bounds the amount to [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	m.assertSameCurrency(lo)
	m.assertSameCurrency(hi)
	switch {
	case m.Amount < lo.Amount:
		return lo
	case m.Amount > hi.Amount:
		return hi
	default:
		return m
	}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// Equal reports amount and currency equality.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan compares amounts. Panics if currencies differ.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThanOrEqual compares amounts. Panics if currencies differ.
func (m Money) GreaterThanOrEqual(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount >= other.Amount
}

// Major returns the amount in major units as an exact decimal.
func (m Money) Major() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(minorPerMajor))
}

// FromMajor converts a major-unit decimal into Money, rounding half away
// from zero to the minor unit.
func FromMajor(d decimal.Decimal, code string) Money {
	amt := d.Mul(decimal.NewFromInt(minorPerMajor)).Round(0)
	return Money{Amount: amt.IntPart(), Currency: strings.ToUpper(code)}
}

// PercentRate converts a human percentage (5 == 5%) into a decimal rate.
func PercentRate(p float64) decimal.Decimal {
	return decimal.NewFromFloat(p).Div(decimal.NewFromInt(100))
}

// Format renders the amount for display, e.g. "AED 189.00". Display only.
func (m Money) Format() string {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return fmt.Sprintf("%s %s", m.Currency, m.Major().StringFixed(2))
	}
	p := message.NewPrinter(language.English)
	major, _ := m.Major().Float64()
	return p.Sprintf("%v", currency.ISO(unit.Amount(major)))
}
