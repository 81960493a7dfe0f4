// Package billing holds the pure pricing computations behind invoices and
// point-of-sale checkout: line aggregation, charge composition and tender
// allocation. Everything here is side-effect free; callers own persistence.
package billing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/money"
)

var (
	// ErrNoLineItems indicates an empty cart or invoice.
	ErrNoLineItems = errors.New("no line items")
	// ErrInvalidQuantity indicates a line quantity below one.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidRate indicates a negative tax or discount rate.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrNothingToPay indicates a non-positive balance due.
	ErrNothingToPay = errors.New("nothing to pay")
	// ErrGiftCardCodeRequired indicates gift card tender without a code.
	ErrGiftCardCodeRequired = errors.New("gift card code required")
	// ErrInsufficientGiftCardBalance indicates the card cannot cover the remainder.
	ErrInsufficientGiftCardBalance = errors.New("insufficient gift card balance")
	// ErrInvalidDiscountCode propagates a failed promo validation.
	ErrInvalidDiscountCode = errors.New("invalid discount code")
)

// LineItem is a single service or product line on an invoice or cart.
type LineItem struct {
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int64       `json:"quantity"`
	Discount  money.Money `json:"discount"`
}

// DiscountType selects how an aggregate discount is expressed.
type DiscountType string

const (
	DiscountTypeFixed      DiscountType = "FIXED"
	DiscountTypePercentage DiscountType = "PERCENTAGE"
)

// Discount is the aggregate discount applied before tax.
type Discount struct {
	Type   DiscountType
	Amount money.Money     // when Type is FIXED
	Rate   decimal.Decimal // when Type is PERCENTAGE, 0.10 == 10%
}

// ChargeBreakdown is the result of composing a charge.
type ChargeBreakdown struct {
	Subtotal    money.Money `json:"subtotal"`
	Discount    money.Money `json:"discount"`
	TaxableBase money.Money `json:"taxable_base"`
	Tax         money.Money `json:"tax"`
	Tip         money.Money `json:"tip"`
	Total       money.Money `json:"total"`
}

// PaymentMethod is the single non-loyalty, non-promo funding source.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodGiftCard     PaymentMethod = "GIFT_CARD"
	MethodOther        PaymentMethod = "OTHER"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodGiftCard, MethodOther:
		return true
	}
	return false
}

// PromoResult is the outcome of a server-side discount code validation.
// The allocator treats it as opaque: amount already bounded upstream.
type PromoResult struct {
	Code    string      `json:"code"`
	Valid   bool        `json:"valid"`
	Amount  money.Money `json:"amount"`
	Message string      `json:"message,omitempty"`
}

// AllocationInput carries everything the allocator needs for one attempt.
type AllocationInput struct {
	BalanceDue money.Money

	// Loyalty redemption request plus the program facts needed to cap it.
	LoyaltyRequest money.Money
	LoyaltyPoints  int64
	PointValue     money.Money
	MaxRedeemRate  decimal.Decimal

	Promo *PromoResult

	Method          PaymentMethod
	GiftCardCode    string
	GiftCardBalance money.Money
}

// PaymentAllocation splits a balance due across funding sources.
// Invariant: LoyaltyAmount + DiscountAmount + RemainingAmount == balance due.
type PaymentAllocation struct {
	LoyaltyAmount   money.Money   `json:"loyalty_amount"`
	DiscountAmount  money.Money   `json:"discount_amount"`
	RemainingAmount money.Money   `json:"remaining_amount"`
	Method          PaymentMethod `json:"method"`

	// PointsToDebit is ceil(LoyaltyAmount / PointValue); the caller debits
	// the loyalty account by this many points.
	PointsToDebit int64 `json:"points_to_debit"`
}

// TotalApplied is the sum settled by this allocation.
func (a PaymentAllocation) TotalApplied() money.Money {
	return a.LoyaltyAmount.Add(a.DiscountAmount).Add(a.RemainingAmount)
}
