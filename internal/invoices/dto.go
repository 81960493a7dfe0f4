package invoices

import "time"

// LineInput is one cart row in minor currency units.
type LineInput struct {
	Name           string `json:"name" validate:"required,max=200"`
	UnitPriceMinor int64  `json:"unit_price_minor" validate:"gte=0"`
	Quantity       int64  `json:"quantity" validate:"gte=1"`
	DiscountMinor  int64  `json:"discount_minor" validate:"gte=0"`
}

// CreateRequest is the payload for drafting an invoice.
type CreateRequest struct {
	CustomerID *int64      `json:"customer_id"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`

	// Aggregate discount: either a fixed amount or a percentage of the
	// subtotal. Empty type means no discount.
	DiscountType  string  `json:"discount_type" validate:"omitempty,oneof=FIXED PERCENTAGE"`
	DiscountMinor int64   `json:"discount_minor" validate:"gte=0"`
	DiscountPct   float64 `json:"discount_pct" validate:"gte=0,lte=100"`

	// TaxRatePct overrides the configured default when set (5 == 5%).
	TaxRatePct *float64 `json:"tax_rate_pct" validate:"omitempty,gte=0,lte=100"`
	TipMinor   int64    `json:"tip_minor" validate:"gte=0"`
	Notes      string   `json:"notes" validate:"max=2000"`
}

// RecordPaymentRequest settles some or all of an invoice's balance.
type RecordPaymentRequest struct {
	// AmountMinor is the portion of the balance to settle; zero means the
	// full balance due.
	AmountMinor int64 `json:"amount_minor" validate:"gte=0"`

	Method string `json:"method" validate:"required,oneof=CASH CARD BANK_TRANSFER GIFT_CARD OTHER"`

	// LoyaltyRequestMinor asks to cover part of the amount with points.
	LoyaltyRequestMinor int64  `json:"loyalty_request_minor" validate:"gte=0"`
	PromoCode           string `json:"promo_code" validate:"omitempty,max=40"`
	GiftCardCode        string `json:"gift_card_code" validate:"omitempty,max=40"`
	Note                string `json:"note" validate:"max=500"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status     Status
	CustomerID int64
	From       *time.Time
	To         *time.Time
}
