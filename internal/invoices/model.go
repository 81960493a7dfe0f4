// Package invoices owns the billing documents: creation, the status
// lifecycle and payment settlement against the allocator.
package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/billing"
	"github.com/veloura-crm/veloura/internal/money"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusSent          Status = "SENT"
	StatusPaid          Status = "PAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusOverdue       Status = "OVERDUE"
	StatusVoid          Status = "VOID"
)

// Payable reports whether a payment may be recorded in this state.
func (s Status) Payable() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartiallyPaid, StatusOverdue:
		return true
	}
	return false
}

// Line is a priced row on an invoice. LineTotal is quantity times unit
// price minus the per-line discount, clamped at zero.
type Line struct {
	ID        int64       `json:"id"`
	InvoiceID int64       `json:"invoice_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int64       `json:"quantity"`
	Discount  money.Money `json:"discount"`
	LineTotal money.Money `json:"line_total"`
}

// Invoice is a billing document. Monetary fields are denormalised from the
// lines at creation time and never recomputed afterwards.
type Invoice struct {
	ID         int64  `json:"id"`
	Number     string `json:"number"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	Status     Status `json:"status"`
	Currency   string `json:"currency"`

	Subtotal   money.Money     `json:"subtotal"`
	Discount   money.Money     `json:"discount"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Tax        money.Money     `json:"tax"`
	Tip        money.Money     `json:"tip"`
	Total      money.Money     `json:"total"`
	AmountPaid money.Money     `json:"amount_paid"`

	DueDate   *time.Time `json:"due_date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy int64      `json:"created_by"`
	Lines     []Line     `json:"lines,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BalanceDue is what remains to be settled.
func (i *Invoice) BalanceDue() money.Money {
	return i.Total.Sub(i.AmountPaid)
}

// Payment is one settlement against an invoice. Amount is the portion
// funded by Method; loyalty and promo portions ride alongside it.
type Payment struct {
	ID            int64                 `json:"id"`
	InvoiceID     int64                 `json:"invoice_id"`
	Method        billing.PaymentMethod `json:"method"`
	Amount        money.Money           `json:"amount"`
	LoyaltyAmount money.Money           `json:"loyalty_amount"`
	PromoAmount   money.Money           `json:"promo_amount"`
	PromoCode     string                `json:"promo_code,omitempty"`
	GiftCardCode  string                `json:"gift_card_code,omitempty"`
	Note          string                `json:"note,omitempty"`
	CreatedBy     int64                 `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
}
