// Package pos implements front-desk checkout: one call that prices a cart,
// raises the invoice and settles it on the spot.
package pos

import (
	"context"
	"log/slog"

	"github.com/veloura-crm/veloura/internal/invoices"
	"github.com/veloura-crm/veloura/internal/staff"
)

// InvoiceService is the slice of the invoice module checkout needs.
type InvoiceService interface {
	Create(ctx context.Context, req invoices.CreateRequest, actorID int64) (*invoices.Invoice, error)
	RecordPayment(ctx context.Context, id int64, req invoices.RecordPaymentRequest, actorID int64, idemKey string) (*invoices.Payment, error)
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// StaffVerifier authenticates the operator's PIN.
type StaffVerifier interface {
	VerifyPIN(ctx context.Context, id int64, pin string) (*staff.Member, error)
}

// CheckoutRequest is the full cart-to-receipt payload.
type CheckoutRequest struct {
	StaffID int64  `json:"staff_id" validate:"required,gt=0"`
	PIN     string `json:"pin" validate:"required,len=4,numeric"`

	CustomerID *int64               `json:"customer_id"`
	Lines      []invoices.LineInput `json:"lines" validate:"required,min=1,dive"`

	DiscountType  string   `json:"discount_type" validate:"omitempty,oneof=FIXED PERCENTAGE"`
	DiscountMinor int64    `json:"discount_minor" validate:"gte=0"`
	DiscountPct   float64  `json:"discount_pct" validate:"gte=0,lte=100"`
	TaxRatePct    *float64 `json:"tax_rate_pct" validate:"omitempty,gte=0,lte=100"`
	TipMinor      int64    `json:"tip_minor" validate:"gte=0"`

	Method              string `json:"method" validate:"required,oneof=CASH CARD BANK_TRANSFER GIFT_CARD OTHER"`
	LoyaltyRequestMinor int64  `json:"loyalty_request_minor" validate:"gte=0"`
	PromoCode           string `json:"promo_code" validate:"omitempty,max=40"`
	GiftCardCode        string `json:"gift_card_code" validate:"omitempty,max=40"`
	Note                string `json:"note" validate:"max=500"`
}

// CheckoutResult is the settled document plus its payment.
type CheckoutResult struct {
	Invoice *invoices.Invoice `json:"invoice"`
	Payment *invoices.Payment `json:"payment"`
}

// Service runs checkouts.
type Service struct {
	invoices InvoiceService
	staff    StaffVerifier
	logger   *slog.Logger
}

// NewService wires the POS service.
func NewService(inv InvoiceService, verifier StaffVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: inv, staff: verifier, logger: logger}
}

// Checkout verifies the operator, drafts the invoice and settles it in full.
// Walk-in carts (no customer) never touch loyalty.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest, idemKey string) (*CheckoutResult, error) {
	operator, err := s.staff.VerifyPIN(ctx, req.StaffID, req.PIN)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoices.Create(ctx, invoices.CreateRequest{
		CustomerID:    req.CustomerID,
		Lines:         req.Lines,
		DiscountType:  req.DiscountType,
		DiscountMinor: req.DiscountMinor,
		DiscountPct:   req.DiscountPct,
		TaxRatePct:    req.TaxRatePct,
		TipMinor:      req.TipMinor,
		Notes:         req.Note,
	}, operator.ID)
	if err != nil {
		return nil, err
	}

	loyaltyRequest := req.LoyaltyRequestMinor
	if req.CustomerID == nil {
		loyaltyRequest = 0
	}
	payment, err := s.invoices.RecordPayment(ctx, inv.ID, invoices.RecordPaymentRequest{
		Method:              req.Method,
		LoyaltyRequestMinor: loyaltyRequest,
		PromoCode:           req.PromoCode,
		GiftCardCode:        req.GiftCardCode,
		Note:                req.Note,
	}, operator.ID, idemKey)
	if err != nil {
		// the draft stays behind for the front desk to retry or void
		s.logger.Warn("checkout settlement failed", "invoice_id", inv.ID, "error", err)
		return nil, err
	}

	settled, err := s.invoices.Get(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Invoice: settled, Payment: payment}, nil
}
