package invoices

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/billing"
	"github.com/veloura-crm/veloura/internal/giftcards"
	"github.com/veloura-crm/veloura/internal/loyalty"
	"github.com/veloura-crm/veloura/internal/money"
	"github.com/veloura-crm/veloura/internal/shared"
)

// Promos validates and redeems discount codes.
type Promos interface {
	Validate(ctx context.Context, code string) (billing.PromoResult, error)
	Redeem(ctx context.Context, code string) error
}

// GiftCards looks up and debits stored-value cards.
type GiftCards interface {
	Check(ctx context.Context, code string) (*giftcards.GiftCard, error)
	Debit(ctx context.Context, code string, amount money.Money, actorID int64) error
}

// LoyaltyEngine supplies program facts and moves points.
type LoyaltyEngine interface {
	GetSettings(ctx context.Context) (*loyalty.Settings, error)
	Account(ctx context.Context, customerID int64) (*loyalty.AccountView, error)
	Redeem(ctx context.Context, customerID, points int64, note string) error
	EarnOnSale(ctx context.Context, customerID int64, spend money.Money, note string) (int64, error)
}

// ReceiptEnqueuer schedules the post-payment receipt email.
type ReceiptEnqueuer interface {
	EnqueueReceipt(ctx context.Context, invoiceID int64) error
}

// ServiceConfig wires the invoice service collaborators.
type ServiceConfig struct {
	Repo        Repository
	Promos      Promos
	GiftCards   GiftCards
	Loyalty     LoyaltyEngine
	Idempotency *shared.IdempotencyStore
	Audit       *shared.AuditLogger
	Receipts    ReceiptEnqueuer
	Currency    string
	TaxRate     decimal.Decimal
	DueDays     int
	Logger      *slog.Logger
}

// Service owns the invoice lifecycle.
type Service struct {
	cfg ServiceConfig
}

// NewService constructs the invoice service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = 14
	}
	return &Service{cfg: cfg}
}

// Create drafts an invoice from cart lines, pricing it through the
// aggregator and composer.
func (s *Service) Create(ctx context.Context, req CreateRequest, actorID int64) (*Invoice, error) {
	cur := s.cfg.Currency
	items := make([]billing.LineItem, len(req.Lines))
	for i, l := range req.Lines {
		items[i] = billing.LineItem{
			Name:      strings.TrimSpace(l.Name),
			UnitPrice: money.Money{Amount: l.UnitPriceMinor, Currency: cur},
			Quantity:  l.Quantity,
			Discount:  money.Money{Amount: l.DiscountMinor, Currency: cur},
		}
	}
	subtotal, err := billing.Subtotal(items)
	if err != nil {
		return nil, err
	}

	disc := billing.Discount{Type: billing.DiscountTypeFixed, Amount: money.Zero(cur)}
	switch req.DiscountType {
	case string(billing.DiscountTypeFixed):
		disc.Amount = money.Money{Amount: req.DiscountMinor, Currency: cur}
	case string(billing.DiscountTypePercentage):
		disc = billing.Discount{Type: billing.DiscountTypePercentage, Rate: money.PercentRate(req.DiscountPct)}
	}

	taxRate := s.cfg.TaxRate
	if req.TaxRatePct != nil {
		taxRate = money.PercentRate(*req.TaxRatePct)
	}
	breakdown, err := billing.Compose(subtotal, disc, taxRate, money.Money{Amount: req.TipMinor, Currency: cur})
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		CustomerID: req.CustomerID,
		Status:     StatusDraft,
		Currency:   cur,
		Subtotal:   breakdown.Subtotal,
		Discount:   breakdown.Discount,
		TaxRate:    taxRate,
		Tax:        breakdown.Tax,
		Tip:        breakdown.Tip,
		Total:      breakdown.Total,
		AmountPaid: money.Zero(cur),
		Notes:      strings.TrimSpace(req.Notes),
		CreatedBy:  actorID,
	}
	for _, item := range items {
		lineTotal := item.UnitPrice.MulQty(item.Quantity).Sub(item.Discount).Clamp(money.Zero(cur), item.UnitPrice.MulQty(item.Quantity))
		inv.Lines = append(inv.Lines, Line{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
			LineTotal: lineTotal,
		})
	}
	if err := s.cfg.Repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.cfg.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]Invoice, int, error) {
	return s.cfg.Repo.List(ctx, filter, page)
}

func (s *Service) Payments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return s.cfg.Repo.ListPayments(ctx, invoiceID)
}

// Send marks a draft as issued and stamps the due date.
func (s *Service) Send(ctx context.Context, id int64) (*Invoice, error) {
	due := time.Now().UTC().AddDate(0, 0, s.cfg.DueDays)
	err := s.cfg.Repo.SetStatus(ctx, id, StatusSent, []Status{StatusDraft}, &due)
	if err != nil {
		return nil, err
	}
	return s.cfg.Repo.GetByID(ctx, id)
}

// Void cancels an unpaid invoice. Paid documents stay immutable.
func (s *Service) Void(ctx context.Context, id int64, actorID int64) error {
	err := s.cfg.Repo.SetStatus(ctx, id, StatusVoid, []Status{StatusDraft, StatusSent, StatusOverdue}, nil)
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "invoice.void", id, nil)
	return nil
}

// RecordPayment settles part or all of an invoice's balance. The split
// across loyalty, promo and the tender method comes from the allocator;
// this method owns the side effects and the status transition.
func (s *Service) RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest, actorID int64, idemKey string) (*Payment, error) {
	if idemKey != "" && s.cfg.Idempotency != nil {
		if err := s.cfg.Idempotency.CheckAndInsert(ctx, idemKey, "invoices"); err != nil {
			return nil, err
		}
	}
	p, err := s.recordPayment(ctx, id, req, actorID)
	if err != nil && idemKey != "" && s.cfg.Idempotency != nil {
		// a failed attempt must not poison the retry
		if delErr := s.cfg.Idempotency.Delete(ctx, idemKey); delErr != nil {
			s.cfg.Logger.Warn("idempotency key release failed", "key", idemKey, "error", delErr)
		}
	}
	return p, err
}

func (s *Service) recordPayment(ctx context.Context, id int64, req RecordPaymentRequest, actorID int64) (*Payment, error) {
	inv, err := s.cfg.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Payable() {
		return nil, ErrNotPayable
	}
	balance := inv.BalanceDue()
	if !balance.IsPositive() {
		return nil, billing.ErrNothingToPay
	}

	target := balance
	if req.AmountMinor > 0 && req.AmountMinor < balance.Amount {
		target = money.Money{Amount: req.AmountMinor, Currency: inv.Currency}
	}

	in := billing.AllocationInput{
		BalanceDue: target,
		Method:     billing.PaymentMethod(req.Method),
		PointValue: money.Money{Amount: 1, Currency: inv.Currency},
	}

	if req.LoyaltyRequestMinor > 0 && inv.CustomerID != nil {
		settings, err := s.cfg.Loyalty.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		view, err := s.cfg.Loyalty.Account(ctx, *inv.CustomerID)
		if err != nil {
			return nil, err
		}
		in.LoyaltyRequest = money.Money{Amount: req.LoyaltyRequestMinor, Currency: inv.Currency}
		in.LoyaltyPoints = view.Account.CurrentPoints
		in.PointValue = settings.PointValue
		in.MaxRedeemRate = settings.MaxRedeemRate
	}

	if req.PromoCode != "" {
		result, err := s.cfg.Promos.Validate(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		in.Promo = &result
	}

	if in.Method == billing.MethodGiftCard {
		in.GiftCardCode = strings.TrimSpace(req.GiftCardCode)
		if in.GiftCardCode != "" {
			card, err := s.cfg.GiftCards.Check(ctx, in.GiftCardCode)
			if err != nil {
				return nil, err
			}
			if card.Usable() {
				in.GiftCardBalance = card.RemainingValue
			} else {
				in.GiftCardBalance = money.Zero(inv.Currency)
			}
		}
	}

	alloc, err := billing.Allocate(in)
	if err != nil {
		return nil, err
	}

	// side effects first, each guarded at its own store; the payment row
	// lands only after every funding source has actually been debited
	if alloc.Method == billing.MethodGiftCard && alloc.RemainingAmount.IsPositive() {
		if err := s.cfg.GiftCards.Debit(ctx, in.GiftCardCode, alloc.RemainingAmount, actorID); err != nil {
			return nil, err
		}
	}
	if alloc.PointsToDebit > 0 && inv.CustomerID != nil {
		if err := s.cfg.Loyalty.Redeem(ctx, *inv.CustomerID, alloc.PointsToDebit, "payment "+inv.Number); err != nil {
			return nil, err
		}
	}

	applied := alloc.TotalApplied()
	newPaid := inv.AmountPaid.Add(applied)
	newStatus := StatusPartiallyPaid
	if newPaid.GreaterThanOrEqual(inv.Total) {
		newStatus = StatusPaid
	}
	payment := &Payment{
		InvoiceID:     inv.ID,
		Method:        alloc.Method,
		Amount:        alloc.RemainingAmount,
		LoyaltyAmount: alloc.LoyaltyAmount,
		PromoAmount:   alloc.DiscountAmount,
		GiftCardCode:  in.GiftCardCode,
		Note:          strings.TrimSpace(req.Note),
		CreatedBy:     actorID,
	}
	if in.Promo != nil {
		payment.PromoCode = in.Promo.Code
	}
	if err := s.cfg.Repo.ApplyPayment(ctx, payment, newPaid, newStatus); err != nil {
		return nil, err
	}

	if in.Promo != nil && alloc.DiscountAmount.IsPositive() {
		if err := s.cfg.Promos.Redeem(ctx, in.Promo.Code); err != nil {
			s.cfg.Logger.Warn("promo redemption count failed", "code", in.Promo.Code, "error", err)
		}
	}
	// points accrue on money the customer actually handed over, not on
	// the portions covered by points or promo
	if inv.CustomerID != nil && alloc.RemainingAmount.IsPositive() {
		if _, err := s.cfg.Loyalty.EarnOnSale(ctx, *inv.CustomerID, alloc.RemainingAmount, "invoice "+inv.Number); err != nil {
			s.cfg.Logger.Warn("loyalty earn failed", "invoice", inv.Number, "error", err)
		}
	}

	s.recordAudit(ctx, actorID, "invoice.payment", inv.ID, map[string]any{
		"method":        string(alloc.Method),
		"amount_minor":  alloc.RemainingAmount.Amount,
		"loyalty_minor": alloc.LoyaltyAmount.Amount,
		"promo_minor":   alloc.DiscountAmount.Amount,
		"status":        string(newStatus),
	})
	if s.cfg.Receipts != nil {
		if err := s.cfg.Receipts.EnqueueReceipt(ctx, inv.ID); err != nil {
			s.cfg.Logger.Warn("receipt enqueue failed", "invoice", inv.Number, "error", err)
		}
	}
	return payment, nil
}

// MarkOverdue flips past-due documents; the worker calls this on a schedule.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.cfg.Repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cfg.Logger.Info("invoices marked overdue", "count", n)
	}
	return n, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, invoiceID int64, meta map[string]any) {
	if s.cfg.Audit == nil {
		return
	}
	err := s.cfg.Audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.cfg.Logger.Warn("audit record failed", "action", action, "error", err)
	}
}
