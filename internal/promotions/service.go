package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veloura-crm/veloura/internal/billing"
	"github.com/veloura-crm/veloura/internal/money"
)

// Service owns promo code lifecycle and validation.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the promotions service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create registers a new discount code.
func (s *Service) Create(ctx context.Context, req CreatePromoRequest) (*Promo, error) {
	amount, err := money.New(req.AmountMinor, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("promo amount: %w", err)
	}
	promo := Promo{
		Code:        normalizeCode(req.Code),
		Amount:      amount,
		Description: req.Description,
		MaxUses:     req.MaxUses,
		ExpiresAt:   req.ExpiresAt,
		Active:      true,
	}
	id, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, fmt.Errorf("create promo: %w", err)
	}
	promo.ID = id
	return &promo, nil
}

// Validate resolves a code into the opaque result the tender allocator
// consumes. Unknown, inactive, expired and exhausted codes come back with
// Valid=false and a human message; only storage failures return an error.
func (s *Service) Validate(ctx context.Context, code string) (billing.PromoResult, error) {
	code = normalizeCode(code)
	result := billing.PromoResult{Code: code}

	promo, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			result.Message = "unknown discount code"
			return result, nil
		}
		return result, fmt.Errorf("lookup promo: %w", err)
	}

	switch {
	case !promo.Active:
		result.Message = "discount code is no longer active"
	case promo.ExpiresAt != nil && promo.ExpiresAt.Before(s.now()):
		result.Message = "discount code expired"
	case promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses:
		result.Message = "discount code fully redeemed"
	default:
		result.Valid = true
		result.Amount = promo.Amount
	}
	return result, nil
}

// Redeem records one activation of a validated code.
func (s *Service) Redeem(ctx context.Context, code string) error {
	if err := s.repo.IncrementUse(ctx, normalizeCode(code)); err != nil {
		return fmt.Errorf("redeem promo: %w", err)
	}
	return nil
}

// List returns promos for the admin screen.
func (s *Service) List(ctx context.Context, req ListPromosRequest) ([]Promo, int, error) {
	return s.repo.List(ctx, req)
}

// Deactivate turns a code off without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
