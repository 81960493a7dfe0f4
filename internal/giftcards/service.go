package giftcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veloura-crm/veloura/internal/money"
	"github.com/veloura-crm/veloura/internal/shared"
)

// Service owns the gift card lifecycle.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
	now   func() time.Time
}

// NewService constructs the gift card service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// Issue creates and activates a new card. Code collisions are retried a few
// times before giving up.
func (s *Service) Issue(ctx context.Context, req IssueRequest, actorID int64) (*GiftCard, error) {
	value, err := money.New(req.ValueMinor, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("gift card value: %w", err)
	}

	card := GiftCard{
		InitialValue:   value,
		RemainingValue: value,
		Status:         StatusActive,
		CustomerID:     req.CustomerID,
		ExpiresAt:      req.ExpiresAt,
	}

	for attempt := 0; attempt < 3; attempt++ {
		card.Code = generateCode()
		id, err := s.repo.Create(ctx, card)
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("issue gift card: %w", err)
		}
		card.ID = id
		s.recordAudit(ctx, actorID, "giftcard.issue", card.Code, map[string]any{"value_minor": value.Amount})
		return &card, nil
	}
	return nil, fmt.Errorf("issue gift card: %w", ErrDuplicateCode)
}

// Check looks a card up by code for the payment and POS screens.
func (s *Service) Check(ctx context.Context, code string) (*GiftCard, error) {
	card, err := s.repo.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if card.Status == StatusActive && card.ExpiresAt != nil && card.ExpiresAt.Before(s.now()) {
		// Lazily reflect expiry before the scan job catches up.
		card.Status = StatusExpired
	}
	return card, nil
}

// Debit charges the card. The repository guard keeps the remaining value
// inside [0, initial] and freezes void/expired cards.
func (s *Service) Debit(ctx context.Context, code string, amount money.Money, actorID int64) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit amount: %w", money.ErrInvalidAmount)
	}
	code = normalizeCode(code)
	if err := s.repo.Debit(ctx, code, amount.Amount); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "giftcard.debit", code, map[string]any{"amount_minor": amount.Amount})
	return nil
}

// Void permanently disables a card, freezing its remaining value.
func (s *Service) Void(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusVoid); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "giftcard.void", fmt.Sprintf("%d", id), nil)
	return nil
}

// List returns cards for the admin screen.
func (s *Service) List(ctx context.Context, req ListRequest) ([]GiftCard, int, error) {
	return s.repo.List(ctx, req)
}

// ExpireDue marks past-dated active cards expired. Called by the worker.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	return s.repo.ExpirePast(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "gift_card",
		EntityID: entityID,
		Meta:     meta,
	})
}

// generateCode derives a human-readable card code from a fresh UUID,
// e.g. GC-9F2A41C7.
func generateCode() string {
	id := uuid.New()
	return "GC-" + strings.ToUpper(id.String()[:8])
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
