package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/veloura-crm/veloura/internal/money"
	"github.com/veloura-crm/veloura/internal/platform/httpx"
	"github.com/veloura-crm/veloura/internal/shared"
)

var ErrInvalidPoints = errors.New("points must be positive")

// Service exposes the loyalty program operations.
type Service struct {
	repo            Repository
	cache           *SettingsCache
	audit           *shared.AuditLogger
	defaultCurrency string
	logger          *slog.Logger
}

// NewService wires the loyalty service.
func NewService(repo Repository, cache *SettingsCache, audit *shared.AuditLogger, defaultCurrency string, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, defaultCurrency: defaultCurrency, logger: logger}
}

// GetSettings returns program rules, serving from cache when possible.
// A fresh install with no stored row gets the defaults.
func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	return s.cache.Fetch(ctx, func(ctx context.Context) (*Settings, error) {
		stored, err := s.repo.GetSettings(ctx)
		if errors.Is(err, ErrSettingsNotFound) {
			def := DefaultSettings(s.defaultCurrency)
			return &def, nil
		}
		return stored, err
	})
}

// UpdateSettings validates, persists and invalidates the cached copy.
func (s *Service) UpdateSettings(ctx context.Context, next Settings, actorID int64) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		return err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("loyalty settings cache bump failed", "error", err)
	}
	s.recordAudit(ctx, actorID, "loyalty.settings.update", "1", nil)
	return nil
}

// AccountView bundles an account with its tier ladder position.
type AccountView struct {
	Account  Account  `json:"account"`
	Progress Progress `json:"progress"`
}

// Account returns the customer's account and progress, creating the account
// on first sight.
func (s *Service) Account(ctx context.Context, customerID int64) (*AccountView, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	acct, err := s.ensureAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &AccountView{Account: *acct, Progress: settings.Tiers.ProgressFor(acct.TotalEarned)}, nil
}

// Transactions lists recent ledger entries for a customer.
func (s *Service) Transactions(ctx context.Context, customerID int64, limit int) ([]Transaction, error) {
	acct, err := s.repo.GetAccountByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, acct.ID, limit)
}

// EarnOnSale credits points for a completed sale. The tier multiplier in
// force when the sale lands is the one that applies; a crossing into a new
// tier takes effect from the next sale.
func (s *Service) EarnOnSale(ctx context.Context, customerID int64, spend money.Money, note string) (int64, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	acct, err := s.ensureAccount(ctx, customerID)
	if err != nil {
		return 0, err
	}
	pts := PointsEarned(spend, *settings, acct.Tier)
	if pts == 0 {
		return 0, nil
	}
	tier := settings.Tiers.TierFor(acct.TotalEarned + pts)
	updated, err := s.repo.ApplyDelta(ctx, acct.ID, pts, pts, 0, tier)
	if err != nil {
		return 0, err
	}
	if err := s.repo.InsertTransaction(ctx, &Transaction{AccountID: acct.ID, Type: TxnEarn, Points: pts, Note: note}); err != nil {
		return 0, err
	}
	if updated.Tier != acct.Tier {
		s.logger.Info("loyalty tier change", "customer_id", customerID, "from", acct.Tier, "to", updated.Tier)
	}
	return pts, nil
}

// Bonus credits a flat amount outside the earn formula. Welcome, birthday
// and referral grants use this; tier multipliers do not apply. Bonus points
// still count toward tier progression.
func (s *Service) Bonus(ctx context.Context, customerID, points int64, note string, actorID int64) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	acct, err := s.ensureAccount(ctx, customerID)
	if err != nil {
		return err
	}
	tier := settings.Tiers.TierFor(acct.TotalEarned + points)
	if _, err := s.repo.ApplyDelta(ctx, acct.ID, points, points, 0, tier); err != nil {
		return err
	}
	if err := s.repo.InsertTransaction(ctx, &Transaction{AccountID: acct.ID, Type: TxnBonus, Points: points, Note: note}); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "loyalty.bonus", strconv.FormatInt(customerID, 10), map[string]any{"points": points, "note": note})
	return nil
}

// Redeem debits points against a payment. The balance guard lives in the
// repository; callers see ErrInsufficientPoints when the debit would
// overdraw. Redemption never touches total_earned, so tiers are unaffected.
func (s *Service) Redeem(ctx context.Context, customerID, points int64, note string) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	acct, err := s.repo.GetAccountByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if _, err := s.repo.ApplyDelta(ctx, acct.ID, -points, 0, points, acct.Tier); err != nil {
		return err
	}
	return s.repo.InsertTransaction(ctx, &Transaction{AccountID: acct.ID, Type: TxnRedeem, Points: -points, Note: note})
}

// Adjust applies a signed manual correction. Negative adjustments are
// bounded by the current balance. Tier derives from lifetime earned points,
// so only positive corrections can move it, and only upward.
func (s *Service) Adjust(ctx context.Context, customerID, points int64, note string, actorID int64) error {
	if points == 0 {
		return ErrInvalidPoints
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	acct, err := s.ensureAccount(ctx, customerID)
	if err != nil {
		return err
	}
	var deltaEarned int64
	if points > 0 {
		deltaEarned = points
	}
	tier := settings.Tiers.TierFor(acct.TotalEarned + deltaEarned)
	if _, err := s.repo.ApplyDelta(ctx, acct.ID, points, deltaEarned, 0, tier); err != nil {
		return err
	}
	if err := s.repo.InsertTransaction(ctx, &Transaction{AccountID: acct.ID, Type: TxnAdjust, Points: points, Note: note}); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "loyalty.adjust", strconv.FormatInt(customerID, 10), map[string]any{"points": points, "note": note})
	return nil
}

func (s *Service) ensureAccount(ctx context.Context, customerID int64) (*Account, error) {
	acct, err := s.repo.GetAccountByCustomer(ctx, customerID)
	if errors.Is(err, ErrAccountNotFound) {
		return s.repo.CreateAccount(ctx, customerID)
	}
	return acct, err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "loyalty", EntityID: entityID, Meta: meta}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
