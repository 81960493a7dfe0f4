// Package reports serves the read-only dashboard aggregates.
package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veloura-crm/veloura/internal/money"
)

// Summary is the dashboard payload.
type Summary struct {
	RevenueMonth      money.Money `json:"revenue_month"`
	OutstandingDue    money.Money `json:"outstanding_due"`
	GiftCardLiability money.Money `json:"gift_card_liability"`
	LoyaltyPointsOut  int64       `json:"loyalty_points_outstanding"`
	InvoicesPaidMonth int64       `json:"invoices_paid_month"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// Store supplies the individual aggregates. Each method maps to one SQL
// query so the service can fan them out concurrently.
type Store interface {
	RevenueSince(ctx context.Context, since time.Time) (money.Money, int64, error)
	OutstandingDue(ctx context.Context) (money.Money, error)
	GiftCardLiability(ctx context.Context) (money.Money, error)
	LoyaltyPointsOutstanding(ctx context.Context) (int64, error)
}

// Service assembles the dashboard.
type Service struct {
	store Store
}

// NewService wires the reports service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Dashboard fans the aggregates out concurrently and fails fast on the
// first error.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*Summary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary := &Summary{GeneratedAt: now.UTC()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		revenue, count, err := s.store.RevenueSince(ctx, monthStart)
		if err != nil {
			return err
		}
		summary.RevenueMonth = revenue
		summary.InvoicesPaidMonth = count
		return nil
	})
	g.Go(func() error {
		due, err := s.store.OutstandingDue(ctx)
		if err != nil {
			return err
		}
		summary.OutstandingDue = due
		return nil
	})
	g.Go(func() error {
		liability, err := s.store.GiftCardLiability(ctx)
		if err != nil {
			return err
		}
		summary.GiftCardLiability = liability
		return nil
	})
	g.Go(func() error {
		points, err := s.store.LoyaltyPointsOutstanding(ctx)
		if err != nil {
			return err
		}
		summary.LoyaltyPointsOut = points
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
