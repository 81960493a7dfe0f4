package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veloura-crm/veloura/internal/money"
)

type pgStore struct {
	pool     *pgxpool.Pool
	currency string
}

// NewStore constructs the PostgreSQL-backed aggregate store.
func NewStore(pool *pgxpool.Pool, currency string) Store {
	return &pgStore{pool: pool, currency: currency}
}

func (s *pgStore) RevenueSince(ctx context.Context, since time.Time) (money.Money, int64, error) {
	var (
		total int64
		count int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_paid_minor), 0), COUNT(*)
		FROM invoices
		WHERE status = 'PAID' AND updated_at >= $1`, since).Scan(&total, &count)
	if err != nil {
		return money.Money{}, 0, fmt.Errorf("revenue aggregate: %w", err)
	}
	return money.Money{Amount: total, Currency: s.currency}, count, nil
}

func (s *pgStore) OutstandingDue(ctx context.Context) (money.Money, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_minor - amount_paid_minor), 0)
		FROM invoices
		WHERE status IN ('SENT', 'PARTIALLY_PAID', 'OVERDUE')`).Scan(&total)
	if err != nil {
		return money.Money{}, fmt.Errorf("outstanding aggregate: %w", err)
	}
	return money.Money{Amount: total, Currency: s.currency}, nil
}

func (s *pgStore) GiftCardLiability(ctx context.Context) (money.Money, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(remaining_minor), 0)
		FROM gift_cards
		WHERE status = 'ACTIVE'`).Scan(&total)
	if err != nil {
		return money.Money{}, fmt.Errorf("gift card liability aggregate: %w", err)
	}
	return money.Money{Amount: total, Currency: s.currency}, nil
}

func (s *pgStore) LoyaltyPointsOutstanding(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(current_points), 0) FROM loyalty_accounts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("loyalty points aggregate: %w", err)
	}
	return total, nil
}
