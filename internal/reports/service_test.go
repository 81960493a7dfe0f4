package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

type fakeStore struct {
	revenue   money.Money
	paidCount int64
	due       money.Money
	liability money.Money
	points    int64
	err       error

	sinceSeen time.Time
}

func (f *fakeStore) RevenueSince(_ context.Context, since time.Time) (money.Money, int64, error) {
	f.sinceSeen = since
	return f.revenue, f.paidCount, f.err
}

func (f *fakeStore) OutstandingDue(context.Context) (money.Money, error) {
	return f.due, f.err
}

func (f *fakeStore) GiftCardLiability(context.Context) (money.Money, error) {
	return f.liability, f.err
}

func (f *fakeStore) LoyaltyPointsOutstanding(context.Context) (int64, error) {
	return f.points, f.err
}

func TestDashboardAssemblesAggregates(t *testing.T) {
	store := &fakeStore{
		revenue:   money.Money{Amount: 1250000, Currency: "AED"},
		paidCount: 42,
		due:       money.Money{Amount: 300000, Currency: "AED"},
		liability: money.Money{Amount: 95000, Currency: "AED"},
		points:    120500,
	}
	svc := NewService(store)

	now := time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)
	summary, err := svc.Dashboard(context.Background(), now)
	require.NoError(t, err)

	require.Equal(t, store.revenue, summary.RevenueMonth)
	require.Equal(t, int64(42), summary.InvoicesPaidMonth)
	require.Equal(t, store.due, summary.OutstandingDue)
	require.Equal(t, store.liability, summary.GiftCardLiability)
	require.Equal(t, int64(120500), summary.LoyaltyPointsOut)
	require.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), store.sinceSeen)
}

func TestDashboardFailsFast(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewService(store)

	_, err := svc.Dashboard(context.Background(), time.Now())
	require.Error(t, err)
}
