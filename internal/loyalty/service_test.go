package loyalty

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

type memoryRepo struct {
	accounts map[int64]*Account
	txns     []Transaction
	settings *Settings
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[int64]*Account{}}
}

func (m *memoryRepo) GetAccountByCustomer(_ context.Context, customerID int64) (*Account, error) {
	for _, a := range m.accounts {
		if a.CustomerID == customerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memoryRepo) CreateAccount(_ context.Context, customerID int64) (*Account, error) {
	m.nextID++
	a := &Account{ID: m.nextID, CustomerID: customerID, Tier: TierBronze, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) ApplyDelta(_ context.Context, accountID, deltaPoints, deltaEarned, deltaRedeemed int64, tier Tier) (*Account, error) {
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if a.CurrentPoints+deltaPoints < 0 {
		return nil, ErrInsufficientPoints
	}
	a.CurrentPoints += deltaPoints
	a.TotalEarned += deltaEarned
	a.TotalRedeemed += deltaRedeemed
	a.Tier = tier
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) InsertTransaction(_ context.Context, txn *Transaction) error {
	txn.ID = int64(len(m.txns) + 1)
	txn.CreatedAt = time.Now()
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *memoryRepo) ListTransactions(_ context.Context, accountID int64, _ int) ([]Transaction, error) {
	var out []Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].AccountID == accountID {
			out = append(out, m.txns[i])
		}
	}
	return out, nil
}

func (m *memoryRepo) GetSettings(_ context.Context) (*Settings, error) {
	if m.settings == nil {
		return nil, ErrSettingsNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *memoryRepo) SaveSettings(_ context.Context, s Settings) error {
	m.settings = &s
	return nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return NewService(repo, nil, nil, "AED", slog.Default())
}

func TestEarnOnSaleUsesTierAtTimeOfSale(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	// 1500.00 at 1 pt/AED on Bronze: 1500 points
	pts, err := svc.EarnOnSale(ctx, 7, money.Money{Amount: 150000, Currency: "AED"}, "visit")
	require.NoError(t, err)
	require.Equal(t, int64(1500), pts)

	// second identical sale crosses into Silver, still earned at Bronze 1x
	pts, err = svc.EarnOnSale(ctx, 7, money.Money{Amount: 150000, Currency: "AED"}, "visit")
	require.NoError(t, err)
	require.Equal(t, int64(1500), pts)

	view, err := svc.Account(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, TierSilver, view.Account.Tier)
	require.Equal(t, int64(3000), view.Account.CurrentPoints)

	// third sale lands on Silver and earns at 1.25x
	pts, err = svc.EarnOnSale(ctx, 7, money.Money{Amount: 150000, Currency: "AED"}, "visit")
	require.NoError(t, err)
	require.Equal(t, int64(1875), pts)
}

func TestEarnOnSaleBelowMinimumSpend(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)

	pts, err := svc.EarnOnSale(context.Background(), 7, money.Money{Amount: 500, Currency: "AED"}, "tiny sale")
	require.NoError(t, err)
	require.Zero(t, pts)
	require.Empty(t, repo.txns)
}

func TestRedeemGuardsBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.EarnOnSale(ctx, 9, money.Money{Amount: 10000, Currency: "AED"}, "visit")
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, 9, 60, "payment"))
	err = svc.Redeem(ctx, 9, 100, "payment")
	require.ErrorIs(t, err, ErrInsufficientPoints)

	view, err := svc.Account(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, int64(40), view.Account.CurrentPoints)
	require.Equal(t, int64(60), view.Account.TotalRedeemed)
	// redemption never erodes tier progress
	require.Equal(t, int64(100), view.Account.TotalEarned)
}

func TestBonusIsFlatAndCountsTowardTier(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.Bonus(ctx, 3, 2000, "welcome", 1))

	view, err := svc.Account(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, int64(2000), view.Account.CurrentPoints)
	require.Equal(t, TierSilver, view.Account.Tier)

	require.ErrorIs(t, svc.Bonus(ctx, 3, 0, "noop", 1), ErrInvalidPoints)
	require.ErrorIs(t, svc.Bonus(ctx, 3, -5, "claw back", 1), ErrInvalidPoints)
}

func TestAdjustNegativeBoundedByBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.Bonus(ctx, 4, 300, "welcome", 1))
	require.NoError(t, svc.Adjust(ctx, 4, -200, "correction", 1))
	require.ErrorIs(t, svc.Adjust(ctx, 4, -500, "overdraw", 1), ErrInsufficientPoints)

	view, err := svc.Account(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, int64(100), view.Account.CurrentPoints)
	// downward corrections leave lifetime earned alone, so the tier holds
	require.Equal(t, int64(300), view.Account.TotalEarned)
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)

	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	require.True(t, settings.EarnRate.Equal(decimal.NewFromInt(1)))
	require.Equal(t, "AED", settings.PointValue.Currency)
	require.NoError(t, settings.Validate())
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)

	bad := DefaultSettings("AED")
	bad.MaxRedeemRate = decimal.NewFromInt(2)
	require.Error(t, svc.UpdateSettings(context.Background(), bad, 1))
	require.Nil(t, repo.settings)
}

func TestSettingsCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewSettingsCache(client, time.Minute)
	ctx := context.Background()

	var loads atomic.Int64
	loader := func(context.Context) (*Settings, error) {
		loads.Add(1)
		s := DefaultSettings("AED")
		return &s, nil
	}

	first, err := cache.Fetch(ctx, loader)
	require.NoError(t, err)
	second, err := cache.Fetch(ctx, loader)
	require.NoError(t, err)
	require.Equal(t, int64(1), loads.Load())
	require.True(t, first.EarnRate.Equal(second.EarnRate))
	require.Equal(t, first.PointValue, second.PointValue)

	require.NoError(t, cache.Bump(ctx))
	_, err = cache.Fetch(ctx, loader)
	require.NoError(t, err)
	require.Equal(t, int64(2), loads.Load())
}
