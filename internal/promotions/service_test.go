package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

type memoryRepo struct {
	promos map[string]*Promo
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{promos: make(map[string]*Promo)}
}

func (r *memoryRepo) Create(ctx context.Context, p Promo) (int64, error) {
	if _, ok := r.promos[p.Code]; ok {
		return 0, ErrDuplicateCode
	}
	r.nextID++
	p.ID = r.nextID
	r.promos[p.Code] = &p
	return p.ID, nil
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (*Promo, error) {
	p, ok := r.promos[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListPromosRequest) ([]Promo, int, error) {
	out := []Promo{}
	for _, p := range r.promos {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	for _, p := range r.promos {
		if p.ID == id {
			p.Active = active
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) IncrementUse(ctx context.Context, code string) error {
	p, ok := r.promos[code]
	if !ok || !p.Active || (p.MaxUses > 0 && p.UsedCount >= p.MaxUses) {
		return ErrExhausted
	}
	p.UsedCount++
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo)
	return svc, repo
}

func TestValidateHappyPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePromoRequest{Code: "glow20", AmountMinor: 2000, Currency: "AED", MaxUses: 2})
	require.NoError(t, err)

	result, err := svc.Validate(ctx, " glow20 ")
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "GLOW20", result.Code)
	require.True(t, result.Amount.Equal(money.Money{Amount: 2000, Currency: "AED"}))
}

func TestValidateUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Validate(context.Background(), "NOPE1234")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Message, "unknown")
}

func TestValidateExpiredAndExhausted(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(ctx, CreatePromoRequest{Code: "old10", AmountMinor: 1000, Currency: "AED", ExpiresAt: &past})
	require.NoError(t, err)

	result, err := svc.Validate(ctx, "OLD10")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Message, "expired")

	_, err = svc.Create(ctx, CreatePromoRequest{Code: "once5", AmountMinor: 500, Currency: "AED", MaxUses: 1})
	require.NoError(t, err)
	repo.promos["ONCE5"].UsedCount = 1

	result, err = svc.Validate(ctx, "once5")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Message, "fully redeemed")
}

func TestRedeemGuardsMaxUses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePromoRequest{Code: "twice10", AmountMinor: 1000, Currency: "AED", MaxUses: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, "TWICE10"))
	require.NoError(t, svc.Redeem(ctx, "TWICE10"))
	require.ErrorIs(t, svc.Redeem(ctx, "TWICE10"), ErrExhausted)
}

func TestDeactivateStopsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	promo, err := svc.Create(ctx, CreatePromoRequest{Code: "bye15", AmountMinor: 1500, Currency: "AED"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, promo.ID))

	result, err := svc.Validate(ctx, "BYE15")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Contains(t, result.Message, "no longer active")
}
