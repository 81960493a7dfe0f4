package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/money"
)

func programInput(balance money.Money) AllocationInput {
	return AllocationInput{
		BalanceDue:    balance,
		PointValue:    aed(10), // 1 point = 0.10 AED
		MaxRedeemRate: money.PercentRate(50),
		Method:        MethodCard,
	}
}

func TestAllocateLoyaltyBelowCap(t *testing.T) {
	// 150.00 due, 40.00 requested, cap is 75.00: request wins, 110.00 remains.
	in := programInput(aed(15000))
	in.LoyaltyRequest = aed(4000)
	in.LoyaltyPoints = 1000 // worth 100.00

	got, err := Allocate(in)
	require.NoError(t, err)
	require.EqualValues(t, 4000, got.LoyaltyAmount.Amount)
	require.EqualValues(t, 11000, got.RemainingAmount.Amount)
	require.EqualValues(t, 400, got.PointsToDebit)
}

func TestAllocateLoyaltyCappedByRedeemRate(t *testing.T) {
	in := programInput(aed(15000))
	in.LoyaltyRequest = aed(12000)
	in.LoyaltyPoints = 5000 // worth 500.00

	got, err := Allocate(in)
	require.NoError(t, err)
	// Silently reduced to 50% of the balance due, not rejected.
	require.EqualValues(t, 7500, got.LoyaltyAmount.Amount)
	require.EqualValues(t, 7500, got.RemainingAmount.Amount)
}

func TestAllocateLoyaltyCappedByPointBalance(t *testing.T) {
	in := programInput(aed(15000))
	in.LoyaltyRequest = aed(7000)
	in.LoyaltyPoints = 200 // worth only 20.00

	got, err := Allocate(in)
	require.NoError(t, err)
	require.EqualValues(t, 2000, got.LoyaltyAmount.Amount)
	require.EqualValues(t, 200, got.PointsToDebit)
}

func TestAllocateStacksPromoWithLoyalty(t *testing.T) {
	in := programInput(aed(20000))
	in.LoyaltyRequest = aed(5000)
	in.LoyaltyPoints = 1000
	in.Promo = &PromoResult{Code: "GLOW20", Valid: true, Amount: aed(2000)}

	got, err := Allocate(in)
	require.NoError(t, err)
	require.EqualValues(t, 5000, got.LoyaltyAmount.Amount)
	require.EqualValues(t, 2000, got.DiscountAmount.Amount)
	require.EqualValues(t, 13000, got.RemainingAmount.Amount)
}

func TestAllocateConservation(t *testing.T) {
	cases := []AllocationInput{
		func() AllocationInput {
			in := programInput(aed(9999))
			in.LoyaltyRequest = aed(3333)
			in.LoyaltyPoints = 10000
			return in
		}(),
		func() AllocationInput {
			in := programInput(aed(101))
			in.LoyaltyRequest = aed(100)
			in.LoyaltyPoints = 3
			in.Promo = &PromoResult{Valid: true, Amount: aed(90)}
			return in
		}(),
		func() AllocationInput {
			in := programInput(aed(500))
			in.Promo = &PromoResult{Valid: true, Amount: aed(700)}
			return in
		}(),
	}
	for _, in := range cases {
		got, err := Allocate(in)
		require.NoError(t, err)
		sum := got.LoyaltyAmount.Add(got.DiscountAmount).Add(got.RemainingAmount)
		require.True(t, sum.Equal(in.BalanceDue), "allocation must conserve the balance due")
		require.True(t, got.TotalApplied().Equal(in.BalanceDue))
	}
}

func TestAllocateFullyCoveredNeedsNoMethod(t *testing.T) {
	in := programInput(aed(3000))
	in.LoyaltyRequest = aed(3000)
	in.LoyaltyPoints = 10000
	in.MaxRedeemRate = money.PercentRate(100)
	in.Method = MethodGiftCard // selected but unused, no code supplied

	got, err := Allocate(in)
	require.NoError(t, err)
	require.True(t, got.RemainingAmount.IsZero())
	require.EqualValues(t, 3000, got.LoyaltyAmount.Amount)
}

func TestAllocateGiftCardFailures(t *testing.T) {
	in := programInput(aed(5000))
	in.Method = MethodGiftCard

	_, err := Allocate(in)
	require.ErrorIs(t, err, ErrGiftCardCodeRequired)

	in.GiftCardCode = "GC-AB12CD34"
	in.GiftCardBalance = aed(4000)
	_, err = Allocate(in)
	require.ErrorIs(t, err, ErrInsufficientGiftCardBalance)

	in.GiftCardBalance = aed(5000)
	got, err := Allocate(in)
	require.NoError(t, err)
	require.EqualValues(t, 5000, got.RemainingAmount.Amount)
}

func TestAllocateRejectsNothingToPay(t *testing.T) {
	_, err := Allocate(programInput(aed(0)))
	require.ErrorIs(t, err, ErrNothingToPay)

	_, err = Allocate(programInput(aed(-100)))
	require.ErrorIs(t, err, ErrNothingToPay)
}

func TestAllocatePropagatesInvalidPromo(t *testing.T) {
	in := programInput(aed(5000))
	in.Promo = &PromoResult{Code: "EXPIRED1", Valid: false, Message: "code expired"}

	_, err := Allocate(in)
	require.ErrorIs(t, err, ErrInvalidDiscountCode)
	require.Contains(t, err.Error(), "code expired")
}

func TestAllocatePointsDebitRoundsUp(t *testing.T) {
	in := programInput(aed(10000))
	in.PointValue = aed(33) // 1 point = 0.33
	in.LoyaltyRequest = aed(100)
	in.LoyaltyPoints = 50

	got, err := Allocate(in)
	require.NoError(t, err)
	require.EqualValues(t, 100, got.LoyaltyAmount.Amount)
	// ceil(100/33) = 4 points
	require.EqualValues(t, 4, got.PointsToDebit)
}
