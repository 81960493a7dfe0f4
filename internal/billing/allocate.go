package billing

import (
	"fmt"

	"github.com/veloura-crm/veloura/internal/money"
)

// Allocate splits a balance due across loyalty redemption, a validated
// discount code and one remaining payment method, in that priority order.
//
// Loyalty is silently capped at min(request, points*pointValue,
// balanceDue*maxRedeemRate) rather than rejected; the redemption cap applies
// to the post-tax balance due. A valid promo amount is taken verbatim and
// stacks with loyalty. Whatever is left must be covered by the chosen
// method; a gift card must carry enough balance.
func Allocate(in AllocationInput) (PaymentAllocation, error) {
	if !in.BalanceDue.IsPositive() {
		return PaymentAllocation{}, ErrNothingToPay
	}
	zero := money.Zero(in.BalanceDue.Currency)

	loyalty := zero
	if in.LoyaltyRequest.IsPositive() && in.PointValue.IsPositive() && in.LoyaltyPoints > 0 {
		pointsWorth := in.PointValue.MulQty(in.LoyaltyPoints)
		redeemCap := in.BalanceDue.MulRate(in.MaxRedeemRate)
		loyalty = in.LoyaltyRequest.Min(pointsWorth).Min(redeemCap)
		if loyalty.IsNegative() {
			loyalty = zero
		}
	}

	discount := zero
	if in.Promo != nil {
		if !in.Promo.Valid {
			msg := in.Promo.Message
			if msg == "" {
				msg = in.Promo.Code
			}
			return PaymentAllocation{}, fmt.Errorf("%w: %s", ErrInvalidDiscountCode, msg)
		}
		discount = in.Promo.Amount
	}

	// Conservation: loyalty, then discount, shrink to fit so the three parts
	// sum to the balance due exactly.
	loyalty = loyalty.Min(in.BalanceDue)
	discount = discount.Clamp(zero, in.BalanceDue.Sub(loyalty))
	remaining := in.BalanceDue.Sub(loyalty).Sub(discount)

	if remaining.IsPositive() && in.Method == MethodGiftCard {
		if in.GiftCardCode == "" {
			return PaymentAllocation{}, ErrGiftCardCodeRequired
		}
		if in.GiftCardBalance.Currency == "" || in.GiftCardBalance.LessThan(remaining) {
			return PaymentAllocation{}, ErrInsufficientGiftCardBalance
		}
	}

	var pointsToDebit int64
	if loyalty.IsPositive() && in.PointValue.IsPositive() {
		pointsToDebit = ceilDiv(loyalty.Amount, in.PointValue.Amount)
	}

	return PaymentAllocation{
		LoyaltyAmount:   loyalty,
		DiscountAmount:  discount,
		RemainingAmount: remaining,
		Method:          in.Method,
		PointsToDebit:   pointsToDebit,
	}, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
