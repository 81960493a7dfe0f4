package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/money"
)

// PointsEarned computes points for a sale under the program rules. Sales
// below the minimum spend earn nothing, not a prorated share. The tier
// multiplier applies before the final floor so customers never see
// fractional points.
func PointsEarned(spend money.Money, s Settings, tier Tier) int64 {
	if spend.Amount < s.MinSpend.Amount {
		return 0
	}
	major := decimal.New(spend.Amount, -2)
	pts := major.Mul(s.EarnRate).Mul(s.Tiers.MultiplierFor(tier))
	return pts.Floor().IntPart()
}
