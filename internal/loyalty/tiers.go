package loyalty

import "github.com/shopspring/decimal"

// TierFor returns the highest tier whose threshold totalEarned meets.
// Tiers never regress: the input is lifetime earned points, not balance.
func (tt TierTable) TierFor(totalEarned int64) Tier {
	tier := tt[0].Tier
	for _, th := range tt {
		if totalEarned >= th.MinPoints {
			tier = th.Tier
		}
	}
	return tier
}

// MultiplierFor returns the earn multiplier for the given tier, falling back
// to 1 for unknown tiers.
func (tt TierTable) MultiplierFor(tier Tier) decimal.Decimal {
	for _, th := range tt {
		if th.Tier == tier {
			return th.Multiplier
		}
	}
	return decimal.NewFromInt(1)
}

// ProgressFor computes ladder position for a lifetime earned total. At the
// top tier progress saturates at 100% with no next tier.
func (tt TierTable) ProgressFor(totalEarned int64) Progress {
	current := tt.TierFor(totalEarned)
	idx := -1
	for i, th := range tt {
		if th.Tier == current {
			idx = i
		}
	}
	if idx == len(tt)-1 {
		return Progress{CurrentTier: current, ProgressPct: 100}
	}
	floor := tt[idx].MinPoints
	next := tt[idx+1]
	span := next.MinPoints - floor
	pct := float64(totalEarned-floor) / float64(span) * 100
	nextTier := next.Tier
	return Progress{
		CurrentTier:     current,
		NextTier:        &nextTier,
		ProgressPct:     pct,
		PointsRemaining: next.MinPoints - totalEarned,
	}
}
