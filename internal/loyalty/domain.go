// Package loyalty implements the points program: tier derivation, earning
// rules and account bookkeeping. Tier names live here and only here; every
// other module imports this vocabulary instead of redeclaring it.
package loyalty

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/money"
)

// Tier is a loyalty rank derived from lifetime earned points.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

var tierOrder = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Rank returns the tier's position in the ladder, Bronze being 0.
func (t Tier) Rank() int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// TierThreshold pairs a tier with its entry point and earn multiplier.
type TierThreshold struct {
	Tier       Tier            `json:"tier"`
	MinPoints  int64           `json:"min_points"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// TierTable is the threshold ladder ordered Bronze to Platinum.
type TierTable []TierThreshold

// Validate enforces the ladder invariants: all four tiers in order, Bronze
// floored at zero, thresholds strictly increasing, multipliers at least 1.
func (tt TierTable) Validate() error {
	if len(tt) != len(tierOrder) {
		return fmt.Errorf("tier table must define all %d tiers", len(tierOrder))
	}
	for i, th := range tt {
		if th.Tier != tierOrder[i] {
			return fmt.Errorf("tier table position %d must be %s, got %s", i, tierOrder[i], th.Tier)
		}
		if th.Multiplier.LessThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("tier %s multiplier must be >= 1", th.Tier)
		}
	}
	if tt[0].MinPoints != 0 {
		return errors.New("bronze threshold must be 0")
	}
	for i := 1; i < len(tt); i++ {
		if tt[i].MinPoints <= tt[i-1].MinPoints {
			return fmt.Errorf("tier thresholds must be strictly increasing: %s <= %s", tt[i].Tier, tt[i-1].Tier)
		}
	}
	return nil
}

// DefaultTierTable returns the out-of-the-box ladder.
func DefaultTierTable() TierTable {
	return TierTable{
		{Tier: TierBronze, MinPoints: 0, Multiplier: decimal.NewFromInt(1)},
		{Tier: TierSilver, MinPoints: 2000, Multiplier: decimal.NewFromFloat(1.25)},
		{Tier: TierGold, MinPoints: 5000, Multiplier: decimal.NewFromFloat(1.5)},
		{Tier: TierPlatinum, MinPoints: 10000, Multiplier: decimal.NewFromInt(2)},
	}
}

// Settings are the admin-editable program rules.
type Settings struct {
	// EarnRate is points earned per major currency unit spent.
	EarnRate decimal.Decimal `json:"earn_rate"`
	// PointValue is the currency value of one point on redemption.
	PointValue money.Money `json:"point_value"`
	// MaxRedeemRate caps how much of a balance due points may cover
	// (0.5 == 50%). Applies to the post-tax balance.
	MaxRedeemRate decimal.Decimal `json:"max_redeem_rate"`
	// MinSpend is the smallest sale that earns points. No partial credit
	// below it.
	MinSpend money.Money `json:"min_spend"`
	Tiers    TierTable   `json:"tiers"`
}

// Validate checks the program rules.
func (s Settings) Validate() error {
	if s.EarnRate.IsNegative() {
		return errors.New("earn rate must not be negative")
	}
	if s.PointValue.Amount <= 0 {
		return errors.New("point value must be positive")
	}
	if s.MaxRedeemRate.IsNegative() || s.MaxRedeemRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("max redeem rate must be within [0, 1]")
	}
	if s.MinSpend.IsNegative() {
		return errors.New("min spend must not be negative")
	}
	return s.Tiers.Validate()
}

// DefaultSettings returns the program defaults for a fresh install.
func DefaultSettings(currency string) Settings {
	return Settings{
		EarnRate:      decimal.NewFromInt(1),
		PointValue:    money.Money{Amount: 10, Currency: currency},
		MaxRedeemRate: decimal.NewFromFloat(0.5),
		MinSpend:      money.Money{Amount: 1000, Currency: currency},
		Tiers:         DefaultTierTable(),
	}
}

// Account tracks one customer's points. Tier is derived from TotalEarned.
type Account struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	CurrentPoints int64     `json:"current_points"`
	TotalEarned   int64     `json:"total_earned"`
	TotalRedeemed int64     `json:"total_redeemed"`
	Tier          Tier      `json:"tier"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TxnType classifies a points movement.
type TxnType string

const (
	TxnEarn   TxnType = "EARN"
	TxnRedeem TxnType = "REDEEM"
	TxnBonus  TxnType = "BONUS"
	TxnAdjust TxnType = "ADJUST"
)

// Transaction is one entry in the points ledger. Points are signed.
type Transaction struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Type      TxnType   `json:"type"`
	Points    int64     `json:"points"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress describes where an account sits on the tier ladder.
type Progress struct {
	CurrentTier     Tier    `json:"current_tier"`
	NextTier        *Tier   `json:"next_tier,omitempty"`
	ProgressPct     float64 `json:"progress_pct"`
	PointsRemaining int64   `json:"points_remaining"`
}
