package promotions

import (
	"time"

	"github.com/veloura-crm/veloura/internal/money"
)

// Promo is an admin-managed discount code. Validation happens server-side;
// the billing allocator only ever sees the resulting PromoResult.
type Promo struct {
	ID          int64       `json:"id"`
	Code        string      `json:"code"`
	Amount      money.Money `json:"amount"`
	Description string      `json:"description,omitempty"`
	MaxUses     int         `json:"max_uses"`
	UsedCount   int         `json:"used_count"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CreatePromoRequest creates a new discount code.
type CreatePromoRequest struct {
	Code        string     `json:"code" validate:"required,alphanum,min=4,max=32"`
	AmountMinor int64      `json:"amount_minor" validate:"required,gt=0"`
	Currency    string     `json:"currency" validate:"required,len=3"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	MaxUses     int        `json:"max_uses" validate:"gte=0"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ListPromosRequest filters the promo listing.
type ListPromosRequest struct {
	ActiveOnly bool `json:"active_only"`
	Limit      int  `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int  `json:"offset" validate:"gte=0"`
}
