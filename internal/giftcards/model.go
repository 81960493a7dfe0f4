package giftcards

import (
	"time"

	"github.com/veloura-crm/veloura/internal/money"
)

// Status is the lifecycle state of a gift card.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusRedeemed Status = "REDEEMED"
	StatusExpired  Status = "EXPIRED"
	StatusVoid     Status = "VOID"
)

// GiftCard is a stored-value card.
// Invariant: 0 <= remaining <= initial; once VOID or EXPIRED the remaining
// value is frozen and unusable.
type GiftCard struct {
	ID             int64       `json:"id"`
	Code           string      `json:"code"`
	InitialValue   money.Money `json:"initial_value"`
	RemainingValue money.Money `json:"remaining_value"`
	Status         Status      `json:"status"`
	CustomerID     *int64      `json:"customer_id,omitempty"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Usable reports whether the card can fund a payment right now.
func (g *GiftCard) Usable() bool {
	return g != nil && g.Status == StatusActive && g.RemainingValue.IsPositive()
}

// IssueRequest creates a new card.
type IssueRequest struct {
	ValueMinor int64      `json:"value_minor" validate:"required,gt=0"`
	Currency   string     `json:"currency" validate:"required,len=3"`
	CustomerID *int64     `json:"customer_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ListRequest filters the gift card listing.
type ListRequest struct {
	Status *Status `json:"status,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
