// Package customers manages the client directory: profiles, contact details
// and the lookups the front desk runs before every checkout.
package customers

import "time"

// Customer is a salon client. Walk-ins are represented by a nil customer at
// checkout and never get a row here.
type Customer struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Archived  bool       `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateRequest is the payload for registering a client.
type CreateRequest struct {
	FullName string     `json:"full_name" validate:"required,min=2,max=120"`
	Phone    string     `json:"phone" validate:"required,min=5,max=32"`
	Email    string     `json:"email" validate:"omitempty,email"`
	Birthday *time.Time `json:"birthday"`
	Notes    string     `json:"notes" validate:"max=2000"`
}

// UpdateRequest is the payload for editing a client profile.
type UpdateRequest struct {
	FullName string     `json:"full_name" validate:"required,min=2,max=120"`
	Phone    string     `json:"phone" validate:"required,min=5,max=32"`
	Email    string     `json:"email" validate:"omitempty,email"`
	Birthday *time.Time `json:"birthday"`
	Notes    string     `json:"notes" validate:"max=2000"`
}

// SearchFilter narrows List results.
type SearchFilter struct {
	// Query matches against name and phone, case-insensitively.
	Query string
	// BirthdayMonth filters to clients born in the given month (1-12).
	// Used by the birthday campaign job.
	BirthdayMonth int
	IncludeArchived bool
}
