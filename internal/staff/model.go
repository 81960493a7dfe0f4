// Package staff manages employee records and the POS PINs that authorise
// checkouts and manual loyalty grants.
package staff

import "time"

// Role gates which operations a staff member may perform at the POS.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleStylist      Role = "STYLIST"
	RoleReceptionist Role = "RECEPTIONIST"
)

// ValidRole reports whether the role is one we accept.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStylist, RoleReceptionist:
		return true
	}
	return false
}

// CanOverride reports whether the role may authorise manual adjustments
// (loyalty corrections, gift card voids).
func (r Role) CanOverride() bool {
	return r == RoleAdmin || r == RoleManager
}

// Member is an employee. PINHash is a bcrypt digest and never leaves the
// service layer.
type Member struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	PINHash   string    `json:"-"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest is the payload for adding an employee.
type CreateRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Role     Role   `json:"role" validate:"required"`
	PIN      string `json:"pin" validate:"required,len=4,numeric"`
}

// SetPINRequest is the payload for rotating a PIN.
type SetPINRequest struct {
	PIN string `json:"pin" validate:"required,len=4,numeric"`
}

// VerifyPINRequest is the POS unlock payload.
type VerifyPINRequest struct {
	StaffID int64  `json:"staff_id" validate:"required,gt=0"`
	PIN     string `json:"pin" validate:"required,len=4,numeric"`
}
