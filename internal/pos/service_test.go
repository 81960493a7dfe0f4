package pos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veloura-crm/veloura/internal/invoices"
	"github.com/veloura-crm/veloura/internal/money"
	"github.com/veloura-crm/veloura/internal/staff"
)

type fakeInvoices struct {
	created   []invoices.CreateRequest
	payments  []invoices.RecordPaymentRequest
	actorIDs  []int64
	failPay   error
	nextID    int64
	loyaltyIn []int64
}

func (f *fakeInvoices) Create(_ context.Context, req invoices.CreateRequest, actorID int64) (*invoices.Invoice, error) {
	f.created = append(f.created, req)
	f.actorIDs = append(f.actorIDs, actorID)
	f.nextID++
	return &invoices.Invoice{ID: f.nextID, Status: invoices.StatusDraft, Currency: "AED", Total: money.Money{Amount: 10500, Currency: "AED"}}, nil
}

func (f *fakeInvoices) RecordPayment(_ context.Context, id int64, req invoices.RecordPaymentRequest, _ int64, _ string) (*invoices.Payment, error) {
	if f.failPay != nil {
		return nil, f.failPay
	}
	f.payments = append(f.payments, req)
	f.loyaltyIn = append(f.loyaltyIn, req.LoyaltyRequestMinor)
	return &invoices.Payment{ID: 1, InvoiceID: id}, nil
}

func (f *fakeInvoices) Get(_ context.Context, id int64) (*invoices.Invoice, error) {
	return &invoices.Invoice{ID: id, Status: invoices.StatusPaid, Currency: "AED"}, nil
}

type fakeStaff struct {
	member *staff.Member
	pin    string
}

func (f *fakeStaff) VerifyPIN(_ context.Context, id int64, pin string) (*staff.Member, error) {
	if f.member == nil || f.member.ID != id {
		return nil, staff.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(f.member.PINHash), []byte(pin)); err != nil {
		return nil, staff.ErrInvalidPIN
	}
	return f.member, nil
}

func newFakeStaff(t *testing.T, id int64, pin string) *fakeStaff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeStaff{member: &staff.Member{ID: id, Role: staff.RoleReceptionist, Active: true, PINHash: string(hash)}}
}

func validCart() []invoices.LineInput {
	return []invoices.LineInput{{Name: "Haircut", UnitPriceMinor: 10000, Quantity: 1}}
}

func TestCheckoutHappyPath(t *testing.T) {
	inv := &fakeInvoices{}
	svc := NewService(inv, newFakeStaff(t, 5, "4821"), nil)

	cust := int64(7)
	result, err := svc.Checkout(context.Background(), CheckoutRequest{
		StaffID:             5,
		PIN:                 "4821",
		CustomerID:          &cust,
		Lines:               validCart(),
		Method:              "CARD",
		LoyaltyRequestMinor: 2000,
	}, "")
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPaid, result.Invoice.Status)
	require.Len(t, inv.created, 1)
	require.Equal(t, []int64{5}, inv.actorIDs)
	require.Equal(t, []int64{2000}, inv.loyaltyIn)
}

func TestCheckoutRejectsBadPIN(t *testing.T) {
	inv := &fakeInvoices{}
	svc := NewService(inv, newFakeStaff(t, 5, "4821"), nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		StaffID: 5, PIN: "0000", Lines: validCart(), Method: "CASH",
	}, "")
	require.ErrorIs(t, err, staff.ErrInvalidPIN)
	require.Empty(t, inv.created)
}

func TestCheckoutWalkInSkipsLoyalty(t *testing.T) {
	inv := &fakeInvoices{}
	svc := NewService(inv, newFakeStaff(t, 5, "4821"), nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		StaffID:             5,
		PIN:                 "4821",
		Lines:               validCart(),
		Method:              "CASH",
		LoyaltyRequestMinor: 5000,
	}, "")
	require.NoError(t, err)
	require.Equal(t, []int64{0}, inv.loyaltyIn)
}

func TestCheckoutSettlementFailureSurfaces(t *testing.T) {
	inv := &fakeInvoices{failPay: invoices.ErrNotPayable}
	svc := NewService(inv, newFakeStaff(t, 5, "4821"), nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		StaffID: 5, PIN: "4821", Lines: validCart(), Method: "CASH",
	}, "")
	require.ErrorIs(t, err, invoices.ErrNotPayable)
	// the draft invoice was still created and is recoverable
	require.Len(t, inv.created, 1)
}
