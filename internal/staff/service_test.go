package staff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	byID   map[int64]*Member
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[int64]*Member{}}
}

func (m *memoryRepo) Create(_ context.Context, member *Member) error {
	m.nextID++
	member.ID = m.nextID
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	cp := *member
	m.byID[member.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (*Member, error) {
	member, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *member
	return &cp, nil
}

func (m *memoryRepo) UpdatePINHash(_ context.Context, id int64, hash string) error {
	member, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	member.PINHash = hash
	return nil
}

func (m *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	member, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	member.Active = active
	return nil
}

func (m *memoryRepo) List(_ context.Context) ([]Member, error) {
	var out []Member
	for _, member := range m.byID {
		out = append(out, *member)
	}
	return out, nil
}

func TestVerifyPIN(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: RoleManager, PIN: "4821"})
	require.NoError(t, err)
	require.NotEqual(t, "4821", m.PINHash)

	got, err := svc.VerifyPIN(ctx, m.ID, "4821")
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)

	_, err = svc.VerifyPIN(ctx, m.ID, "0000")
	require.ErrorIs(t, err, ErrInvalidPIN)

	_, err = svc.VerifyPIN(ctx, 999, "4821")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyPINRejectsInactive(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: RoleStylist, PIN: "4821"})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, m.ID, false))

	_, err = svc.VerifyPIN(ctx, m.ID, "4821")
	require.ErrorIs(t, err, ErrInactive)
}

func TestSetPINRotates(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: RoleAdmin, PIN: "4821"})
	require.NoError(t, err)
	require.NoError(t, svc.SetPIN(ctx, m.ID, "9034"))

	_, err = svc.VerifyPIN(ctx, m.ID, "4821")
	require.ErrorIs(t, err, ErrInvalidPIN)
	_, err = svc.VerifyPIN(ctx, m.ID, "9034")
	require.NoError(t, err)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: Role("OWNER"), PIN: "4821"})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: RoleAdmin, PIN: "12a4"})
	require.ErrorIs(t, err, ErrInvalidPIN)

	_, err = svc.Create(ctx, CreateRequest{FullName: "Dana Khalil", Role: RoleAdmin, PIN: "123"})
	require.ErrorIs(t, err, ErrInvalidPIN)
}

func TestRoleOverridePermissions(t *testing.T) {
	require.True(t, RoleAdmin.CanOverride())
	require.True(t, RoleManager.CanOverride())
	require.False(t, RoleStylist.CanOverride())
	require.False(t, RoleReceptionist.CanOverride())
}
