package customers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veloura-crm/veloura/internal/shared"
)

type memoryRepo struct {
	byID   map[int64]*Customer
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[int64]*Customer{}}
}

func (m *memoryRepo) Create(_ context.Context, c *Customer) error {
	for _, existing := range m.byID {
		if existing.Phone == c.Phone {
			return ErrDuplicatePhone
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryRepo) Update(_ context.Context, c *Customer) error {
	if _, ok := m.byID[c.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.byID {
		if id != c.ID && existing.Phone == c.Phone {
			return ErrDuplicatePhone
		}
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memoryRepo) Archive(_ context.Context, id int64) error {
	c, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	c.Archived = true
	return nil
}

func (m *memoryRepo) List(_ context.Context, filter SearchFilter, _ shared.Pagination) ([]Customer, error) {
	var out []Customer
	for _, c := range m.byID {
		if c.Archived && !filter.IncludeArchived {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(c.FullName), strings.ToLower(filter.Query)) && !strings.Contains(c.Phone, filter.Query) {
			continue
		}
		if filter.BirthdayMonth != 0 {
			if c.Birthday == nil || int(c.Birthday.Month()) != filter.BirthdayMonth {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

func TestCreateNormalizesInput(t *testing.T) {
	svc := NewService(newMemoryRepo())

	c, err := svc.Create(context.Background(), CreateRequest{
		FullName: "  Amira Hassan ",
		Phone:    "+971 50-123 4567",
		Email:    "Amira@Example.COM ",
	})
	require.NoError(t, err)
	require.Equal(t, "Amira Hassan", c.FullName)
	require.Equal(t, "+971501234567", c.Phone)
	require.Equal(t, "amira@example.com", c.Email)
}

func TestCreateRejectsDuplicatePhoneAcrossFormats(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{FullName: "Amira Hassan", Phone: "+971501234567"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateRequest{FullName: "A. Hassan", Phone: "+971 50 123 4567"})
	require.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestUpdateMissingCustomer(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Update(context.Background(), 42, UpdateRequest{FullName: "Nobody", Phone: "+100"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveHidesFromDefaultListing(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateRequest{FullName: "Amira Hassan", Phone: "+971501234567"})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(ctx, c.ID))

	visible, err := svc.List(ctx, SearchFilter{}, shared.Pagination{})
	require.NoError(t, err)
	require.Empty(t, visible)

	all, err := svc.List(ctx, SearchFilter{IncludeArchived: true}, shared.Pagination{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestListBirthdayMonthFilter(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	march := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)
	june := time.Date(1985, time.June, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, CreateRequest{FullName: "Amira Hassan", Phone: "+1", Birthday: &march})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{FullName: "Layla Noor", Phone: "+2", Birthday: &june})
	require.NoError(t, err)

	got, err := svc.List(ctx, SearchFilter{BirthdayMonth: 3}, shared.Pagination{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Amira Hassan", got[0].FullName)
}
