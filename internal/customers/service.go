package customers

import (
	"context"
	"strings"

	"github.com/veloura-crm/veloura/internal/shared"
)

// Service wraps the repository with input normalisation.
type Service struct {
	repo Repository
}

// NewService wires the customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	c := &Customer{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    normalizePhone(req.Phone),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Birthday: req.Birthday,
		Notes:    strings.TrimSpace(req.Notes),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.FullName = strings.TrimSpace(req.FullName)
	c.Phone = normalizePhone(req.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Birthday = req.Birthday
	c.Notes = strings.TrimSpace(req.Notes)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.Archive(ctx, id)
}

func (s *Service) List(ctx context.Context, filter SearchFilter, page shared.Pagination) ([]Customer, error) {
	return s.repo.List(ctx, filter, page)
}

// normalizePhone strips separators so the same number stored twice with
// different punctuation still trips the unique constraint.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
