package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidRole = errors.New("invalid staff role")
	ErrInvalidPIN  = errors.New("pin rejected")
	ErrInactive    = errors.New("staff member inactive")
)

// Service wraps the repository with PIN hashing and verification.
type Service struct {
	repo Repository
}

// NewService wires the staff service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Member, error) {
	if !ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	hash, err := hashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	m := &Member{FullName: strings.TrimSpace(req.FullName), Role: req.Role, PINHash: hash, Active: true}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetPIN rotates a member's PIN.
func (s *Service) SetPIN(ctx context.Context, id int64, pin string) error {
	hash, err := hashPIN(pin)
	if err != nil {
		return err
	}
	return s.repo.UpdatePINHash(ctx, id, hash)
}

// VerifyPIN authenticates a POS unlock attempt. Inactive members are
// rejected before the hash comparison so a deactivated PIN stops working
// immediately.
func (s *Service) VerifyPIN(ctx context.Context, id int64, pin string) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PINHash), []byte(pin)); err != nil {
		return nil, ErrInvalidPIN
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func hashPIN(pin string) (string, error) {
	if len(pin) != 4 {
		return "", ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return "", ErrInvalidPIN
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}
