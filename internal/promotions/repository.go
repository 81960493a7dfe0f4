package promotions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates an unknown promo code.
	ErrNotFound = errors.New("promo not found")
	// ErrDuplicateCode indicates the code already exists.
	ErrDuplicateCode = errors.New("promo code already exists")
	// ErrExhausted indicates the code has no activations left.
	ErrExhausted = errors.New("promo code exhausted")
)

// Repository persists promo codes.
type Repository interface {
	Create(ctx context.Context, p Promo) (int64, error)
	GetByCode(ctx context.Context, code string) (*Promo, error)
	List(ctx context.Context, req ListPromosRequest) ([]Promo, int, error)
	SetActive(ctx context.Context, id int64, active bool) error
	IncrementUse(ctx context.Context, code string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, p Promo) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO promos (code, amount_minor, currency, description, max_uses, expires_at, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		p.Code, p.Amount.Amount, p.Amount.Currency, p.Description, p.MaxUses, p.ExpiresAt, p.Active).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Promo, error) {
	var p Promo
	err := r.pool.QueryRow(ctx, `SELECT id, code, amount_minor, currency, description, max_uses, used_count, expires_at, active, created_at, updated_at
FROM promos WHERE code = $1`, code).
		Scan(&p.ID, &p.Code, &p.Amount.Amount, &p.Amount.Currency, &p.Description, &p.MaxUses, &p.UsedCount, &p.ExpiresAt, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, req ListPromosRequest) ([]Promo, int, error) {
	where := ""
	if req.ActiveOnly {
		where = "WHERE active"
	}
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM promos "+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, amount_minor, currency, description, max_uses, used_count, expires_at, active, created_at, updated_at
FROM promos `+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	promos := []Promo{}
	for rows.Next() {
		var p Promo
		if err := rows.Scan(&p.ID, &p.Code, &p.Amount.Amount, &p.Amount.Currency, &p.Description, &p.MaxUses, &p.UsedCount, &p.ExpiresAt, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		promos = append(promos, p)
	}
	return promos, total, rows.Err()
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE promos SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUse counts one activation, guarded so a code can never be used
// past max_uses (max_uses = 0 means unlimited).
func (r *repository) IncrementUse(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE promos SET used_count = used_count + 1, updated_at = NOW()
WHERE code = $1 AND active AND (max_uses = 0 OR used_count < max_uses)`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExhausted
	}
	return nil
}
