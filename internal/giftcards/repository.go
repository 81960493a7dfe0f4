package giftcards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates an unknown card code.
	ErrNotFound = errors.New("gift card not found")
	// ErrDuplicateCode indicates a code collision on issue.
	ErrDuplicateCode = errors.New("gift card code already exists")
	// ErrInsufficientBalance indicates the debit would overdraw the card.
	ErrInsufficientBalance = errors.New("insufficient gift card balance")
	// ErrNotActive indicates the card is void, expired or fully redeemed.
	ErrNotActive = errors.New("gift card not active")
)

// Repository persists gift cards.
type Repository interface {
	Create(ctx context.Context, card GiftCard) (int64, error)
	GetByCode(ctx context.Context, code string) (*GiftCard, error)
	List(ctx context.Context, req ListRequest) ([]GiftCard, int, error)
	// Debit atomically reduces the remaining value, guarded against
	// overdraw and non-active cards, flipping status to REDEEMED at zero.
	Debit(ctx context.Context, code string, amountMinor int64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	ExpirePast(ctx context.Context) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, card GiftCard) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO gift_cards (code, initial_minor, remaining_minor, currency, status, customer_id, expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		card.Code, card.InitialValue.Amount, card.RemainingValue.Amount, card.InitialValue.Currency, card.Status, card.CustomerID, card.ExpiresAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*GiftCard, error) {
	var g GiftCard
	var currency string
	err := r.pool.QueryRow(ctx, `SELECT id, code, initial_minor, remaining_minor, currency, status, customer_id, expires_at, created_at, updated_at
FROM gift_cards WHERE code = $1`, code).
		Scan(&g.ID, &g.Code, &g.InitialValue.Amount, &g.RemainingValue.Amount, &currency, &g.Status, &g.CustomerID, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.InitialValue.Currency = currency
	g.RemainingValue.Currency = currency
	return &g, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]GiftCard, int, error) {
	where := ""
	args := []any{}
	if req.Status != nil {
		where = "WHERE status = $1"
		args = append(args, *req.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM gift_cards "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, req.Offset)
	n := len(args)
	query := fmt.Sprintf(`SELECT id, code, initial_minor, remaining_minor, currency, status, customer_id, expires_at, created_at, updated_at
FROM gift_cards %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, n-1, n)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cards := []GiftCard{}
	for rows.Next() {
		var g GiftCard
		var currency string
		if err := rows.Scan(&g.ID, &g.Code, &g.InitialValue.Amount, &g.RemainingValue.Amount, &currency, &g.Status, &g.CustomerID, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		g.InitialValue.Currency = currency
		g.RemainingValue.Currency = currency
		cards = append(cards, g)
	}
	return cards, total, rows.Err()
}

func (r *repository) Debit(ctx context.Context, code string, amountMinor int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE gift_cards
SET remaining_minor = remaining_minor - $2,
    status = CASE WHEN remaining_minor - $2 = 0 THEN 'REDEEMED' ELSE status END,
    updated_at = NOW()
WHERE code = $1 AND status = 'ACTIVE' AND remaining_minor >= $2`, code, amountMinor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish overdraw from unknown/inactive for the caller.
		card, getErr := r.GetByCode(ctx, code)
		if getErr != nil {
			return getErr
		}
		if card.Status != StatusActive {
			return ErrNotActive
		}
		return ErrInsufficientBalance
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE gift_cards SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ExpirePast(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE gift_cards SET status = 'EXPIRED', updated_at = NOW()
WHERE status = 'ACTIVE' AND expires_at IS NOT NULL AND expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
