package loyalty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAccountNotFound    = errors.New("loyalty account not found")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrSettingsNotFound   = errors.New("loyalty settings not found")
)

// Repository persists loyalty accounts, the points ledger and program
// settings.
type Repository interface {
	GetAccountByCustomer(ctx context.Context, customerID int64) (*Account, error)
	CreateAccount(ctx context.Context, customerID int64) (*Account, error)
	// ApplyDelta moves points atomically. The update is guarded so the
	// balance can never go negative; a blocked movement returns
	// ErrInsufficientPoints.
	ApplyDelta(ctx context.Context, accountID, deltaPoints, deltaEarned, deltaRedeemed int64, tier Tier) (*Account, error)
	InsertTransaction(ctx context.Context, txn *Transaction) error
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error)
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const accountColumns = `id, customer_id, current_points, total_earned, total_redeemed, tier, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CustomerID, &a.CurrentPoints, &a.TotalEarned, &a.TotalRedeemed, &a.Tier, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgRepository) GetAccountByCustomer(ctx context.Context, customerID int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM loyalty_accounts WHERE customer_id = $1`, customerID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return a, nil
}

func (r *pgRepository) CreateAccount(ctx context.Context, customerID int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO loyalty_accounts (customer_id, current_points, total_earned, total_redeemed, tier, created_at, updated_at)
		VALUES ($1, 0, 0, 0, $2, NOW(), NOW())
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = loyalty_accounts.updated_at
		RETURNING `+accountColumns, customerID, TierBronze)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("create loyalty account: %w", err)
	}
	return a, nil
}

func (r *pgRepository) ApplyDelta(ctx context.Context, accountID, deltaPoints, deltaEarned, deltaRedeemed int64, tier Tier) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE loyalty_accounts
		SET current_points = current_points + $2,
		    total_earned = total_earned + $3,
		    total_redeemed = total_redeemed + $4,
		    tier = $5,
		    updated_at = NOW()
		WHERE id = $1 AND current_points + $2 >= 0
		RETURNING `+accountColumns, accountID, deltaPoints, deltaEarned, deltaRedeemed, tier)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInsufficientPoints
	}
	if err != nil {
		return nil, fmt.Errorf("apply loyalty delta: %w", err)
	}
	return a, nil
}

func (r *pgRepository) InsertTransaction(ctx context.Context, txn *Transaction) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO loyalty_transactions (account_id, type, points, note, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		txn.AccountID, txn.Type, txn.Points, txn.Note,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert loyalty transaction: %w", err)
	}
	return nil
}

func (r *pgRepository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, type, points, note, created_at
		FROM loyalty_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list loyalty transactions: %w", err)
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Points, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loyalty transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgRepository) GetSettings(ctx context.Context) (*Settings, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM loyalty_settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode loyalty settings: %w", err)
	}
	return &s, nil
}

func (r *pgRepository) SaveSettings(ctx context.Context, s Settings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode loyalty settings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO loyalty_settings (id, payload, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`, payload)
	if err != nil {
		return fmt.Errorf("save loyalty settings: %w", err)
	}
	return nil
}
