package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/money"
	"github.com/veloura-crm/veloura/internal/platform/db"
	"github.com/veloura-crm/veloura/internal/shared"
)

var (
	ErrNotFound   = errors.New("invoice not found")
	ErrNotPayable = errors.New("invoice not payable")
)

// Repository persists invoices, their lines and payments.
type Repository interface {
	// Create inserts the invoice and its lines in one transaction,
	// assigning the document number.
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]Invoice, int, error)
	// SetStatus transitions the lifecycle state. The from set guards
	// against illegal jumps; an empty set allows any.
	SetStatus(ctx context.Context, id int64, to Status, from []Status, dueDate *time.Time) error
	// ApplyPayment inserts the payment row and advances amount_paid and
	// status in one transaction. The update is guarded on the current
	// status still being payable.
	ApplyPayment(ctx context.Context, p *Payment, newPaid money.Money, newStatus Status) error
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	// MarkOverdue flips SENT and PARTIALLY_PAID invoices past their due
	// date, returning how many changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		period := inv.CreatedAt.Format("200601")
		if inv.CreatedAt.IsZero() {
			period = time.Now().UTC().Format("200601")
		}
		var counter int64
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_counters (period, counter)
			VALUES ($1, 1)
			ON CONFLICT (period) DO UPDATE SET counter = invoice_counters.counter + 1
			RETURNING counter`, period).Scan(&counter)
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}
		inv.Number = fmt.Sprintf("INV-%s-%04d", period, counter)

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (number, customer_id, status, currency,
				subtotal_minor, discount_minor, tax_rate, tax_minor, tip_minor,
				total_minor, amount_paid_minor, due_date, notes, created_by,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			inv.Number, inv.CustomerID, inv.Status, inv.Currency,
			inv.Subtotal.Amount, inv.Discount.Amount, inv.TaxRate.String(), inv.Tax.Amount,
			inv.Tip.Amount, inv.Total.Amount, inv.DueDate, inv.Notes, inv.CreatedBy,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for i := range inv.Lines {
			line := &inv.Lines[i]
			line.InvoiceID = inv.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO invoice_lines (invoice_id, name, unit_price_minor, quantity, discount_minor, line_total_minor)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				inv.ID, line.Name, line.UnitPrice.Amount, line.Quantity, line.Discount.Amount, line.LineTotal.Amount,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}
		return nil
	})
}

const invoiceColumns = `id, number, customer_id, status, currency,
	subtotal_minor, discount_minor, tax_rate, tax_minor, tip_minor,
	total_minor, amount_paid_minor, due_date, notes, created_by, created_at, updated_at`

func parseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse tax rate: %w", err)
	}
	return rate, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv                              Invoice
		taxRate                          string
		sub, disc, tax, tip, total, paid int64
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.Status, &inv.Currency,
		&sub, &disc, &taxRate, &tax, &tip, &total, &paid,
		&inv.DueDate, &inv.Notes, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cur := inv.Currency
	inv.Subtotal = money.Money{Amount: sub, Currency: cur}
	inv.Discount = money.Money{Amount: disc, Currency: cur}
	inv.Tax = money.Money{Amount: tax, Currency: cur}
	inv.Tip = money.Money{Amount: tip, Currency: cur}
	inv.Total = money.Money{Amount: total, Currency: cur}
	inv.AmountPaid = money.Money{Amount: paid, Currency: cur}
	if inv.TaxRate, err = parseRate(taxRate); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *pgRepository) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, name, unit_price_minor, quantity, discount_minor, line_total_minor
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line              Line
			unit, disc, total int64
		)
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Name, &unit, &line.Quantity, &disc, &total); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		line.UnitPrice = money.Money{Amount: unit, Currency: inv.Currency}
		line.Discount = money.Money{Amount: disc, Currency: inv.Currency}
		line.LineTotal = money.Money{Amount: total, Currency: inv.Currency}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]Invoice, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + clause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) SetStatus(ctx context.Context, id int64, to Status, from []Status, dueDate *time.Time) error {
	query := `UPDATE invoices SET status = $2, updated_at = NOW()`
	args := []any{id, to}
	if dueDate != nil {
		args = append(args, *dueDate)
		query += fmt.Sprintf(", due_date = $%d", len(args))
	}
	query += ` WHERE id = $1`
	if len(from) > 0 {
		states := make([]string, len(from))
		for i, s := range from {
			states[i] = string(s)
		}
		args = append(args, states)
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// row missing or guard refused; disambiguate for the caller
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrNotPayable
	}
	return nil
}

func (r *pgRepository) ApplyPayment(ctx context.Context, p *Payment, newPaid money.Money, newStatus Status) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices SET amount_paid_minor = $2, status = $3, updated_at = NOW()
			WHERE id = $1 AND status IN ('DRAFT', 'SENT', 'PARTIALLY_PAID', 'OVERDUE')`,
			p.InvoiceID, newPaid.Amount, newStatus)
		if err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotPayable
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO payments (invoice_id, method, amount_minor, loyalty_minor, promo_minor,
				promo_code, gift_card_code, note, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			RETURNING id, created_at`,
			p.InvoiceID, p.Method, p.Amount.Amount, p.LoyaltyAmount.Amount, p.PromoAmount.Amount,
			p.PromoCode, p.GiftCardCode, p.Note, p.CreatedBy,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

func (r *pgRepository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	inv, err := r.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, method, amount_minor, loyalty_minor, promo_minor,
			promo_code, gift_card_code, note, created_by, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var (
			p                    Payment
			amount, loyal, promo int64
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Method, &amount, &loyal, &promo,
			&p.PromoCode, &p.GiftCardCode, &p.Note, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = money.Money{Amount: amount, Currency: inv.Currency}
		p.LoyaltyAmount = money.Money{Amount: loyal, Currency: inv.Currency}
		p.PromoAmount = money.Money{Amount: promo, Currency: inv.Currency}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = 'OVERDUE', updated_at = NOW()
		WHERE status IN ('SENT', 'PARTIALLY_PAID') AND due_date IS NOT NULL AND due_date < $1`, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}
