package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/veloura-crm/veloura/internal/invoices"
)

// InvoiceReader loads settled documents for receipt rendering.
type InvoiceReader interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// NewReceiptEmailHandler processes TaskReceiptEmail tasks.
// Delivery is a log-only placeholder until the SMTP relay is wired.
func NewReceiptEmailHandler(reader InvoiceReader, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReceiptEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		inv, err := reader.Get(ctx, payload.InvoiceID)
		if errors.Is(err, invoices.ErrNotFound) {
			// voided or purged since enqueue; retrying cannot help
			return asynq.SkipRetry
		}
		if err != nil {
			return fmt.Errorf("load invoice for receipt: %w", err)
		}
		logger.Info("receipt email",
			"invoice", inv.Number,
			"total", inv.Total.Format(),
			"paid", inv.AmountPaid.Format(),
		)
		return nil
	}
}
