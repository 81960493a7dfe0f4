package invoices

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/veloura-crm/veloura/internal/platform/httpx"
	"github.com/veloura-crm/veloura/internal/shared"
)

// exportCSV streams the filtered listing as a spreadsheet download. The
// export ignores pagination and walks the filter in pages internally.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=invoices-%s.csv", time.Now().UTC().Format("20060102")))

	cw := csv.NewWriter(w)
	header := []string{"number", "status", "customer_id", "currency", "subtotal", "discount", "tax", "tip", "total", "amount_paid", "due_date", "created_at"}
	if err := cw.Write(header); err != nil {
		h.logger.Error("csv export failed", "error", err)
		return
	}

	for page := 1; ; page++ {
		invs, _, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: 100})
		if err != nil {
			if page == 1 {
				httpx.RespondError(w, err)
			} else {
				h.logger.Error("csv export failed mid-stream", "error", err)
			}
			return
		}
		if len(invs) == 0 {
			break
		}
		for _, inv := range invs {
			customer := ""
			if inv.CustomerID != nil {
				customer = fmt.Sprintf("%d", *inv.CustomerID)
			}
			due := ""
			if inv.DueDate != nil {
				due = inv.DueDate.Format("2006-01-02")
			}
			record := []string{
				inv.Number,
				string(inv.Status),
				customer,
				inv.Currency,
				inv.Subtotal.Major().StringFixed(2),
				inv.Discount.Major().StringFixed(2),
				inv.Tax.Major().StringFixed(2),
				inv.Tip.Major().StringFixed(2),
				inv.Total.Major().StringFixed(2),
				inv.AmountPaid.Major().StringFixed(2),
				due,
				inv.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(record); err != nil {
				h.logger.Error("csv export failed mid-stream", "error", err)
				return
			}
		}
		if len(invs) < 100 {
			break
		}
	}
	cw.Flush()
}
