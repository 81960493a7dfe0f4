package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloura-crm/veloura/internal/billing"
	"github.com/veloura-crm/veloura/internal/giftcards"
	"github.com/veloura-crm/veloura/internal/loyalty"
	"github.com/veloura-crm/veloura/internal/platform/httpx"
	"github.com/veloura-crm/veloura/internal/shared"
)

// Handler exposes the invoice endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Create)
	r.Get("/invoices/{id}", h.Get)
	r.Get("/invoices/{id}/payments", h.Payments)
	r.Post("/invoices/{id}/send", h.Send)
	r.Post("/invoices/{id}/void", h.Void)
	r.Post("/invoices/{id}/payments", h.RecordPayment)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.Create(r.Context(), req, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNoLineItems),
			errors.Is(err, billing.ErrInvalidQuantity),
			errors.Is(err, billing.ErrInvalidRate):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
		default:
			h.logger.Error("create invoice failed", "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondInvoiceError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	payments, err := h.service.Payments(r.Context(), id)
	if err != nil {
		respondInvoiceError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Send(r.Context(), id)
	if err != nil {
		respondInvoiceError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.Void(r.Context(), id, actorFrom(r)); err != nil {
		respondInvoiceError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "void"})
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), id, req, actorFrom(r), r.Header.Get("Idempotency-Key"))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrIdempotencyConflict):
			httpx.Problem(w, http.StatusConflict, "Conflict", "payment already recorded for this idempotency key")
		case errors.Is(err, billing.ErrNothingToPay),
			errors.Is(err, billing.ErrGiftCardCodeRequired),
			errors.Is(err, billing.ErrInsufficientGiftCardBalance),
			errors.Is(err, billing.ErrInvalidDiscountCode),
			errors.Is(err, ErrNotPayable),
			errors.Is(err, loyalty.ErrInsufficientPoints),
			errors.Is(err, giftcards.ErrNotActive),
			errors.Is(err, giftcards.ErrInsufficientBalance):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
		case errors.Is(err, giftcards.ErrNotFound):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", "gift card not found")
		default:
			h.logger.Error("record payment failed", "invoice_id", id, "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("per_page"))
	customerID, _ := strconv.ParseInt(q.Get("customer_id"), 10, 64)

	filter := ListFilter{
		Status:     Status(q.Get("status")),
		CustomerID: customerID,
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = &t
		}
	}

	if q.Get("format") == "csv" {
		h.exportCSV(w, r, filter)
		return
	}

	invs, total, err := h.service.List(r.Context(), filter, shared.Pagination{Page: page, PerPage: limit})
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   invs,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func respondInvoiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
	case errors.Is(err, ErrNotPayable):
		httpx.Problem(w, http.StatusConflict, "Conflict", "invoice state does not allow this transition")
	default:
		logger.Error("invoice request failed", "error", err)
		httpx.RespondError(w, err)
	}
}

func idFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return 0, false
	}
	return id, true
}

func actorFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Staff-ID"), 10, 64)
	return id
}
