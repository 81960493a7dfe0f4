package pos

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloura-crm/veloura/internal/billing"
	"github.com/veloura-crm/veloura/internal/platform/httpx"
	"github.com/veloura-crm/veloura/internal/shared"
	"github.com/veloura-crm/veloura/internal/staff"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches the POS routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pos/checkout", h.Checkout)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Checkout(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		switch {
		case errors.Is(err, staff.ErrInvalidPIN), errors.Is(err, staff.ErrInactive), errors.Is(err, staff.ErrNotFound):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "pin rejected")
		case errors.Is(err, shared.ErrIdempotencyConflict):
			httpx.Problem(w, http.StatusConflict, "Conflict", "checkout already processed for this idempotency key")
		case errors.Is(err, billing.ErrNoLineItems),
			errors.Is(err, billing.ErrInvalidQuantity),
			errors.Is(err, billing.ErrNothingToPay),
			errors.Is(err, billing.ErrGiftCardCodeRequired),
			errors.Is(err, billing.ErrInsufficientGiftCardBalance),
			errors.Is(err, billing.ErrInvalidDiscountCode):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
		default:
			h.logger.Error("checkout failed", "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
