package loyalty

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloura-crm/veloura/internal/platform/httpx"
)

// Handler exposes the loyalty program endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches loyalty routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/loyalty/settings", h.GetSettings)
	r.Put("/loyalty/settings", h.UpdateSettings)
	r.Get("/loyalty/accounts/{customerID}", h.Account)
	r.Get("/loyalty/accounts/{customerID}/transactions", h.Transactions)
	r.Post("/loyalty/accounts/{customerID}/bonus", h.Bonus)
	r.Post("/loyalty/accounts/{customerID}/adjust", h.Adjust)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.logger.Error("get loyalty settings failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.UpdateSettings(r.Context(), req, actorFrom(r)); err != nil {
		h.logger.Error("update loyalty settings failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerIDFrom(w, r)
	if !ok {
		return
	}
	view, err := h.service.Account(r.Context(), customerID)
	if err != nil {
		h.logger.Error("get loyalty account failed", "customer_id", customerID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerIDFrom(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txns, err := h.service.Transactions(r.Context(), customerID, limit)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "loyalty account not found")
			return
		}
		h.logger.Error("list loyalty transactions failed", "customer_id", customerID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

type grantRequest struct {
	Points int64  `json:"points" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

func (h *Handler) Bonus(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.service.Bonus)
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.service.Adjust)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, customerID, points int64, note string, actorID int64) error) {
	customerID, ok := customerIDFrom(w, r)
	if !ok {
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := apply(r.Context(), customerID, req.Points, req.Note, actorFrom(r)); err != nil {
		switch {
		case errors.Is(err, ErrInvalidPoints), errors.Is(err, ErrInsufficientPoints):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
		default:
			h.logger.Error("loyalty grant failed", "customer_id", customerID, "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	view, err := h.service.Account(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func customerIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer id")
		return 0, false
	}
	return id, true
}

func actorFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Staff-ID"), 10, 64)
	return id
}
