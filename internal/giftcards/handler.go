package giftcards

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloura-crm/veloura/internal/platform/httpx"
	"github.com/veloura-crm/veloura/internal/shared"
)

// Handler exposes the gift card endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches gift card routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/gift-cards", h.List)
	r.Post("/gift-cards", h.Issue)
	r.Get("/gift-cards/check/{code}", h.Check)
	r.Post("/gift-cards/{id}/void", h.Void)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	card, err := h.service.Issue(r.Context(), req, actorFrom(r))
	if err != nil {
		h.logger.Error("issue gift card failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Check(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "gift card not found")
			return
		}
		h.logger.Error("check gift card failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid gift card id")
		return
	}
	if err := h.service.Void(r.Context(), id, actorFrom(r)); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "gift card not found")
			return
		}
		h.logger.Error("void gift card failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	req := ListRequest{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		st := Status(s)
		req.Status = &st
	}

	cards, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list gift cards failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"gift_cards": cards,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

// actorFrom resolves the acting staff member from the X-Staff-ID header set
// by the dashboard. Attribution only; authentication lives upstream.
func actorFrom(r *http.Request) int64 {
	if v := r.Header.Get("X-Staff-ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	return 0
}
