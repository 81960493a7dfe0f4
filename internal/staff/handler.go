package staff

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloura-crm/veloura/internal/platform/httpx"
)

// Handler exposes the staff management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/staff", h.List)
	r.Post("/staff", h.Create)
	r.Post("/staff/{id}/pin", h.SetPIN)
	r.Post("/staff/{id}/deactivate", h.Deactivate)
	r.Post("/staff/verify-pin", h.VerifyPIN)
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
	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRole) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid staff role")
			return
		}
		h.logger.Error("create staff failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	var req SetPINRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetPIN(r.Context(), id, req.PIN); err != nil {
		respondStaffError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "pin updated"})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.SetActive(r.Context(), id, false); err != nil {
		respondStaffError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req VerifyPINRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.VerifyPIN(r.Context(), req.StaffID, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidPIN), errors.Is(err, ErrInactive):
			// one answer for every failure mode, nothing to enumerate by
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "pin rejected")
		default:
			h.logger.Error("verify pin failed", "error", err)
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list staff failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"staff": members})
}

func respondStaffError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "staff member not found")
	case errors.Is(err, ErrInvalidPIN):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "pin must be 4 digits")
	default:
		logger.Error("staff request failed", "error", err)
		httpx.RespondError(w, err)
	}
}

func idFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid staff id")
		return 0, false
	}
	return id, true
}
