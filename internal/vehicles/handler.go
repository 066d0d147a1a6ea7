package vehicles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the vehicles module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers motorcycle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/brands", h.brands)
	r.Get("/{motorcycleID}", h.get)
	r.Patch("/{motorcycleID}", h.update)
	r.Delete("/{motorcycleID}", h.remove)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateMotorcycleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	moto, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create motorcycle", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, moto)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListMotorcyclesRequest{Search: q.Get("search")}
	if s := q.Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "customer_id must be a UUID")
			return
		}
		req.CustomerID = &id
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "limit must be an integer")
			return
		}
		req.Limit = n
	}
	list, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, "list motorcycles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"motorcycles": list})
}

func (h *Handler) brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		h.respondErr(w, "list brands", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"brands": brands})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	moto, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get motorcycle", err)
		return
	}
	httpx.JSON(w, http.StatusOK, moto)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateMotorcycleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	moto, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "update motorcycle", err)
		return
	}
	httpx.JSON(w, http.StatusOK, moto)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, "delete motorcycle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "motorcycleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "motorcycleID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "motorcycle not found")
	case errors.Is(err, ErrPlateTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "license plate already registered")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
