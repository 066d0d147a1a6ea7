package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sale and inventory unit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createSale)
	r.Get("/", h.listSales)
	r.Get("/{saleID}", h.getSale)
	r.Route("/units", func(r chi.Router) {
		r.Post("/", h.createUnit)
		r.Get("/", h.listUnits)
		r.Get("/{unitID}", h.getUnit)
		r.Patch("/{unitID}", h.updateUnit)
		r.Post("/{unitID}/sell", h.sellUnit)
	})
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sale, err := h.service.CreateSale(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req ListSalesRequest
	if s := q.Get("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be YYYY-MM-DD")
			return
		}
		req.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be YYYY-MM-DD")
			return
		}
		end := t.Add(24 * time.Hour)
		req.To = &end
	}
	list, err := h.service.ListSales(r.Context(), req)
	if err != nil {
		h.respondErr(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": list})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "saleID")
	if !ok {
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	unit, err := h.service.CreateUnit(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create unit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, unit)
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	var status *UnitStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := UnitStatus(s)
		status = &st
	}
	units, err := h.service.ListUnits(r.Context(), status)
	if err != nil {
		h.respondErr(w, "list units", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"units": units})
}

func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}
	unit, err := h.service.GetUnit(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) updateUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}
	var req UpdateUnitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	unit, err := h.service.UpdateUnit(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "update unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) sellUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}
	var req SellUnitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	unit, err := h.service.SellUnit(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "sell unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not found")
	case errors.Is(err, ErrStockItemNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Stock Item", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrUnitNotAvailable):
		httpx.Problem(w, http.StatusConflict, "Unit Not Available", "unit already sold")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
