package repairs

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the repairs module.
type Handler struct {
	logger  *slog.Logger
	service *CostService
}

// NewHandler constructs repairs handler.
func NewHandler(logger *slog.Logger, service *CostService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers repair job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{jobID}", h.get)
	r.Patch("/{jobID}", h.update)
	r.Put("/{jobID}/status", h.updateStatus)
	r.Put("/{jobID}/final-cost", h.setFinalCost)
	r.Get("/{jobID}/invoice", h.invoice)
	r.Post("/{jobID}/pay", h.markPaid)
	r.Post("/{jobID}/parts", h.addParts)
	r.Post("/{jobID}/services", h.addService)
	r.Delete("/parts/{partID}", h.removePart)
	r.Delete("/services/{serviceID}", h.removeService)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	job, err := h.service.CreateJob(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create job", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, job)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req, err := parseListQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	jobs, err := h.service.ListJobs(r.Context(), req)
	if err != nil {
		h.respondErr(w, "list jobs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get job", err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var req UpdateJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdateJob(r.Context(), id, req); err != nil {
		h.respondErr(w, "update job", err)
		return
	}
	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get job", err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdateStatus(r.Context(), id, req); err != nil {
		h.respondErr(w, "update status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setFinalCost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var req SetFinalCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SetFinalCost(r.Context(), id, req); err != nil {
		h.respondErr(w, "set final cost", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	q := r.URL.Query()
	var labor *float64
	if s := q.Get("labor"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "labor must be a number")
			return
		}
		labor = &v
	}
	includeVAT := q.Get("vat") != "false"
	view, err := h.service.Invoice(r.Context(), id, labor, includeVAT)
	if err != nil {
		h.respondErr(w, "invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var req MarkPaidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	job, err := h.service.MarkPaid(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "mark paid", err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) addParts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var reqs []AddPartRequest
	if err := httpx.DecodeJSON(r, &reqs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	parts, err := h.service.AddParts(r.Context(), id, reqs)
	if err != nil {
		h.respondErr(w, "add parts", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"parts": parts})
}

func (h *Handler) addService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "jobID")
	if !ok {
		return
	}
	var req AddServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	svc, err := h.service.AddService(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "add service", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *Handler) removePart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "partID")
	if !ok {
		return
	}
	if err := h.service.RemovePart(r.Context(), id); err != nil {
		h.respondErr(w, "remove part", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "serviceID")
	if !ok {
		return
	}
	if err := h.service.RemoveService(r.Context(), id); err != nil {
		h.respondErr(w, "remove service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "repair job not found")
	case errors.Is(err, ErrStockItemNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Stock Item", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseListQuery(r *http.Request) (ListJobsRequest, error) {
	q := r.URL.Query()
	var req ListJobsRequest
	if s := q.Get("status"); s != "" {
		status := JobStatus(s)
		if !status.Valid() {
			return req, errors.New("unknown status filter")
		}
		req.Status = &status
	}
	if s := q.Get("payment_status"); s != "" {
		p := PaymentStatus(s)
		req.Payment = &p
	}
	if s := q.Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return req, errors.New("customer_id must be a UUID")
		}
		req.CustomerID = &id
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, errors.New("limit must be an integer")
		}
		req.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, errors.New("offset must be an integer")
		}
		req.Offset = n
	}
	return req, nil
}
