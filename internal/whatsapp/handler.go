package whatsapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the whatsapp module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers template, log, campaign and manual-run routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Post("/", h.createTemplate)
		r.Get("/", h.listTemplates)
		r.Patch("/{templateID}", h.updateTemplate)
		r.Delete("/{templateID}", h.deleteTemplate)
	})
	r.Get("/messages", h.messages)
	r.Get("/campaigns", h.campaigns)
	r.Get("/stats", h.stats)
	r.Post("/run/triggers", h.runTriggers)
	r.Post("/run/promotion", h.runPromotion)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	template, err := h.service.CreateTemplate(r.Context(), req)
	if err != nil {
		h.respondErr(w, "create template", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, template)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		h.respondErr(w, "list templates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	template, err := h.service.UpdateTemplate(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, "update template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, template)
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTemplate(r.Context(), id); err != nil {
		h.respondErr(w, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "limit must be an integer")
			return
		}
		limit = n
	}
	messages, err := h.service.Messages(r.Context(), limit)
	if err != nil {
		h.respondErr(w, "list messages", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) campaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.Campaigns(r.Context())
	if err != nil {
		h.respondErr(w, "list campaigns", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "days must be an integer")
			return
		}
		days = n
	}
	stats, err := h.service.StatsSince(r.Context(), days)
	if err != nil {
		h.respondErr(w, "message stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) runTriggers(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunTriggers(r.Context())
	if err != nil {
		h.respondErr(w, "run triggers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) runPromotion(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunPromotion(r.Context())
	if err != nil {
		h.respondErr(w, "run promotion", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "templateID must be a UUID")
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
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
