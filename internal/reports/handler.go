package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reports module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/summary.csv", h.summaryCSV)
}

// parsePeriod reads from/to query parameters, defaulting to the current
// calendar month.
func parsePeriod(r *http.Request, now time.Time) (Period, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Period{}, fmt.Errorf("invalid from date %q", raw)
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Period{}, fmt.Errorf("invalid to date %q", raw)
		}
		to = t
	}
	if !to.After(from) {
		return Period{}, fmt.Errorf("to must be after from")
	}
	return Period{From: from, To: to}, nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r, time.Now().UTC())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), period)
	if err != nil {
		h.logger.Error("reports: summary failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not build summary")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) summaryCSV(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r, time.Now().UTC())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	doc, err := h.service.SummaryCSV(r.Context(), period)
	if err != nil {
		h.logger.Error("reports: csv export failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not build export")
		return
	}

	filename := fmt.Sprintf("workshop-summary-%s.csv", period.From.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
