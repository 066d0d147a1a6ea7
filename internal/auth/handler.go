package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/httpx"
)

// Handler manages gate endpoints.
type Handler struct {
	logger *slog.Logger
	gate   *Gate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, gate *Gate) *Handler {
	return &Handler{logger: logger, gate: gate}
}

// MountRoutes registers gate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/unlock", h.unlock)
	r.Post("/lock", h.lock)
}

type unlockRequest struct {
	Password string `json:"password"`
}

type unlockResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	token, err := h.gate.Unlock(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrBadPassword) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid password")
			return
		}
		h.logger.Error("gate unlock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, unlockResponse{Token: token, ExpiresIn: int64(h.gate.TTL().Seconds())})
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Lock(r.Context(), BearerToken(r)); err != nil {
		h.logger.Warn("gate lock", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware rejects requests that do not carry a live gate token.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.gate.Verify(r.Context(), BearerToken(r)); err != nil {
			if errors.Is(err, ErrTokenInvalid) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "gate token required")
				return
			}
			h.logger.Error("gate verify", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
