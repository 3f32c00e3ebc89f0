package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

// Handler exposes the notification log over HTTP
type Handler struct {
	log   *LogRepository
	admin func(http.Handler) http.Handler
}

// NewHandler creates a new notification handler. The admin middleware
// guards the log, which exposes citizen contact details.
func NewHandler(log *LogRepository, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = auth.Passthrough()
	}
	return &Handler{log: log, admin: admin}
}

// Routes returns the notification routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.admin)
	r.Get("/status", h.Status)
	return r
}

// Status handles GET /api/v1/notifications/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeError(w, errors.Internal(fmt.Errorf("notification log not configured")))
		return
	}

	stats, err := h.log.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	recent, err := h.log.Recent(r.Context(),
		r.URL.Query().Get("channel"), r.URL.Query().Get("status"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":  stats,
		"recent": recent,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := errors.AsAppError(err); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
