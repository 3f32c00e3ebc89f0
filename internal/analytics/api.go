package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

// Handler provides HTTP handlers for analytics
type Handler struct {
	service *Service
	admin   func(http.Handler) http.Handler
}

// NewHandler creates a new analytics handler. The admin middleware
// guards the overview, which is staff-facing.
func NewHandler(service *Service, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = auth.Passthrough()
	}
	return &Handler{service: service, admin: admin}
}

// Routes registers the analytics routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.admin)
	r.Get("/", h.GetOverview)
	return r
}

// GetOverview returns the analytics overview for a trailing window
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	timeframe := DefaultTimeframeDays
	if t := r.URL.Query().Get("timeframe"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n <= 0 || n > 365 {
			writeError(w, errors.BadRequest("timeframe must be between 1 and 365 days"))
			return
		}
		timeframe = n
	}

	overview, err := h.service.Overview(r.Context(), timeframe)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
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
