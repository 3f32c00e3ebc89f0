package department

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Handler provides HTTP handlers for the department directory
type Handler struct {
	repo  *Repository
	admin func(http.Handler) http.Handler
}

// NewHandler creates a new department handler. The admin middleware
// guards the mutating routes; reads stay public.
func NewHandler(repo *Repository, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = auth.Passthrough()
	}
	return &Handler{repo: repo, admin: admin}
}

// Routes registers the department routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDepartments)
	r.With(h.admin).Post("/", h.CreateDepartment)

	r.Route("/{departmentID}", func(r chi.Router) {
		r.Get("/", h.GetDepartment)
		r.With(h.admin).Put("/", h.UpdateDepartment)
		r.With(h.admin).Delete("/", h.DeactivateDepartment)
	})

	return r
}

// ListDepartments lists departments
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("includeInactive") != "true",
	}

	if c := r.URL.Query().Get("category"); c != "" {
		category := Category(c)
		if !ValidCategory(category) {
			writeError(w, errors.BadRequest("invalid department category"))
			return
		}
		filter.Category = &category
	}

	departments, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  departments,
		"total": total,
	})
}

// GetDepartment gets a department by ID
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "departmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid department ID"))
		return
	}

	d, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// CreateDepartment registers a new department
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if req.Name == "" {
		details["name"] = "name is required"
	}
	if req.ShortName == "" {
		details["shortName"] = "shortName is required"
	}
	if req.Email == "" {
		details["email"] = "email is required"
	}
	if !ValidCategory(req.Category) {
		details["category"] = "category must be a recognized department category"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	responseTime := req.ResponseTime
	if responseTime <= 0 {
		responseTime = DefaultResponseTime
	}

	locations := req.Locations
	if len(locations) == 0 {
		locations = []string{LocationAll}
	}

	d := &Department{
		ID:           types.NewID(),
		Name:         req.Name,
		ShortName:    req.ShortName,
		Email:        req.Email,
		Phone:        req.Phone,
		Category:     req.Category,
		Locations:    locations,
		ResponseTime: responseTime,
		IsActive:     true,
	}

	if err := h.repo.Create(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// UpdateDepartment updates a department
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "departmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid department ID"))
		return
	}

	d, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Email != nil {
		d.Email = *req.Email
	}
	if req.Phone != nil {
		d.Phone = *req.Phone
	}
	if req.Category != nil {
		if !ValidCategory(*req.Category) {
			writeError(w, errors.BadRequest("invalid department category"))
			return
		}
		d.Category = *req.Category
	}
	if req.Locations != nil {
		d.Locations = req.Locations
	}
	if req.ResponseTime != nil {
		if *req.ResponseTime <= 0 {
			writeError(w, errors.BadRequest("responseTime must be positive"))
			return
		}
		d.ResponseTime = *req.ResponseTime
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}

	if err := h.repo.Update(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// DeactivateDepartment deactivates a department
func (h *Handler) DeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "departmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid department ID"))
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

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
