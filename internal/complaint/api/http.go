package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/complaint/domain"
	"github.com/bihar-gov/sevalink/internal/routing"
	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/events"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// complaintNumberAttempts bounds the retry loop for tracking number
// collisions. The number space makes collisions rare, not impossible.
const complaintNumberAttempts = 5

// Notifier is the notification side-channel. Dispatch is best-effort:
// implementations must never fail the request.
type Notifier interface {
	ComplaintFiled(c *domain.Complaint)
	StatusChanged(c *domain.Complaint, oldStatus domain.Status)
	FeedbackReceived(c *domain.Complaint)
	ComplaintEscalated(c *domain.Complaint)
}

// Handler provides HTTP handlers for the complaint module
type Handler struct {
	repo     domain.Repository
	router   *routing.Engine
	bus      events.Publisher
	notifier Notifier
}

// NewHandler creates a new complaint handler
func NewHandler(repo domain.Repository, router *routing.Engine, bus events.Publisher, notifier Notifier) *Handler {
	return &Handler{repo: repo, router: router, bus: bus, notifier: notifier}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.FileComplaint)
	r.Get("/", h.ListComplaints)

	r.Get("/search", h.SearchComplaints)
	r.Post("/search", h.AdvancedSearch)

	r.Route("/{complaintID}", func(r chi.Router) {
		r.Get("/", h.GetComplaint)
		r.Patch("/status", h.UpdateStatus)
		r.Post("/escalate", h.EscalateComplaint)
		r.Post("/feedback", h.SubmitFeedback)
		r.Get("/feedback", h.GetFeedback)
	})

	return r
}

// FileComplaintRequest is the request to file a new complaint
type FileComplaintRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    domain.Category     `json:"category"`
	Priority    domain.Priority     `json:"priority"`
	Citizen     domain.Citizen      `json:"citizen"`
	Location    domain.Location     `json:"location"`
	Attachments []domain.Attachment `json:"attachments"`
}

// FileComplaint files a new complaint. The complaint is routed to a
// department before it is persisted; when no department can take it
// the complaint is rejected and nothing is stored.
func (h *Handler) FileComplaint(w http.ResponseWriter, r *http.Request) {
	var req FileComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := domain.NewComplaint(
		req.Title, req.Description, req.Category, req.Priority,
		req.Citizen, req.Location, req.Attachments,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	dept, err := h.router.Assign(r.Context(), string(c.Category), c.Location.District, c.Location.State)
	if err != nil {
		writeError(w, err)
		return
	}
	c.AssignDepartment(domain.DepartmentRef{ID: dept.ID, Name: dept.Name})

	if err := h.saveWithFreshNumber(r, c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordComplaintFiled(string(c.Category), string(c.Priority), dept.ShortName)
	h.publishEvents(r, c)
	if h.notifier != nil {
		h.notifier.ComplaintFiled(c)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Complaint submitted successfully",
		"complaint": c,
	})
}

// saveWithFreshNumber retries the save with a regenerated tracking
// number when the generated one collides with an existing complaint.
func (h *Handler) saveWithFreshNumber(r *http.Request, c *domain.Complaint) error {
	for attempt := 0; attempt < complaintNumberAttempts; attempt++ {
		taken, err := h.repo.ComplaintNumberExists(r.Context(), c.ComplaintID)
		if err != nil {
			return err
		}
		if !taken {
			err = h.repo.Save(r.Context(), c)
			if err == nil {
				return nil
			}
			if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != "CONFLICT" {
				return err
			}
		}

		c.ComplaintID = domain.NewComplaintNumber()
	}

	logrus.Warn("exhausted tracking number attempts for new complaint")
	return errors.Internal(fmt.Errorf("could not allocate a unique tracking number"))
}

// GetComplaint returns a complaint with its full timeline, looked up by
// the citizen-facing tracking number
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByComplaintID(r.Context(), chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ListComplaints lists complaints with filters
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page <= 0 {
		page = 1
	}

	filter := domain.ListFilter{
		CitizenEmail: r.URL.Query().Get("email"),
		Limit:        queryInt(r, "limit", 10),
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	filter.Offset = (page - 1) * filter.Limit

	if s := r.URL.Query().Get("status"); s != "" && s != "all" {
		status := domain.Status(s)
		filter.Status = &status
	}
	if c := r.URL.Query().Get("category"); c != "" && c != "all" {
		category := domain.Category(c)
		filter.Category = &category
	}
	if p := r.URL.Query().Get("priority"); p != "" && p != "all" {
		priority := domain.Priority(p)
		filter.Priority = &priority
	}
	if d := r.URL.Query().Get("departmentId"); d != "" {
		id, err := types.ParseID(d)
		if err != nil {
			writeError(w, errors.BadRequest("invalid department ID"))
			return
		}
		filter.DepartmentID = &id
	}

	complaints, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	writeJSON(w, http.StatusOK, map[string]any{
		"data": complaints,
		"pagination": Pagination{
			TotalResults:   total,
			CurrentPage:    page,
			TotalPages:     totalPages,
			ResultsPerPage: filter.Limit,
			HasNextPage:    page < totalPages,
			HasPrevPage:    page > 1,
		},
	})
}

// UpdateStatusRequest is a staff status transition
type UpdateStatusRequest struct {
	Status domain.Status `json:"status"`
	Note   string        `json:"note"`
}

// UpdateStatus transitions a complaint and appends a timeline entry
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, err := requireStaff(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.repo.FindByComplaintID(r.Context(), chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	oldStatus := c.Status
	updatedBy := types.ID("")
	if user != nil {
		updatedBy = user.ID
	}

	if err := c.UpdateStatus(req.Status, req.Note, updatedBy); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.AppendStatusUpdate(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordStatusChange(string(oldStatus), string(c.Status))
	h.publishEvents(r, c)
	if h.notifier != nil {
		h.notifier.StatusChanged(c, oldStatus)
	}

	writeJSON(w, http.StatusOK, c)
}

// EscalateRequest raises a complaint's priority
type EscalateRequest struct {
	Reason      string `json:"reason"`
	EscalatedTo string `json:"escalatedTo"`
}

// EscalateComplaint escalates a complaint one priority level
func (h *Handler) EscalateComplaint(w http.ResponseWriter, r *http.Request) {
	user, err := requireStaff(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.repo.FindByComplaintID(r.Context(), chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	escalatedBy := types.ID("")
	if user != nil {
		escalatedBy = user.ID
	}

	if err := c.Escalate(req.Reason, req.EscalatedTo, escalatedBy); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.AddEscalation(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	h.publishEvents(r, c)
	if h.notifier != nil {
		h.notifier.ComplaintEscalated(c)
	}

	writeJSON(w, http.StatusOK, c)
}

// FeedbackRequest is the citizen's one-time rating
type FeedbackRequest struct {
	Email    string `json:"email"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// SubmitFeedback records citizen feedback on a resolved complaint
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByComplaintID(r.Context(), chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if err := c.SubmitFeedback(req.Rating, req.Feedback, req.Email); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.SetFeedback(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordFeedback(c.Department.Name, req.Rating)
	h.publishEvents(r, c)
	if h.notifier != nil {
		h.notifier.FeedbackReceived(c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Thank you for your feedback",
		"rating":  req.Rating,
	})
}

// GetFeedback returns the citizen's feedback on a complaint, plus
// whether feedback can still be given
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByComplaintID(r.Context(), chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}

	body := map[string]any{
		"complaintId":        c.ComplaintID,
		"rating":             c.Rating,
		"feedback":           c.Feedback,
		"canProvideFeedback": c.Rating == nil && c.Status == domain.StatusResolved,
	}

	writeJSON(w, http.StatusOK, body)
}

// requireStaff rejects citizen-role callers. When the auth middleware
// is not installed (local development) the request passes through.
func requireStaff(r *http.Request) (*auth.User, error) {
	user := auth.GetUser(r.Context())
	if user != nil && user.Role == auth.RoleCitizen {
		return nil, errors.Forbidden("this operation requires department staff access")
	}
	return user, nil
}

// publishEvents publishes pending domain events to the bus
func (h *Handler) publishEvents(r *http.Request, c *domain.Complaint) {
	if h.bus == nil {
		c.GetDomainEvents()
		return
	}

	user := auth.GetUser(r.Context())
	actorID := types.ID("")
	actorRole := "citizen"
	if user != nil {
		actorID = user.ID
		actorRole = user.Role
	}

	for _, de := range c.GetDomainEvents() {
		event := events.NewEvent(de.Type, "complaint", de.Data).WithActor(actorID, actorRole)
		if err := h.bus.Publish(r.Context(), event); err != nil {
			logrus.WithError(err).WithField("type", de.Type).Warn("failed to publish event")
		}
	}
}

// --- Helpers ---

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
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
