package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/events"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	minDescriptionLength = 10
	maxNoteLength        = 1000
	maxFeedbackLength    = 500
	minFeedbackLength    = 10
)

// Complaint is the aggregate root for a citizen grievance
type Complaint struct {
	ID          types.ID `json:"id"`
	ComplaintID string   `json:"complaintId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	Citizen    Citizen       `json:"citizen"`
	Location   Location      `json:"location"`
	Department DepartmentRef `json:"department"`

	Attachments []Attachment `json:"attachments"`
	Tags        []string     `json:"tags"`
	Escalations []Escalation `json:"escalations,omitempty"`

	Timeline []TimelineEntry `json:"timeline,omitempty"`

	Rating   *int   `json:"rating,omitempty"`
	Feedback string `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Timeline entries appended since load, pending persistence
	pendingTimeline []TimelineEntry

	// Domain events pending publication
	domainEvents []DomainEvent
}

// DomainEvent is a lifecycle fact produced by an aggregate mutation
type DomainEvent struct {
	Type string
	Data map[string]any
}

// NewComplaint files a new complaint with validation. The department is
// assigned separately by the routing engine before the first save.
func NewComplaint(
	title, description string,
	category Category,
	priority Priority,
	citizen Citizen,
	location Location,
	attachments []Attachment,
) (*Complaint, error) {
	details := map[string]string{}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		details["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		details["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}

	if len(description) < minDescriptionLength {
		details["description"] = fmt.Sprintf("description must be at least %d characters", minDescriptionLength)
	} else if len(description) > maxDescriptionLength {
		details["description"] = fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)
	}

	if !ValidCategory(category) {
		details["category"] = "category is not recognized"
	}

	if priority == "" {
		priority = PriorityMedium
	} else if !ValidPriority(priority) {
		details["priority"] = "priority is not recognized"
	}

	if strings.TrimSpace(citizen.Name) == "" {
		details["citizen.name"] = "citizen name is required"
	}
	if strings.TrimSpace(citizen.Email) == "" {
		details["citizen.email"] = "citizen email is required"
	}
	if strings.TrimSpace(location.District) == "" {
		details["location.district"] = "district is required"
	}

	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	if strings.TrimSpace(location.State) == "" {
		location.State = DefaultState
	}
	citizen.Email = strings.ToLower(strings.TrimSpace(citizen.Email))

	if attachments == nil {
		attachments = []Attachment{}
	}

	now := time.Now()
	c := &Complaint{
		ID:          types.NewID(),
		ComplaintID: NewComplaintNumber(),
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      StatusNew,
		Citizen:     citizen,
		Location:    location,
		Attachments: attachments,
		Tags:        GenerateTags(category, title, description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	c.appendTimeline(string(StatusNew), "Complaint submitted successfully", "")

	c.addEvent(events.TypeComplaintFiled, map[string]any{
		"complaint_id": c.ComplaintID,
		"category":     c.Category,
		"priority":     c.Priority,
		"district":     c.Location.District,
	})

	return c, nil
}

// AssignDepartment records the routing decision on the complaint
func (c *Complaint) AssignDepartment(ref DepartmentRef) {
	c.Department = ref
	c.UpdatedAt = time.Now()
}

// UpdateStatus transitions the complaint to a new status. Every
// transition carries a mandatory note and appends one timeline entry.
// Any status may move to any other, including back again.
func (c *Complaint) UpdateStatus(newStatus Status, note string, updatedBy types.ID) error {
	if !ValidStatus(newStatus) {
		return errors.Validation("validation failed", map[string]string{
			"status": "status is not recognized",
		})
	}

	note = strings.TrimSpace(note)
	if note == "" {
		return errors.Validation("validation failed", map[string]string{
			"note": "a note is required for every status update",
		})
	}
	if len(note) > maxNoteLength {
		return errors.Validation("validation failed", map[string]string{
			"note": fmt.Sprintf("note must be at most %d characters", maxNoteLength),
		})
	}

	oldStatus := c.Status
	c.Status = newStatus
	c.UpdatedAt = time.Now()

	c.appendTimeline(string(newStatus), note, updatedBy)

	c.addEvent(events.TypeStatusChanged, map[string]any{
		"complaint_id": c.ComplaintID,
		"old_status":   oldStatus,
		"new_status":   newStatus,
	})

	return nil
}

// SubmitFeedback records the citizen's one-time rating on a resolved
// complaint. Only the filing citizen may rate, and only once. The
// lifecycle status does not change.
func (c *Complaint) SubmitFeedback(rating int, feedback, email string) error {
	if !strings.EqualFold(strings.TrimSpace(email), c.Citizen.Email) {
		return errors.Forbidden("feedback can only be submitted by the citizen who filed the complaint")
	}

	if c.Status != StatusResolved {
		return errors.Conflict("feedback can only be submitted for resolved complaints")
	}

	if c.Rating != nil {
		return errors.Conflict("feedback has already been submitted for this complaint")
	}

	details := map[string]string{}
	if rating < 1 || rating > 5 {
		details["rating"] = "rating must be between 1 and 5"
	}

	feedback = strings.TrimSpace(feedback)
	if len(feedback) < minFeedbackLength {
		details["feedback"] = fmt.Sprintf("feedback must be at least %d characters", minFeedbackLength)
	} else if len(feedback) > maxFeedbackLength {
		details["feedback"] = fmt.Sprintf("feedback must be at most %d characters", maxFeedbackLength)
	}

	if len(details) > 0 {
		return errors.Validation("validation failed", details)
	}

	c.Rating = &rating
	c.Feedback = feedback
	c.UpdatedAt = time.Now()

	c.appendTimeline(TimelineStatusFeedback,
		fmt.Sprintf("Citizen provided feedback with %d star rating", rating), "")

	c.addEvent(events.TypeFeedbackReceived, map[string]any{
		"complaint_id": c.ComplaintID,
		"rating":       rating,
	})

	return nil
}

// Escalate raises the complaint one priority level and records who
// escalated it and why.
func (c *Complaint) Escalate(reason, escalatedTo string, escalatedBy types.ID) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.Validation("validation failed", map[string]string{
			"reason": "an escalation reason is required",
		})
	}

	if c.Status == StatusResolved || c.Status == StatusClosed {
		return errors.Conflict("cannot escalate a resolved or closed complaint")
	}

	level := len(c.Escalations) + 1
	escalation := Escalation{
		Level:       level,
		Reason:      reason,
		EscalatedTo: escalatedTo,
		EscalatedBy: escalatedBy,
		EscalatedAt: time.Now(),
	}

	c.Escalations = append(c.Escalations, escalation)
	c.Priority = c.Priority.Escalated()
	c.UpdatedAt = time.Now()

	c.appendTimeline(string(c.Status),
		fmt.Sprintf("Complaint escalated to level %d: %s", level, reason), escalatedBy)

	c.addEvent(events.TypeComplaintEscalated, map[string]any{
		"complaint_id": c.ComplaintID,
		"level":        level,
		"priority":     c.Priority,
	})

	return nil
}

// PendingTimeline returns and clears timeline entries appended since
// the aggregate was loaded.
func (c *Complaint) PendingTimeline() []TimelineEntry {
	pending := c.pendingTimeline
	c.pendingTimeline = nil
	return pending
}

// GetDomainEvents returns and clears pending domain events
func (c *Complaint) GetDomainEvents() []DomainEvent {
	pending := c.domainEvents
	c.domainEvents = nil
	return pending
}

func (c *Complaint) appendTimeline(status, note string, updatedBy types.ID) {
	entry := TimelineEntry{
		ID:          types.NewID(),
		ComplaintID: c.ID,
		Status:      status,
		Note:        note,
		UpdatedBy:   updatedBy,
		OccurredAt:  time.Now(),
	}

	c.Timeline = append(c.Timeline, entry)
	c.pendingTimeline = append(c.pendingTimeline, entry)
}

func (c *Complaint) addEvent(eventType string, data map[string]any) {
	c.domainEvents = append(c.domainEvents, DomainEvent{Type: eventType, Data: data})
}
