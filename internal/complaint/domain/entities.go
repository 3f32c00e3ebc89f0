package domain

import (
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Category defines the complaint category a citizen selects when filing
type Category string

const (
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategoryRailways    Category = "railways"
	CategoryRoads       Category = "roads"
	CategoryMunicipal   Category = "municipal"
	CategoryPolice      Category = "police"
	CategoryHealth      Category = "health"
	CategoryEducation   Category = "education"
	CategoryOther       Category = "other"
)

// ValidCategory reports whether c is a recognized complaint category
func ValidCategory(c Category) bool {
	switch c {
	case CategoryElectricity, CategoryWater, CategoryRailways, CategoryRoads,
		CategoryMunicipal, CategoryPolice, CategoryHealth, CategoryEducation,
		CategoryOther:
		return true
	}
	return false
}

// Priority defines complaint priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a recognized priority
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// escalationOrder ranks priorities for escalation bumps
var escalationOrder = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Escalated returns the next priority up, or the same priority when
// already at the top.
func (p Priority) Escalated() Priority {
	for i, current := range escalationOrder {
		if current == p && i < len(escalationOrder)-1 {
			return escalationOrder[i+1]
		}
	}
	return p
}

// Status defines the complaint lifecycle status
type Status string

const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under_review"
	StatusInProgress  Status = "in_progress"
	StatusResolved    Status = "resolved"
	StatusClosed      Status = "closed"
)

// ValidStatus reports whether s is a recognized lifecycle status
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// TimelineStatusFeedback marks the timeline entry appended when a citizen
// submits feedback. It is a timeline marker, not a lifecycle status.
const TimelineStatusFeedback = "feedback_received"

// Citizen identifies the person who filed the complaint
type Citizen struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Location is where the grievance occurred
type Location struct {
	Address  string `json:"address,omitempty"`
	Pincode  string `json:"pincode"`
	District string `json:"district"`
	State    string `json:"state"`
}

// DefaultState is applied when the citizen leaves state blank
const DefaultState = "Bihar"

// DepartmentRef is the assignment snapshot embedded in a complaint.
// The name is denormalized so listing complaints needs no join.
type DepartmentRef struct {
	ID              types.ID `json:"id"`
	Name            string   `json:"name"`
	AssignedOfficer string   `json:"assignedOfficer,omitempty"`
}

// Attachment is an uploaded file linked to a complaint
type Attachment struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// TimelineEntry is one append-only record of complaint history
type TimelineEntry struct {
	ID          types.ID  `json:"id"`
	ComplaintID types.ID  `json:"-"`
	Status      string    `json:"status"`
	Note        string    `json:"note"`
	UpdatedBy   types.ID  `json:"updatedBy,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Escalation records one escalation of the complaint
type Escalation struct {
	Level       int       `json:"level"`
	Reason      string    `json:"reason"`
	EscalatedTo string    `json:"escalatedTo"`
	EscalatedBy types.ID  `json:"escalatedBy,omitempty"`
	EscalatedAt time.Time `json:"escalatedAt"`
}
