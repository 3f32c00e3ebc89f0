package domain

import (
	"context"
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Repository defines the interface for complaint persistence
type Repository interface {
	// Save persists a new complaint together with its seeded timeline
	Save(ctx context.Context, c *Complaint) error

	FindByID(ctx context.Context, id types.ID) (*Complaint, error)
	FindByComplaintID(ctx context.Context, complaintID string) (*Complaint, error)
	ComplaintNumberExists(ctx context.Context, complaintID string) (bool, error)

	// AppendStatusUpdate persists a status transition and its timeline
	// entries in one transaction
	AppendStatusUpdate(ctx context.Context, c *Complaint) error

	// SetFeedback persists the citizen rating. First writer wins: a
	// concurrent duplicate is rejected at the database.
	SetFeedback(ctx context.Context, c *Complaint) error

	// AddEscalation persists an escalation and its timeline entry
	AddEscalation(ctx context.Context, c *Complaint) error

	List(ctx context.Context, filter ListFilter) ([]Complaint, int, error)
	Search(ctx context.Context, filter SearchFilter) ([]Complaint, int, *Breakdowns, error)
}

// ListFilter defines filters for listing complaints
type ListFilter struct {
	Status       *Status
	Category     *Category
	Priority     *Priority
	CitizenEmail string
	DepartmentID *types.ID
	Limit        int
	Offset       int
}

// SearchFilter defines the full search surface. Simple searches set the
// scalar fields; advanced searches use the list fields.
type SearchFilter struct {
	Query      string
	Category   string
	Status     string
	Priority   string
	Department string
	Email      string
	StartDate  *time.Time
	EndDate    *time.Time

	Categories []string
	Statuses   []string
	Priorities []string
	Districts  []string
	HasRating  *bool
	RatingMin  int
	RatingMax  int

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Breakdowns aggregates counts over the filtered result set, not just
// the returned page.
type Breakdowns struct {
	ByStatus     map[string]int `json:"byStatus"`
	ByCategory   map[string]int `json:"byCategory"`
	ByPriority   map[string]int `json:"byPriority"`
	ByDepartment map[string]int `json:"byDepartment"`
}
