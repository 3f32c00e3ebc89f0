package department

import (
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Category defines the service category a department owns
type Category string

const (
	CategoryUtilities      Category = "utilities"
	CategoryTransportation Category = "transportation"
	CategoryMunicipal      Category = "municipal"
	CategoryPolice         Category = "police"
	CategoryHealth         Category = "health"
	CategoryEducation      Category = "education"
	CategoryOther          Category = "other"
)

// ValidCategory reports whether c is a recognized department category
func ValidCategory(c Category) bool {
	switch c {
	case CategoryUtilities, CategoryTransportation, CategoryMunicipal,
		CategoryPolice, CategoryHealth, CategoryEducation, CategoryOther:
		return true
	}
	return false
}

// LocationAll is the wildcard serviceable-location tag: a department
// carrying it accepts complaints from any location.
const LocationAll = "all"

// DefaultResponseTime is the SLA in hours applied when none is configured.
const DefaultResponseTime = 48

// Department is a government service unit that owns resolution of
// complaints in its category and serviceable locations.
type Department struct {
	ID           types.ID  `json:"id"`
	Name         string    `json:"name"`
	ShortName    string    `json:"shortName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Category     Category  `json:"category"`
	Locations    []string  `json:"locations"`
	ResponseTime int       `json:"responseTime"` // SLA in hours
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Serves reports whether the department serves any of the given location tags.
func (d *Department) Serves(locationTags []string) bool {
	for _, loc := range d.Locations {
		if loc == LocationAll {
			return true
		}
		for _, tag := range locationTags {
			if loc == tag {
				return true
			}
		}
	}
	return false
}

// CreateRequest is the request to register a department
type CreateRequest struct {
	Name         string   `json:"name"`
	ShortName    string   `json:"shortName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Category     Category `json:"category"`
	Locations    []string `json:"locations"`
	ResponseTime int      `json:"responseTime"`
}

// UpdateRequest is the request to update a department
type UpdateRequest struct {
	Name         *string   `json:"name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Category     *Category `json:"category,omitempty"`
	Locations    []string  `json:"locations,omitempty"`
	ResponseTime *int      `json:"responseTime,omitempty"`
	IsActive     *bool     `json:"isActive,omitempty"`
}

// ListFilter defines filters for listing departments
type ListFilter struct {
	Category   *Category
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}
