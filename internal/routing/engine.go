package routing

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/department"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
)

// categoryMap maps complaint categories to department categories.
var categoryMap = map[string]department.Category{
	"electricity": department.CategoryUtilities,
	"water":       department.CategoryUtilities,
	"railways":    department.CategoryTransportation,
	"roads":       department.CategoryTransportation,
	"municipal":   department.CategoryMunicipal,
	"police":      department.CategoryPolice,
	"health":      department.CategoryHealth,
	"education":   department.CategoryEducation,
}

// fallbackCategory handles "other" and anything unmapped.
const fallbackCategory = department.CategoryMunicipal

// Directory is the slice of the department repository the engine needs.
type Directory interface {
	FindForRouting(ctx context.Context, category department.Category, locationTags []string) ([]department.Department, error)
}

// Engine assigns a responsible department to a new complaint.
type Engine struct {
	directory Directory
}

// NewEngine creates a routing engine over the department directory.
func NewEngine(directory Directory) *Engine {
	return &Engine{directory: directory}
}

// DepartmentCategoryFor maps a complaint category to the department
// category that owns it.
func DepartmentCategoryFor(complaintCategory string) department.Category {
	if c, ok := categoryMap[strings.ToLower(complaintCategory)]; ok {
		return c
	}
	return fallbackCategory
}

// LocationTags builds the lowercase tags a complaint location matches
// against. The wildcard is always included so statewide departments match.
func LocationTags(district, state string) []string {
	tags := []string{department.LocationAll}
	if d := strings.ToLower(strings.TrimSpace(district)); d != "" {
		tags = append(tags, d)
	}
	if s := strings.ToLower(strings.TrimSpace(state)); s != "" {
		tags = append(tags, s)
	}
	return tags
}

// Assign picks the department for a complaint. Candidates are active
// departments in the mapped category serving the complaint's location,
// and the one with the lowest SLA wins (short name breaks ties). When
// nothing matches the complaint is rejected, not parked unassigned.
func (e *Engine) Assign(ctx context.Context, complaintCategory, district, state string) (*department.Department, error) {
	deptCategory := DepartmentCategoryFor(complaintCategory)
	tags := LocationTags(district, state)

	candidates, err := e.directory.FindForRouting(ctx, deptCategory, tags)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		metrics.RecordRoutingFailure(complaintCategory)
		logrus.WithFields(logrus.Fields{
			"category":          complaintCategory,
			"departmentCategory": deptCategory,
			"district":          district,
		}).Warn("no department available for complaint")
		return nil, errors.Conflict("no department available for this complaint category")
	}

	return &candidates[0], nil
}
