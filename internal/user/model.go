package user

import (
	"strings"
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Permissions granted to staff accounts
const (
	PermComplaintRead     = "complaint.read"
	PermComplaintUpdate   = "complaint.update"
	PermComplaintEscalate = "complaint.escalate"
	PermDepartmentManage  = "department.manage"
	PermUserManage        = "user.manage"
	PermAnalyticsView     = "analytics.view"
)

// AllPermissions lists every known permission, granted to admins
var AllPermissions = []string{
	PermComplaintRead,
	PermComplaintUpdate,
	PermComplaintEscalate,
	PermDepartmentManage,
	PermUserManage,
	PermAnalyticsView,
}

// DepartmentAdminPermissions are granted to department administrators
var DepartmentAdminPermissions = []string{
	PermComplaintRead,
	PermComplaintUpdate,
	PermComplaintEscalate,
	PermAnalyticsView,
}

// User is an account that can act on complaints
type User struct {
	ID           types.ID  `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID *types.ID `json:"departmentId,omitempty"`
	Permissions  []string  `json:"permissions"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateRequest is the payload for creating a user
type CreateRequest struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID *types.ID `json:"departmentId,omitempty"`
	Permissions  []string  `json:"permissions"`
}

// NewUser validates a create request into a user
func NewUser(req CreateRequest) (*User, error) {
	details := map[string]string{}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email address is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "name is required"
	}

	role := req.Role
	if role == "" {
		role = auth.RoleCitizen
	}
	if !validRole(role) {
		details["role"] = "role is not recognized"
	}
	if role == auth.RoleDepartmentAdmin && req.DepartmentID == nil {
		details["departmentId"] = "department administrators need a department"
	}

	if len(details) > 0 {
		return nil, errors.Validation("user validation failed", details)
	}

	now := time.Now()
	permissions := req.Permissions
	if permissions == nil {
		permissions = defaultPermissions(role)
	}

	return &User{
		ID:           types.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		DepartmentID: req.DepartmentID,
		Permissions:  permissions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Can reports whether the user holds a permission
func (u *User) Can(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func validRole(role string) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleDepartmentAdmin, auth.RoleCitizen:
		return true
	}
	return false
}

func defaultPermissions(role string) []string {
	switch role {
	case auth.RoleAdmin:
		return append([]string(nil), AllPermissions...)
	case auth.RoleDepartmentAdmin:
		return append([]string(nil), DepartmentAdminPermissions...)
	}
	return []string{}
}
