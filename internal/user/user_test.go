package user

import (
	"testing"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

func TestNewUserDefaults(t *testing.T) {
	u, err := NewUser(CreateRequest{
		Email: "  Ramesh@Example.COM ",
		Name:  " Ramesh Kumar ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u.Email != "ramesh@example.com" {
		t.Errorf("expected lowercased email, got %q", u.Email)
	}
	if u.Name != "Ramesh Kumar" {
		t.Errorf("expected trimmed name, got %q", u.Name)
	}
	if u.Role != auth.RoleCitizen {
		t.Errorf("expected citizen role by default, got %q", u.Role)
	}
	if len(u.Permissions) != 0 {
		t.Errorf("expected no permissions for citizens, got %v", u.Permissions)
	}
	if !u.IsActive {
		t.Error("expected new users to be active")
	}
	if u.ID.IsZero() {
		t.Error("expected an ID to be assigned")
	}
}

func TestNewUserValidation(t *testing.T) {
	deptID := types.NewID()

	tests := []struct {
		name       string
		req        CreateRequest
		wantDetail string
	}{
		{"missing email", CreateRequest{Name: "X"}, "email"},
		{"malformed email", CreateRequest{Email: "not-an-address", Name: "X"}, "email"},
		{"missing name", CreateRequest{Email: "a@b.in"}, "name"},
		{"unknown role", CreateRequest{Email: "a@b.in", Name: "X", Role: "superuser"}, "role"},
		{"department admin without department", CreateRequest{
			Email: "a@b.in", Name: "X", Role: auth.RoleDepartmentAdmin,
		}, "departmentId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}

			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
			if _, ok := appErr.Details[tt.wantDetail]; !ok {
				t.Errorf("expected detail %q, got %v", tt.wantDetail, appErr.Details)
			}
		})
	}

	// The same request with a department is fine
	u, err := NewUser(CreateRequest{
		Email: "a@b.in", Name: "X", Role: auth.RoleDepartmentAdmin, DepartmentID: &deptID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Can(PermComplaintUpdate) {
		t.Error("expected department admins to update complaints")
	}
}

func TestDefaultPermissionsByRole(t *testing.T) {
	admin, err := NewUser(CreateRequest{Email: "admin@b.in", Name: "Admin", Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range AllPermissions {
		if !admin.Can(p) {
			t.Errorf("expected admin to hold %q", p)
		}
	}

	deptID := types.NewID()
	deptAdmin, err := NewUser(CreateRequest{
		Email: "dept@b.in", Name: "Dept", Role: auth.RoleDepartmentAdmin, DepartmentID: &deptID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deptAdmin.Can(PermUserManage) {
		t.Error("department admins must not manage users")
	}
	if !deptAdmin.Can(PermComplaintRead) {
		t.Error("expected department admins to read complaints")
	}
}

func TestCanIgnoresUnknownPermission(t *testing.T) {
	u := &User{Permissions: []string{PermComplaintRead}}

	if u.Can("complaint.delete") {
		t.Error("expected unknown permission to be denied")
	}
}
