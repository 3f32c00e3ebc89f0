package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/department"
	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Seed upserts the platform admin plus one department admin per
// department. Idempotent, deterministic IDs keyed by email.
func Seed(ctx context.Context, repo *Repository, departments []department.Department) error {
	now := time.Now()

	accounts := []User{{
		Email:       "admin@sevalink.bihar.gov.in",
		Name:        "SevaLink Administrator",
		Role:        auth.RoleAdmin,
		Permissions: append([]string(nil), AllPermissions...),
	}}

	for _, d := range departments {
		deptID := d.ID
		accounts = append(accounts, User{
			Email:        fmt.Sprintf("admin.%s@sevalink.bihar.gov.in", strings.ToLower(d.ShortName)),
			Name:         d.Name + " Administrator",
			Role:         auth.RoleDepartmentAdmin,
			DepartmentID: &deptID,
			Permissions:  append([]string(nil), DepartmentAdminPermissions...),
		})
	}

	for _, u := range accounts {
		u.ID = types.NewDeterministicID("user", u.Email)
		u.IsActive = true
		u.CreatedAt = now
		u.UpdatedAt = now

		if err := repo.Upsert(ctx, &u); err != nil {
			return err
		}
	}

	logrus.WithField("count", len(accounts)).Info("staff accounts seeded")
	return nil
}
