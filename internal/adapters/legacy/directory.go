package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/department"
	"github.com/bihar-gov/sevalink/internal/shared/config"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Directory imports department records from the legacy state registry,
// a SQL Server database still maintained by the administration. The
// import is one-shot at startup; the registry remains the system of
// record for departments created outside SevaLink.
type Directory struct {
	db *sql.DB
}

// DepartmentRow is one record from the legacy registry
type DepartmentRow struct {
	Name         string
	ShortName    string
	Email        string
	Phone        string
	Category     string
	Districts    string
	ResponseTime sql.NullInt64
	Active       bool
}

// Connect opens the legacy registry connection
func Connect(ctx context.Context, cfg config.LegacyConfig) (*Directory, error) {
	connStr := fmt.Sprintf(
		"server=%s;port=%d;database=%s;user id=%s;password=%s;encrypt=true;TrustServerCertificate=true",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password,
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy registry: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping legacy registry: %w", err)
	}

	return &Directory{db: db}, nil
}

// Close closes the registry connection
func (d *Directory) Close() error {
	return d.db.Close()
}

// ImportDepartments copies active registry departments into the local
// directory, skipping rows that cannot be mapped
func (d *Directory) ImportDepartments(ctx context.Context, repo *department.Repository) (int, error) {
	query := `
		SELECT DeptName, DeptCode, ContactEmail, ContactPhone,
		       ServiceCategory, Districts, ResponseTimeHours, IsActive
		FROM dbo.Departments
		WHERE IsActive = 1`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy departments: %w", err)
	}
	defer rows.Close()

	imported := 0
	for rows.Next() {
		var row DepartmentRow
		err := rows.Scan(&row.Name, &row.ShortName, &row.Email, &row.Phone,
			&row.Category, &row.Districts, &row.ResponseTime, &row.Active)
		if err != nil {
			return imported, fmt.Errorf("failed to scan legacy department: %w", err)
		}

		dept, err := mapDepartment(row)
		if err != nil {
			logrus.WithError(err).WithField("department", row.ShortName).
				Warn("skipping unmappable legacy department")
			continue
		}

		if err := repo.Upsert(ctx, dept); err != nil {
			return imported, err
		}
		imported++
	}
	if err := rows.Err(); err != nil {
		return imported, fmt.Errorf("failed to read legacy departments: %w", err)
	}

	logrus.WithField("count", imported).Info("legacy department registry imported")
	return imported, nil
}

// mapDepartment converts a registry row into a local department
func mapDepartment(row DepartmentRow) (*department.Department, error) {
	name := strings.TrimSpace(row.Name)
	shortName := strings.ToUpper(strings.TrimSpace(row.ShortName))
	if name == "" || shortName == "" {
		return nil, fmt.Errorf("missing department name or code")
	}

	category := department.Category(strings.ToLower(strings.TrimSpace(row.Category)))
	if !department.ValidCategory(category) {
		return nil, fmt.Errorf("unknown service category %q", row.Category)
	}

	responseTime := department.DefaultResponseTime
	if row.ResponseTime.Valid && row.ResponseTime.Int64 > 0 {
		responseTime = int(row.ResponseTime.Int64)
	}

	return &department.Department{
		ID:           types.NewDeterministicID("department", shortName),
		Name:         name,
		ShortName:    shortName,
		Email:        strings.ToLower(strings.TrimSpace(row.Email)),
		Phone:        strings.TrimSpace(row.Phone),
		Category:     category,
		Locations:    parseDistricts(row.Districts),
		ResponseTime: responseTime,
		IsActive:     true,
	}, nil
}

// parseDistricts splits the registry's semicolon-separated district
// list into lowercase location tags
func parseDistricts(raw string) []string {
	locations := []string{}
	seen := map[string]bool{}

	for _, part := range strings.Split(raw, ";") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		locations = append(locations, tag)
	}

	if len(locations) == 0 {
		locations = append(locations, department.LocationAll)
	}
	return locations
}
