package department

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Repository provides database operations for the department directory
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new department repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create registers a new department
func (r *Repository) Create(ctx context.Context, d *Department) error {
	query := `
		INSERT INTO departments (
			id, name, short_name, email, phone, category,
			locations, response_time, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.ShortName, d.Email, d.Phone, d.Category,
		d.Locations, d.ResponseTime, d.IsActive,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("department with this short name already exists")
		}
		return errors.Wrap(err, "failed to create department")
	}

	return nil
}

// Get retrieves a department by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Department, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByShortName retrieves a department by its unique short name
func (r *Repository) GetByShortName(ctx context.Context, shortName string) (*Department, error) {
	return r.getOne(ctx, "short_name = $1", shortName)
}

func (r *Repository) getOne(ctx context.Context, condition string, arg any) (*Department, error) {
	query := fmt.Sprintf(`
		SELECT id, name, short_name, email, phone, category,
			locations, response_time, is_active, created_at, updated_at
		FROM departments
		WHERE %s`, condition)

	d := &Department{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.Name, &d.ShortName, &d.Email, &d.Phone, &d.Category,
		&d.Locations, &d.ResponseTime, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("department", fmt.Sprintf("%v", arg))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get department")
	}

	return d, nil
}

// Update updates a department
func (r *Repository) Update(ctx context.Context, d *Department) error {
	query := `
		UPDATE departments SET
			name = $2, email = $3, phone = $4, category = $5,
			locations = $6, response_time = $7, is_active = $8, updated_at = $9
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.Email, d.Phone, d.Category,
		d.Locations, d.ResponseTime, d.IsActive, time.Now(),
	)

	if err != nil {
		return errors.Wrap(err, "failed to update department")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("department", d.ID.String())
	}

	return nil
}

// Deactivate soft-deletes a department. Departments are never removed:
// existing complaints keep referencing them.
func (r *Repository) Deactivate(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE departments SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate department")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("department", id.String())
	}

	return nil
}

// List lists departments with optional filters
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Department, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, *filter.Category)
		argNum++
	}

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR short_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM departments %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count departments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, short_name, email, phone, category,
			locations, response_time, is_active, created_at, updated_at
		FROM departments
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list departments")
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		err := rows.Scan(
			&d.ID, &d.Name, &d.ShortName, &d.Email, &d.Phone, &d.Category,
			&d.Locations, &d.ResponseTime, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan department")
		}
		departments = append(departments, d)
	}

	return departments, total, nil
}

// FindForRouting returns active departments in the given category whose
// serviceable locations overlap the location tags (or carry the wildcard),
// ordered by lowest SLA then short name so selection is deterministic.
func (r *Repository) FindForRouting(ctx context.Context, category Category, locationTags []string) ([]Department, error) {
	query := `
		SELECT id, name, short_name, email, phone, category,
			locations, response_time, is_active, created_at, updated_at
		FROM departments
		WHERE category = $1
		  AND is_active = TRUE
		  AND (locations && $2 OR $3 = ANY(locations))
		ORDER BY response_time ASC, short_name ASC`

	rows, err := r.pool.Query(ctx, query, category, locationTags, LocationAll)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find departments for routing")
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		err := rows.Scan(
			&d.ID, &d.Name, &d.ShortName, &d.Email, &d.Phone, &d.Category,
			&d.Locations, &d.ResponseTime, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan department")
		}
		departments = append(departments, d)
	}

	return departments, nil
}

// Upsert inserts a department or refreshes an existing row keyed by
// short name. Used by seeding and the legacy directory import.
func (r *Repository) Upsert(ctx context.Context, d *Department) error {
	query := `
		INSERT INTO departments (
			id, name, short_name, email, phone, category,
			locations, response_time, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (short_name) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			category = EXCLUDED.category,
			locations = EXCLUDED.locations,
			response_time = EXCLUDED.response_time,
			updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.ShortName, d.Email, d.Phone, d.Category,
		d.Locations, d.ResponseTime, d.IsActive,
	)

	if err != nil {
		return errors.Wrap(err, "failed to upsert department")
	}

	return nil
}
