package user

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

const userColumns = `id, email, name, role, department_id, permissions, is_active, created_at, updated_at`

// Repository provides access to user storage
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new user
func (r *Repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.Role, u.DepartmentID, u.Permissions,
		u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("a user with this email already exists")
		}
		return errors.Wrap(err, "failed to create user")
	}

	return nil
}

// GetByID retrieves a user by row ID
func (r *Repository) GetByID(ctx context.Context, id types.ID) (*User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email, matched lowercase
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) getOne(ctx context.Context, condition string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + condition

	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.DepartmentID, &u.Permissions,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", "")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return &u, nil
}

// List returns active users, optionally filtered by department
func (r *Repository) List(ctx context.Context, departmentID *types.ID) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE`
	args := []any{}

	if departmentID != nil {
		query += ` AND department_id = $1`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.Role, &u.DepartmentID, &u.Permissions,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, u)
	}

	return users, nil
}

// Update saves mutable user fields
func (r *Repository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET name = $2, role = $3, department_id = $4, permissions = $5,
		    is_active = $6, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Role, u.DepartmentID, u.Permissions, u.IsActive,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", u.ID.String())
	}

	return nil
}

// Upsert inserts a user or refreshes role and permissions on email
// conflict. Used by seeding.
func (r *Repository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			department_id = EXCLUDED.department_id,
			permissions = EXCLUDED.permissions,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.Role, u.DepartmentID, u.Permissions,
		u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert user")
	}

	return nil
}
