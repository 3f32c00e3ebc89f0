package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bihar-gov/sevalink/internal/complaint/domain"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const complaintColumns = `
	id, complaint_id, title, description, category, priority, status,
	citizen_name, citizen_email, citizen_phone, citizen_address,
	department_id, department_name, assigned_officer,
	pincode, district, state,
	attachments, tags, escalations,
	citizen_rating, citizen_feedback,
	created_at, updated_at`

// Save saves a new complaint together with its seeded timeline
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Complaint) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_save", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	attachmentsJSON, err := json.Marshal(c.Attachments)
	if err != nil {
		return errors.Wrap(err, "failed to marshal attachments")
	}
	escalationsJSON, err := json.Marshal(c.Escalations)
	if err != nil {
		return errors.Wrap(err, "failed to marshal escalations")
	}

	query := `
		INSERT INTO complaints (
			id, complaint_id, title, description, category, priority, status,
			citizen_name, citizen_email, citizen_phone, citizen_address,
			department_id, department_name, assigned_officer,
			pincode, district, state,
			attachments, tags, escalations,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)`

	_, err = tx.Exec(ctx, query,
		c.ID, c.ComplaintID, c.Title, c.Description, c.Category, c.Priority, c.Status,
		c.Citizen.Name, c.Citizen.Email, c.Citizen.Phone, c.Location.Address,
		c.Department.ID, c.Department.Name, c.Department.AssignedOfficer,
		c.Location.Pincode, c.Location.District, c.Location.State,
		attachmentsJSON, c.Tags, escalationsJSON,
		c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("complaint with this tracking number already exists")
		}
		return errors.Wrap(err, "failed to save complaint")
	}

	for _, entry := range c.PendingTimeline() {
		if err := saveTimelineEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// FindByID finds a complaint by its internal ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	return r.findOne(ctx, "id = $1", id.String(), id.String())
}

// FindByComplaintID finds a complaint by its citizen-facing tracking number
func (r *PostgresRepository) FindByComplaintID(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	return r.findOne(ctx, "complaint_id = $1", complaintID, complaintID)
}

func (r *PostgresRepository) findOne(ctx context.Context, condition, arg, label string) (*domain.Complaint, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_find", time.Since(start)) }()

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s`, complaintColumns, condition)

	row := r.pool.QueryRow(ctx, query, arg)
	c, err := scanComplaint(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", label)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find complaint")
	}

	timeline, err := r.getTimeline(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Timeline = timeline

	return c, nil
}

// ComplaintNumberExists reports whether a tracking number is taken
func (r *PostgresRepository) ComplaintNumberExists(ctx context.Context, complaintID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM complaints WHERE complaint_id = $1)`, complaintID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check complaint number")
	}
	return exists, nil
}

// AppendStatusUpdate persists a status transition and its timeline
// entries in one transaction
func (r *PostgresRepository) AppendStatusUpdate(ctx context.Context, c *domain.Complaint) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_status_update", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`,
		c.ID, c.Status, c.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to update complaint status")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("complaint", c.ComplaintID)
	}

	for _, entry := range c.PendingTimeline() {
		if err := saveTimelineEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// SetFeedback persists the citizen rating. The guard on citizen_rating
// makes the first writer win under concurrent submissions.
func (r *PostgresRepository) SetFeedback(ctx context.Context, c *domain.Complaint) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_set_feedback", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE complaints
		SET citizen_rating = $2, citizen_feedback = $3, updated_at = $4
		WHERE id = $1 AND citizen_rating IS NULL AND status = 'resolved'`,
		c.ID, c.Rating, c.Feedback, c.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to set feedback")
	}
	if result.RowsAffected() == 0 {
		return errors.Conflict("feedback has already been submitted for this complaint")
	}

	for _, entry := range c.PendingTimeline() {
		if err := saveTimelineEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// AddEscalation persists an escalation and its timeline entry
func (r *PostgresRepository) AddEscalation(ctx context.Context, c *domain.Complaint) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_escalate", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	escalationsJSON, err := json.Marshal(c.Escalations)
	if err != nil {
		return errors.Wrap(err, "failed to marshal escalations")
	}

	result, err := tx.Exec(ctx,
		`UPDATE complaints SET escalations = $2, priority = $3, updated_at = $4 WHERE id = $1`,
		c.ID, escalationsJSON, c.Priority, c.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to save escalation")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("complaint", c.ComplaintID)
	}

	for _, entry := range c.PendingTimeline() {
		if err := saveTimelineEntry(ctx, tx, &entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// List lists complaints with filters
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Complaint, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, *filter.Category)
		argNum++
	}

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argNum))
		args = append(args, *filter.Priority)
		argNum++
	}

	if filter.CitizenEmail != "" {
		conditions = append(conditions, fmt.Sprintf("citizen_email = $%d", argNum))
		args = append(args, strings.ToLower(filter.CitizenEmail))
		argNum++
	}

	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", argNum))
		args = append(args, *filter.DepartmentID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM complaints %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count complaints")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM complaints
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, complaintColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	complaints, err := r.queryComplaints(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return complaints, total, nil
}

// Search runs the full search surface and aggregates breakdowns over
// the filtered set
func (r *PostgresRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.Complaint, int, *domain.Breakdowns, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("complaint_search", time.Since(start)) }()

	conditions, args := buildSearchConditions(filter)
	argNum := len(args) + 1

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM complaints %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, nil, errors.Wrap(err, "failed to count search results")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT %s FROM complaints
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, complaintColumns, whereClause, searchOrderBy(filter), argNum, argNum+1)

	pageArgs := append(append([]interface{}{}, args...), limit, offset)

	complaints, err := r.queryComplaints(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, nil, err
	}

	breakdowns, err := r.searchBreakdowns(ctx, whereClause, args)
	if err != nil {
		return nil, 0, nil, err
	}

	return complaints, total, breakdowns, nil
}

// searchSortColumns whitelists sortable columns
var searchSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"priority":   "priority",
	"status":     "status",
	"rating":     "citizen_rating",
}

func searchOrderBy(filter domain.SearchFilter) string {
	column, ok := searchSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	return column + " " + order
}

func buildSearchConditions(filter domain.SearchFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR complaint_id ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $%d))",
			argNum, argNum, argNum, argNum))
		args = append(args, "%"+q+"%")
		argNum++
	}

	// "all" disables a scalar filter
	scalar := func(column, value string) {
		if value != "" && value != "all" {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argNum))
			args = append(args, value)
			argNum++
		}
	}
	scalar("category", filter.Category)
	scalar("status", filter.Status)
	scalar("priority", filter.Priority)

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department_name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Department+"%")
		argNum++
	}

	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("citizen_email = $%d", argNum))
		args = append(args, strings.ToLower(filter.Email))
		argNum++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, *filter.StartDate)
		argNum++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, *filter.EndDate)
		argNum++
	}

	list := func(column string, values []string) {
		if len(values) > 0 {
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", column, argNum))
			args = append(args, values)
			argNum++
		}
	}
	list("category", filter.Categories)
	list("status", filter.Statuses)
	list("priority", filter.Priorities)
	list("district", filter.Districts)

	if filter.HasRating != nil {
		if *filter.HasRating {
			conditions = append(conditions, "citizen_rating IS NOT NULL")
		} else {
			conditions = append(conditions, "citizen_rating IS NULL")
		}
	}

	if filter.RatingMin > 0 {
		conditions = append(conditions, fmt.Sprintf("citizen_rating >= $%d", argNum))
		args = append(args, filter.RatingMin)
		argNum++
	}
	if filter.RatingMax > 0 {
		conditions = append(conditions, fmt.Sprintf("citizen_rating <= $%d", argNum))
		args = append(args, filter.RatingMax)
		argNum++
	}

	return conditions, args
}

func (r *PostgresRepository) searchBreakdowns(ctx context.Context, whereClause string, args []interface{}) (*domain.Breakdowns, error) {
	breakdowns := &domain.Breakdowns{
		ByStatus:     map[string]int{},
		ByCategory:   map[string]int{},
		ByPriority:   map[string]int{},
		ByDepartment: map[string]int{},
	}

	groups := []struct {
		column string
		dest   map[string]int
	}{
		{"status", breakdowns.ByStatus},
		{"category", breakdowns.ByCategory},
		{"priority", breakdowns.ByPriority},
		{"department_name", breakdowns.ByDepartment},
	}

	for _, g := range groups {
		query := fmt.Sprintf(`
			SELECT %s, COUNT(*) FROM complaints
			%s
			GROUP BY %s
			ORDER BY COUNT(*) DESC`, g.column, whereClause, g.column)

		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to aggregate search breakdowns")
		}

		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, errors.Wrap(err, "failed to scan breakdown row")
			}
			if key != "" {
				g.dest[key] = count
			}
		}
		rows.Close()
	}

	return breakdowns, nil
}

func (r *PostgresRepository) queryComplaints(ctx context.Context, query string, args ...interface{}) ([]domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query complaints")
	}
	defer rows.Close()

	complaints := make([]domain.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan complaint")
		}
		complaints = append(complaints, *c)
	}

	return complaints, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*domain.Complaint, error) {
	c := &domain.Complaint{}
	var attachmentsJSON, escalationsJSON []byte
	var feedback *string

	err := row.Scan(
		&c.ID, &c.ComplaintID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status,
		&c.Citizen.Name, &c.Citizen.Email, &c.Citizen.Phone, &c.Location.Address,
		&c.Department.ID, &c.Department.Name, &c.Department.AssignedOfficer,
		&c.Location.Pincode, &c.Location.District, &c.Location.State,
		&attachmentsJSON, &c.Tags, &escalationsJSON,
		&c.Rating, &feedback,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if feedback != nil {
		c.Feedback = *feedback
	}

	if err := json.Unmarshal(attachmentsJSON, &c.Attachments); err != nil {
		c.Attachments = []domain.Attachment{}
	}
	if err := json.Unmarshal(escalationsJSON, &c.Escalations); err != nil {
		c.Escalations = nil
	}

	return c, nil
}

func saveTimelineEntry(ctx context.Context, tx pgx.Tx, e *domain.TimelineEntry) error {
	query := `
		INSERT INTO complaint_timeline (
			id, complaint_id, status, note, updated_by, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.ComplaintID, e.Status, e.Note, e.UpdatedBy, e.OccurredAt)
	if err != nil {
		return errors.Wrap(err, "failed to save timeline entry")
	}

	return nil
}

func (r *PostgresRepository) getTimeline(ctx context.Context, complaintID types.ID) ([]domain.TimelineEntry, error) {
	query := `
		SELECT id, complaint_id, status, note, updated_by, occurred_at
		FROM complaint_timeline
		WHERE complaint_id = $1
		ORDER BY occurred_at`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get timeline")
	}
	defer rows.Close()

	var timeline []domain.TimelineEntry
	for rows.Next() {
		var e domain.TimelineEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Status, &e.Note, &e.UpdatedBy, &e.OccurredAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan timeline entry")
		}
		timeline = append(timeline, e)
	}

	return timeline, nil
}
