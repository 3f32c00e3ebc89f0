package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
)

// PostgresRepository implements Repository over the complaints tables
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new analytics repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) countsBy(ctx context.Context, column string) (map[string]int, error) {
	// column is caller-controlled, never user input
	query := "SELECT " + column + ", COUNT(*) FROM complaints GROUP BY " + column

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate complaints")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan aggregate row")
		}
		counts[key] = count
	}

	return counts, nil
}

// StatusCounts counts all complaints by status
func (r *PostgresRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	return r.countsBy(ctx, "status")
}

// PriorityCounts counts all complaints by priority
func (r *PostgresRepository) PriorityCounts(ctx context.Context) (map[string]int, error) {
	return r.countsBy(ctx, "priority")
}

// CategoryCounts counts all complaints by category
func (r *PostgresRepository) CategoryCounts(ctx context.Context) (map[string]int, error) {
	return r.countsBy(ctx, "category")
}

// DepartmentAggregates aggregates workload for every active department
// in the directory. Totals span all complaints so idle departments
// still appear; the measured response time only averages complaints
// filed within the window.
func (r *PostgresRepository) DepartmentAggregates(ctx context.Context, since time.Time) ([]DepartmentAggregate, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("analytics_departments", time.Since(start)) }()

	query := `
		SELECT d.name,
			d.response_time,
			COUNT(c.id),
			COUNT(c.id) FILTER (WHERE c.status = 'resolved'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (res.resolved_at - c.created_at)) / 3600)
				FILTER (WHERE c.created_at >= $1), 0)
		FROM departments d
		LEFT JOIN complaints c ON c.department_id = d.id
		LEFT JOIN LATERAL (
			SELECT MIN(t.occurred_at) AS resolved_at
			FROM complaint_timeline t
			WHERE t.complaint_id = c.id AND t.status = 'resolved'
		) res ON c.status = 'resolved'
		WHERE d.is_active
		GROUP BY d.id, d.name, d.response_time`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate departments")
	}
	defer rows.Close()

	var aggregates []DepartmentAggregate
	for rows.Next() {
		var a DepartmentAggregate
		if err := rows.Scan(&a.Name, &a.SLA, &a.Total, &a.Resolved, &a.AvgHours); err != nil {
			return nil, errors.Wrap(err, "failed to scan department aggregate")
		}
		aggregates = append(aggregates, a)
	}

	return aggregates, nil
}

// ResolutionDurations returns, for each resolved complaint in the
// window, the time from filing to the first resolved timeline entry
func (r *PostgresRepository) ResolutionDurations(ctx context.Context, since time.Time) ([]time.Duration, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("analytics_resolution", time.Since(start)) }()

	query := `
		SELECT c.created_at, MIN(t.occurred_at)
		FROM complaints c
		JOIN complaint_timeline t ON t.complaint_id = c.id AND t.status = 'resolved'
		WHERE c.status = 'resolved' AND c.created_at >= $1
		GROUP BY c.id, c.created_at`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query resolution durations")
	}
	defer rows.Close()

	var durations []time.Duration
	for rows.Next() {
		var createdAt, resolvedAt time.Time
		if err := rows.Scan(&createdAt, &resolvedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan resolution row")
		}
		durations = append(durations, resolvedAt.Sub(createdAt))
	}

	return durations, nil
}

// RatingStats sums all citizen ratings
func (r *PostgresRepository) RatingStats(ctx context.Context) (int, int, error) {
	var sum, count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(citizen_rating), 0), COUNT(citizen_rating)
		FROM complaints
		WHERE citizen_rating IS NOT NULL`).Scan(&sum, &count)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to query rating stats")
	}
	return sum, count, nil
}

// MonthlyCounts builds the trailing monthly trend, including empty months
func (r *PostgresRepository) MonthlyCounts(ctx context.Context, months int) ([]MonthBucket, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("analytics_trend", time.Since(start)) }()

	since := time.Now().AddDate(0, -(months - 1), 0)
	monthStart := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM'),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'resolved')
		FROM complaints
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.pool.Query(ctx, query, monthStart)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query monthly trend")
	}
	defer rows.Close()

	byMonth := map[string]MonthBucket{}
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Filed, &b.Resolved); err != nil {
			return nil, errors.Wrap(err, "failed to scan trend row")
		}
		byMonth[b.Month] = b
	}

	trend := make([]MonthBucket, 0, months)
	cursor := monthStart
	for i := 0; i < months; i++ {
		key := cursor.Format("2006-01")
		if b, ok := byMonth[key]; ok {
			trend = append(trend, b)
		} else {
			trend = append(trend, MonthBucket{Month: key})
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	return trend, nil
}

// RecentComplaints returns the newest complaints across all statuses
func (r *PostgresRepository) RecentComplaints(ctx context.Context, limit int) ([]RecentComplaint, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT complaint_id, title, category, status, priority, department_name, created_at
		FROM complaints
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent complaints")
	}
	defer rows.Close()

	recent := make([]RecentComplaint, 0, limit)
	for rows.Next() {
		var c RecentComplaint
		err := rows.Scan(&c.ComplaintID, &c.Title, &c.Category, &c.Status, &c.Priority, &c.Department, &c.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan recent complaint")
		}
		recent = append(recent, c)
	}

	return recent, nil
}
