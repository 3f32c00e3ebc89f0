package notification

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

// LogRepository persists dispatch outcomes to the notification log.
// The log is append-only with a rolling retention window.
type LogRepository struct {
	pool       *pgxpool.Pool
	maxEntries int
}

// NewLogRepository creates a new notification log repository
func NewLogRepository(pool *pgxpool.Pool, maxEntries int) *LogRepository {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &LogRepository{pool: pool, maxEntries: maxEntries}
}

// Append records a dispatch outcome and trims entries beyond the
// retention window, oldest first
func (r *LogRepository) Append(ctx context.Context, n *Notification) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO notification_log (
			id, complaint_id, channel, recipient, status, error, retry_count, sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, query,
		n.ID, n.ComplaintID, n.Channel, n.Recipient, n.Status, n.Error,
		n.RetryCount, n.SentAt, n.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append notification log entry")
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM notification_log
		WHERE id NOT IN (
			SELECT id FROM notification_log ORDER BY created_at DESC LIMIT $1
		)`, r.maxEntries)
	if err != nil {
		return errors.Wrap(err, "failed to trim notification log")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// Stats aggregates the retained log
func (r *LogRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByChannel: map[string]int{}}

	rows, err := r.pool.Query(ctx,
		`SELECT channel, status, COUNT(*) FROM notification_log GROUP BY channel, status`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate notification log")
	}
	defer rows.Close()

	for rows.Next() {
		var channel, status string
		var count int
		if err := rows.Scan(&channel, &status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification stats")
		}

		stats.Total += count
		stats.ByChannel[channel] += count
		switch Status(status) {
		case StatusSent:
			stats.Sent += count
		case StatusFailed:
			stats.Failed += count
		case StatusPending:
			stats.Pending += count
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = math.Round(float64(stats.Sent)/float64(stats.Total)*1000) / 10
	}

	return stats, nil
}

// Recent returns the newest log entries, optionally filtered by
// channel and status
func (r *LogRepository) Recent(ctx context.Context, channel, status string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conditions := []string{}
	args := []any{}
	if channel != "" {
		args = append(args, channel)
		conditions = append(conditions, fmt.Sprintf("channel = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, complaint_id, channel, recipient, status, error, retry_count, sent_at, created_at
		FROM notification_log
		%s
		ORDER BY created_at DESC
		LIMIT $%d`, whereClause, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notification log")
	}
	defer rows.Close()

	entries := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		err := rows.Scan(&n.ID, &n.ComplaintID, &n.Channel, &n.Recipient,
			&n.Status, &n.Error, &n.RetryCount, &n.SentAt, &n.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan notification log entry")
		}
		entries = append(entries, n)
	}

	return entries, nil
}
