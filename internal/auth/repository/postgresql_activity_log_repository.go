// Package repository provides persistence for authentication activity logs.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/database"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// PostgreSQLActivityLogRepository implements ActivityLog persistence for PostgreSQL.
type PostgreSQLActivityLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLActivityLogRepository creates a new PostgreSQL ActivityLog repository.
func NewPostgreSQLActivityLogRepository(db *sql.DB) *PostgreSQLActivityLogRepository {
	return &PostgreSQLActivityLogRepository{db: db}
}

// Create inserts a new ActivityLog. An empty IP address is stored as NULL.
func (p *PostgreSQLActivityLogRepository) Create(ctx context.Context, activityLog *authDomain.ActivityLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO activity_logs (id, user_id, action, target, ip_address, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		activityLog.ID,
		activityLog.UserID,
		string(activityLog.Action),
		string(activityLog.Target),
		nullableString(activityLog.IPAddress),
		activityLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create activity log")
	}

	return nil
}

// ListByUser retrieves a user's activity newest first with offset/limit pagination.
func (p *PostgreSQLActivityLogRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, action, target, COALESCE(ip_address, ''), created_at
			  FROM activity_logs
			  WHERE user_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list activity logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	logs := make([]*authDomain.ActivityLog, 0)
	for rows.Next() {
		var activityLog authDomain.ActivityLog
		var action, target string

		if err := rows.Scan(
			&activityLog.ID,
			&activityLog.UserID,
			&action,
			&target,
			&activityLog.IPAddress,
			&activityLog.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan activity log")
		}

		activityLog.Action = authDomain.Action(action)
		activityLog.Target = authDomain.Target(target)
		logs = append(logs, &activityLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate activity logs")
	}

	return logs, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
