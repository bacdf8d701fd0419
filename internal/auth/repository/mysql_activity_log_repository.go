package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/database"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// MySQLActivityLogRepository implements ActivityLog persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLActivityLogRepository struct {
	db *sql.DB
}

// NewMySQLActivityLogRepository creates a new MySQL ActivityLog repository.
func NewMySQLActivityLogRepository(db *sql.DB) *MySQLActivityLogRepository {
	return &MySQLActivityLogRepository{db: db}
}

// Create inserts a new ActivityLog. An empty IP address is stored as NULL.
func (m *MySQLActivityLogRepository) Create(ctx context.Context, activityLog *authDomain.ActivityLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := activityLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal activity log id")
	}

	userID, err := activityLog.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO activity_logs (id, user_id, action, target, ip_address, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		string(activityLog.Action),
		string(activityLog.Target),
		nullableString(activityLog.IPAddress),
		activityLog.CreatedAt,
		activityLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create activity log")
	}

	return nil
}

// ListByUser retrieves a user's activity newest first with offset/limit pagination.
func (m *MySQLActivityLogRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT id, user_id, action, target, COALESCE(ip_address, ''), created_at
			  FROM activity_logs
			  WHERE user_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, userIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list activity logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	logs := make([]*authDomain.ActivityLog, 0)
	for rows.Next() {
		var activityLog authDomain.ActivityLog
		var idBytes, userBytes []byte
		var action, target string

		if err := rows.Scan(
			&idBytes,
			&userBytes,
			&action,
			&target,
			&activityLog.IPAddress,
			&activityLog.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan activity log")
		}

		if err := activityLog.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal activity log id")
		}
		if err := activityLog.UserID.UnmarshalBinary(userBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
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
