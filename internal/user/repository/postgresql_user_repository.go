// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/KiritoEM/safeo-api/internal/database"
	"github.com/KiritoEM/safeo-api/internal/user/domain"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

const postgreSQLUserColumns = `u.id, u.full_name, u.email, COALESCE(u.password, ''), COALESCE(u.encrypted_key, ''),
	u.storage_limits, u.storage_used, u.is_active, u.refresh_token, a.provider,
	u.last_login_at, u.created_at, u.updated_at`

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, full_name, email, password, encrypted_key, storage_limits,
			  storage_used, is_active, refresh_token, last_login_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 0, TRUE, $7, NOW(), NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx, query,
		user.ID, user.FullName, user.Email, user.Password, user.EncryptedKey, user.StorageLimit, user.RefreshToken,
	)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "u.id = $1", id, "failed to get user by id")
}

// GetByEmail retrieves a user by email, including the linked OAuth provider if any
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "u.email = $1", email, "failed to get user by email")
}

// GetByRefreshToken retrieves the user currently holding refreshToken
func (r *PostgreSQLUserRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error) {
	return r.getOne(ctx, "u.refresh_token = $1", refreshToken, "failed to get user by refresh token")
}

func (r *PostgreSQLUserRepository) getOne(ctx context.Context, where string, arg any, msg string) (*domain.User, error) {
	var user domain.User
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgreSQLUserColumns + `
			  FROM users u LEFT JOIN accounts a ON a.user_id = u.id
			  WHERE ` + where + ` AND u.is_deleted = FALSE LIMIT 1`

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.FullName, &user.Email, &user.Password, &user.EncryptedKey,
		&user.StorageLimit, &user.StorageUsed, &user.IsActive, &user.RefreshToken, &user.OAuthProvider,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, msg)
	}

	return &user, nil
}

// UpdateRefreshToken stores or clears (nil) the user's refresh token. A non-nil
// token also records the login time.
func (r *PostgreSQLUserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET refresh_token = $1,
			  last_login_at = CASE WHEN $1::text IS NULL THEN last_login_at ELSE NOW() END,
			  updated_at = NOW()
			  WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, refreshToken, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update refresh token")
	}
	return requireAffected(result, "failed to update refresh token")
}

// ListEncryptedKeys returns up to limit users with a wrapped KEK, ordered by ID
// and starting after the given ID. Pass uuid.Nil for the first page.
func (r *PostgreSQLUserRepository) ListEncryptedKeys(
	ctx context.Context,
	after uuid.UUID,
	limit int,
) ([]domain.EncryptedKeyRow, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, encrypted_key FROM users
			  WHERE id > $1 AND encrypted_key IS NOT NULL
			  ORDER BY id LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list encrypted keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]domain.EncryptedKeyRow, 0, limit)
	for rows.Next() {
		var row domain.EncryptedKeyRow
		if err := rows.Scan(&row.UserID, &row.EncryptedKey); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan encrypted key")
		}
		keys = append(keys, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate encrypted keys")
	}

	return keys, nil
}

// UpdateEncryptedKey replaces the user's wrapped KEK
func (r *PostgreSQLUserRepository) UpdateEncryptedKey(ctx context.Context, id uuid.UUID, encryptedKey string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET encrypted_key = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, encryptedKey, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update encrypted key")
	}
	return requireAffected(result, "failed to update encrypted key")
}

func requireAffected(result sql.Result, msg string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, msg)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
