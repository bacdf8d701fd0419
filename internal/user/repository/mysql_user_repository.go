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

const mySQLUserColumns = `u.id, u.full_name, u.email, COALESCE(u.password, ''), COALESCE(u.encrypted_key, ''),
	u.storage_limits, u.storage_used, u.is_active, u.refresh_token, a.provider,
	u.last_login_at, u.created_at, u.updated_at`

// MySQLUserRepository handles user persistence for MySQL
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, full_name, email, password, encrypted_key, storage_limits,
			  storage_used, is_active, refresh_token, last_login_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, 0, TRUE, ?, NOW(), NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(
		ctx, query,
		uuidBytes, user.FullName, user.Email, user.Password, user.EncryptedKey, user.StorageLimit, user.RefreshToken,
	)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isMySQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	return r.getOne(ctx, "u.id = ?", uuidBytes, "failed to get user by id")
}

// GetByEmail retrieves a user by email, including the linked OAuth provider if any
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "u.email = ?", email, "failed to get user by email")
}

// GetByRefreshToken retrieves the user currently holding refreshToken
func (r *MySQLUserRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error) {
	return r.getOne(ctx, "u.refresh_token = ?", refreshToken, "failed to get user by refresh token")
}

func (r *MySQLUserRepository) getOne(ctx context.Context, where string, arg any, msg string) (*domain.User, error) {
	var user domain.User
	var idBytes []byte
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mySQLUserColumns + `
			  FROM users u LEFT JOIN accounts a ON a.user_id = u.id
			  WHERE ` + where + ` AND u.is_deleted = FALSE LIMIT 1`

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&idBytes, &user.FullName, &user.Email, &user.Password, &user.EncryptedKey,
		&user.StorageLimit, &user.StorageUsed, &user.IsActive, &user.RefreshToken, &user.OAuthProvider,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, msg)
	}

	// Convert bytes back to UUID
	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &user, nil
}

// UpdateRefreshToken stores or clears (nil) the user's refresh token. A non-nil
// token also records the login time.
func (r *MySQLUserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE users SET refresh_token = ?,
			  last_login_at = IF(? IS NULL, last_login_at, NOW()),
			  updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, refreshToken, refreshToken, uuidBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update refresh token")
	}
	return requireAffected(result, "failed to update refresh token")
}

// ListEncryptedKeys returns up to limit users with a wrapped KEK, ordered by ID
// and starting after the given ID. Pass uuid.Nil for the first page.
func (r *MySQLUserRepository) ListEncryptedKeys(
	ctx context.Context,
	after uuid.UUID,
	limit int,
) ([]domain.EncryptedKeyRow, error) {
	querier := database.GetTx(ctx, r.db)

	afterBytes, err := after.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, encrypted_key FROM users
			  WHERE id > ? AND encrypted_key IS NOT NULL
			  ORDER BY id LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, afterBytes, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list encrypted keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]domain.EncryptedKeyRow, 0, limit)
	for rows.Next() {
		var idBytes []byte
		var row domain.EncryptedKeyRow
		if err := rows.Scan(&idBytes, &row.EncryptedKey); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan encrypted key")
		}
		if err := row.UserID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		keys = append(keys, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate encrypted keys")
	}

	return keys, nil
}

// UpdateEncryptedKey replaces the user's wrapped KEK
func (r *MySQLUserRepository) UpdateEncryptedKey(ctx context.Context, id uuid.UUID, encryptedKey string) error {
	querier := database.GetTx(ctx, r.db)

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE users SET encrypted_key = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, encryptedKey, uuidBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update encrypted key")
	}
	return requireAffected(result, "failed to update encrypted key")
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
