package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KiritoEM/safeo-api/internal/database"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	"github.com/KiritoEM/safeo-api/internal/testutil"
	"github.com/KiritoEM/safeo-api/internal/user/domain"
)

var userColumns = []string{
	"id", "full_name", "email", "password", "encrypted_key", "storage_limits", "storage_used",
	"is_active", "refresh_token", "provider", "last_login_at", "created_at", "updated_at",
}

func newTestUser() *domain.User {
	refresh := "refresh.jwt"
	return &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		Password:     "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		EncryptedKey: "00:11:22",
		StorageLimit: domain.DefaultStorageLimit,
		RefreshToken: &refresh,
	}
}

func TestPostgreSQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		user := newTestUser()

		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.FullName, user.Email, user.Password, user.EncryptedKey, user.StorageLimit, user.RefreshToken).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, user))
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

		err := repo.Create(ctx, newTestUser())
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("Success_WithinTransaction", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		txManager := database.NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, newTestUser())
		})
		assert.NoError(t, err)
	})
}

func TestPostgreSQLUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success_WithOAuthProvider", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		id := uuid.Must(uuid.NewV7())

		rows := sqlmock.NewRows(userColumns).
			AddRow(id.String(), "Jane Doe", "jane@example.com", "", "", domain.DefaultStorageLimit, 0, true, nil, "google", now, now, now)
		mock.ExpectQuery("FROM users u LEFT JOIN accounts a").
			WithArgs("jane@example.com").
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.True(t, user.HasOAuthAccount())
		assert.Nil(t, user.RefreshToken)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery("FROM users u").WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery("FROM users u").WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByEmail(ctx, "jane@example.com")
		assert.ErrorContains(t, err, "failed to get user by email")
	})
}

func TestPostgreSQLUserRepository_GetByRefreshToken(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	now := time.Now().UTC()
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`u.refresh_token = \$1`).
		WithArgs("refresh.jwt").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), "Jane Doe", "jane@example.com", "hash", "a:b:c", 1, 0, true, "refresh.jwt", nil, now, now, now))

	user, err := repo.GetByRefreshToken(context.Background(), "refresh.jwt")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, "refresh.jwt", *user.RefreshToken)
	assert.False(t, user.HasOAuthAccount())
}

func TestPostgreSQLUserRepository_UpdateRefreshToken(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success_Clear", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec("UPDATE users SET refresh_token").
			WithArgs(nil, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRefreshToken(ctx, id, nil))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLUserRepository(db)
		token := "t"

		mock.ExpectExec("UPDATE users SET refresh_token").
			WithArgs(&token, id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateRefreshToken(ctx, id, &token), domain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_EncryptedKeys(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLUserRepository(db)
	id1 := uuid.Must(uuid.NewV7())
	id2 := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT id, encrypted_key FROM users").
		WithArgs(uuid.Nil, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "encrypted_key"}).AddRow(id1.String(), "k1").AddRow(id2.String(), "k2"))
	mock.ExpectExec("UPDATE users SET encrypted_key").
		WithArgs("k1-new", id1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.ListEncryptedKeys(ctx, uuid.Nil, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, id1, rows[0].UserID)
	assert.Equal(t, "k2", rows[1].EncryptedKey)

	assert.NoError(t, repo.UpdateEncryptedKey(ctx, id1, "k1-new"))
}

func TestMySQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLUserRepository(db)
		user := newTestUser()

		mock.ExpectExec("INSERT INTO users").
			WithArgs(testutil.UUIDBytes(t, user.ID), user.FullName, user.Email, user.Password,
				user.EncryptedKey, user.StorageLimit, user.RefreshToken).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, user))
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLUserRepository(db)

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'jane@example.com' for key 'users.email'"))

		assert.ErrorIs(t, repo.Create(ctx, newTestUser()), domain.ErrUserAlreadyExists)
	})
}

func TestMySQLUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLUserRepository(db)

		mock.ExpectQuery("FROM users u LEFT JOIN accounts a").
			WithArgs(testutil.UUIDBytes(t, id)).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(testutil.UUIDBytes(t, id), "Jane Doe", "jane@example.com", "hash", "a:b:c", 1, 0, true, nil, nil, now, now, now))

		user, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "a:b:c", user.EncryptedKey)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLUserRepository(db)

		mock.ExpectQuery("FROM users u").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestMySQLUserRepository_EncryptedKeys(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMockDB(t)
	repo := NewMySQLUserRepository(db)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT id, encrypted_key FROM users").
		WithArgs(testutil.UUIDBytes(t, uuid.Nil), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "encrypted_key"}).AddRow(testutil.UUIDBytes(t, id), "k1"))
	mock.ExpectExec("UPDATE users SET encrypted_key").
		WithArgs("k2", testutil.UUIDBytes(t, id)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.ListEncryptedKeys(ctx, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].UserID)

	assert.ErrorIs(t, repo.UpdateEncryptedKey(ctx, id, "k2"), domain.ErrUserNotFound)
}
