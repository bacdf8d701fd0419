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

	"github.com/KiritoEM/safeo-api/internal/document/domain"
	"github.com/KiritoEM/safeo-api/internal/testutil"
)

var documentRowColumns = []string{
	"id", "user_id", "storage_key", "file_size", "file_type", "access_level",
	"encrypted_key", "encrypted_metadata", "created_at", "updated_at",
}

func newTestDocument() *domain.Document {
	userID := uuid.Must(uuid.NewV7())
	id := uuid.Must(uuid.NewV7())
	return &domain.Document{
		ID:                id,
		UserID:            userID,
		StorageKey:        domain.StorageKey(userID, id),
		FileSize:          1024,
		FileType:          domain.FileTypePDF,
		AccessLevel:       domain.AccessLevelPrivate,
		EncryptedKey:      "aa:bb:cc",
		EncryptedMetadata: "dd:ee:ff",
		CreatedAt:         time.Now().UTC(),
	}
}

func TestPostgreSQLDocumentRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)
		doc := newTestDocument()

		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.ID, doc.UserID, doc.StorageKey, doc.FileSize, "pdf", "private",
				doc.EncryptedKey, doc.EncryptedMetadata, doc.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, doc))
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("connection reset"))

		assert.ErrorContains(t, repo.Create(ctx, newTestDocument()), "failed to create document")
	})
}

func TestPostgreSQLDocumentRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	doc := newTestDocument()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectQuery("FROM documents").
			WithArgs(doc.ID, doc.UserID).
			WillReturnRows(sqlmock.NewRows(documentRowColumns).AddRow(
				doc.ID.String(), doc.UserID.String(), doc.StorageKey, doc.FileSize, "image", "shareable",
				doc.EncryptedKey, doc.EncryptedMetadata, doc.CreatedAt, doc.CreatedAt,
			))

		got, err := repo.GetByID(ctx, doc.UserID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, domain.FileTypeImage, got.FileType)
		assert.Equal(t, domain.AccessLevelShareable, got.AccessLevel)
		assert.Equal(t, doc.EncryptedKey, got.EncryptedKey)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectQuery("FROM documents").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, doc.UserID, doc.ID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestPostgreSQLDocumentRepository_ListByUser(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLDocumentRepository(db)
	doc := newTestDocument()

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).
		WithArgs(doc.UserID, 10, 0).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).AddRow(
			doc.ID.String(), doc.UserID.String(), doc.StorageKey, doc.FileSize, "pdf", "private",
			doc.EncryptedKey, doc.EncryptedMetadata, doc.CreatedAt, doc.CreatedAt,
		))

	docs, err := repo.ListByUser(context.Background(), doc.UserID, 0, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.StorageKey, docs[0].StorageKey)
}

func TestPostgreSQLDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	doc := newTestDocument()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("UPDATE documents SET is_deleted = TRUE").
			WithArgs(doc.ID, doc.UserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, doc.UserID, doc.ID))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("UPDATE documents SET is_deleted = TRUE").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, doc.UserID, doc.ID), domain.ErrDocumentNotFound)
	})
}

func TestMySQLDocumentRepository_Create(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewMySQLDocumentRepository(db)
	doc := newTestDocument()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(testutil.UUIDBytes(t, doc.ID), testutil.UUIDBytes(t, doc.UserID), doc.StorageKey, doc.FileSize,
			"pdf", "private", doc.EncryptedKey, doc.EncryptedMetadata, doc.CreatedAt, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), doc))
}

func TestMySQLDocumentRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	doc := newTestDocument()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLDocumentRepository(db)

		mock.ExpectQuery("FROM documents").
			WithArgs(testutil.UUIDBytes(t, doc.ID), testutil.UUIDBytes(t, doc.UserID)).
			WillReturnRows(sqlmock.NewRows(documentRowColumns).AddRow(
				testutil.UUIDBytes(t, doc.ID), testutil.UUIDBytes(t, doc.UserID), doc.StorageKey, doc.FileSize,
				"csv", "private", doc.EncryptedKey, doc.EncryptedMetadata, doc.CreatedAt, doc.CreatedAt,
			))

		got, err := repo.GetByID(ctx, doc.UserID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, doc.UserID, got.UserID)
		assert.Equal(t, domain.FileTypeCSV, got.FileType)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLDocumentRepository(db)

		mock.ExpectQuery("FROM documents").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, doc.UserID, doc.ID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestMySQLDocumentRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMockDB(t)
	repo := NewMySQLDocumentRepository(db)
	doc := newTestDocument()

	mock.ExpectQuery("FROM documents").
		WithArgs(testutil.UUIDBytes(t, doc.UserID), 5, 5).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	mock.ExpectExec("UPDATE documents SET is_deleted = TRUE").
		WithArgs(testutil.UUIDBytes(t, doc.ID), testutil.UUIDBytes(t, doc.UserID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	docs, err := repo.ListByUser(ctx, doc.UserID, 5, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.NoError(t, repo.Delete(ctx, doc.UserID, doc.ID))
}

func TestPostgreSQLDocumentRepository_UpdateEncryptedMetadata(t *testing.T) {
	ctx := context.Background()
	doc := newTestDocument()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("UPDATE documents SET encrypted_metadata").
			WithArgs("11:22:33", doc.ID, doc.UserID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateEncryptedMetadata(ctx, doc.UserID, doc.ID, "11:22:33"))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("UPDATE documents SET encrypted_metadata").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateEncryptedMetadata(ctx, doc.UserID, doc.ID, "11:22:33")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Error_Driver", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec("UPDATE documents SET encrypted_metadata").
			WillReturnError(errors.New("connection reset"))

		err := repo.UpdateEncryptedMetadata(ctx, doc.UserID, doc.ID, "11:22:33")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update document metadata")
	})
}

func TestMySQLDocumentRepository_UpdateEncryptedMetadata(t *testing.T) {
	ctx := context.Background()
	db, mock := testutil.NewMockDB(t)
	repo := NewMySQLDocumentRepository(db)
	doc := newTestDocument()

	mock.ExpectExec("UPDATE documents SET encrypted_metadata").
		WithArgs("11:22:33", testutil.UUIDBytes(t, doc.ID), testutil.UUIDBytes(t, doc.UserID)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET encrypted_metadata").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.UpdateEncryptedMetadata(ctx, doc.UserID, doc.ID, "11:22:33"))
	assert.ErrorIs(t, repo.UpdateEncryptedMetadata(ctx, doc.UserID, doc.ID, "11:22:33"), domain.ErrDocumentNotFound)
}
