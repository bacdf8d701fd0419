// Package repository provides data persistence implementations for documents.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/KiritoEM/safeo-api/internal/database"
	"github.com/KiritoEM/safeo-api/internal/document/domain"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

const documentColumns = `id, user_id, storage_key, file_size, file_type, access_level,
	encrypted_key, encrypted_metadata, created_at, updated_at`

// PostgreSQLDocumentRepository handles document persistence for PostgreSQL
type PostgreSQLDocumentRepository struct {
	db *sql.DB
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQLDocumentRepository
func NewPostgreSQLDocumentRepository(db *sql.DB) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{
		db: db,
	}
}

// Create inserts a new document
func (r *PostgreSQLDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO documents (id, user_id, storage_key, file_size, file_type, access_level,
			  encrypted_key, encrypted_metadata, is_deleted, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $9)`

	_, err := querier.ExecContext(
		ctx, query,
		document.ID, document.UserID, document.StorageKey, document.FileSize,
		string(document.FileType), string(document.AccessLevel),
		document.EncryptedKey, document.EncryptedMetadata, document.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}
	return nil
}

// GetByID retrieves a live document owned by userID
func (r *PostgreSQLDocumentRepository) GetByID(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`

	var document domain.Document
	err := scanDocument(querier.QueryRowContext(ctx, query, documentID, userID), &document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}
	return &document, nil
}

// ListByUser returns a user's live documents, newest first
func (r *PostgreSQLDocumentRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE user_id = $1 AND is_deleted = FALSE
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	defer func() {
		_ = rows.Close()
	}()

	documents := make([]*domain.Document, 0, limit)
	for rows.Next() {
		var document domain.Document
		if err := scanDocument(rows, &document); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}
		documents = append(documents, &document)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate documents")
	}

	return documents, nil
}

// Delete soft-deletes a document owned by userID
func (r *PostgreSQLDocumentRepository) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
			  WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`

	result, err := querier.ExecContext(ctx, query, documentID, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete document")
	}
	return requireAffected(result, "failed to delete document")
}

// UpdateEncryptedMetadata replaces the sealed metadata of a live document owned by userID
func (r *PostgreSQLDocumentRepository) UpdateEncryptedMetadata(
	ctx context.Context,
	userID, documentID uuid.UUID,
	encryptedMetadata string,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE documents SET encrypted_metadata = $1, updated_at = NOW()
			  WHERE id = $2 AND user_id = $3 AND is_deleted = FALSE`

	result, err := querier.ExecContext(ctx, query, encryptedMetadata, documentID, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document metadata")
	}
	return requireAffected(result, "failed to update document metadata")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, document *domain.Document) error {
	var fileType, accessLevel string
	err := row.Scan(
		&document.ID, &document.UserID, &document.StorageKey, &document.FileSize, &fileType, &accessLevel,
		&document.EncryptedKey, &document.EncryptedMetadata, &document.CreatedAt, &document.UpdatedAt,
	)
	if err != nil {
		return err
	}
	document.FileType = domain.FileType(fileType)
	document.AccessLevel = domain.AccessLevel(accessLevel)
	return nil
}

func requireAffected(result sql.Result, msg string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, msg)
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
