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

// MySQLDocumentRepository handles document persistence for MySQL
type MySQLDocumentRepository struct {
	db *sql.DB
}

// NewMySQLDocumentRepository creates a new MySQLDocumentRepository
func NewMySQLDocumentRepository(db *sql.DB) *MySQLDocumentRepository {
	return &MySQLDocumentRepository{
		db: db,
	}
}

// Create inserts a new document
func (r *MySQLDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, userIDBytes, err := marshalIDs(document.ID, document.UserID)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents (id, user_id, storage_key, file_size, file_type, access_level,
			  encrypted_key, encrypted_metadata, is_deleted, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)`

	_, err = querier.ExecContext(
		ctx, query,
		idBytes, userIDBytes, document.StorageKey, document.FileSize,
		string(document.FileType), string(document.AccessLevel),
		document.EncryptedKey, document.EncryptedMetadata, document.CreatedAt, document.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}
	return nil
}

// GetByID retrieves a live document owned by userID
func (r *MySQLDocumentRepository) GetByID(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, userIDBytes, err := marshalIDs(documentID, userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE id = ? AND user_id = ? AND is_deleted = FALSE`

	document, err := scanMySQLDocument(querier.QueryRowContext(ctx, query, idBytes, userIDBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}
	return document, nil
}

// ListByUser returns a user's live documents, newest first
func (r *MySQLDocumentRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Document, error) {
	querier := database.GetTx(ctx, r.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE user_id = ? AND is_deleted = FALSE
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, userIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	defer func() {
		_ = rows.Close()
	}()

	documents := make([]*domain.Document, 0, limit)
	for rows.Next() {
		document, err := scanMySQLDocument(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}
		documents = append(documents, document)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate documents")
	}

	return documents, nil
}

// Delete soft-deletes a document owned by userID
func (r *MySQLDocumentRepository) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, userIDBytes, err := marshalIDs(documentID, userID)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
			  WHERE id = ? AND user_id = ? AND is_deleted = FALSE`

	result, err := querier.ExecContext(ctx, query, idBytes, userIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete document")
	}
	return requireAffected(result, "failed to delete document")
}

// UpdateEncryptedMetadata replaces the sealed metadata of a live document owned by userID
func (r *MySQLDocumentRepository) UpdateEncryptedMetadata(
	ctx context.Context,
	userID, documentID uuid.UUID,
	encryptedMetadata string,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, userIDBytes, err := marshalIDs(documentID, userID)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET encrypted_metadata = ?, updated_at = NOW()
			  WHERE id = ? AND user_id = ? AND is_deleted = FALSE`

	result, err := querier.ExecContext(ctx, query, encryptedMetadata, idBytes, userIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document metadata")
	}
	return requireAffected(result, "failed to update document metadata")
}

func marshalIDs(id, userID uuid.UUID) ([]byte, []byte, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	return idBytes, userIDBytes, nil
}

func scanMySQLDocument(row rowScanner) (*domain.Document, error) {
	var document domain.Document
	var idBytes, userIDBytes []byte
	var fileType, accessLevel string

	err := row.Scan(
		&idBytes, &userIDBytes, &document.StorageKey, &document.FileSize, &fileType, &accessLevel,
		&document.EncryptedKey, &document.EncryptedMetadata, &document.CreatedAt, &document.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := document.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := document.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	document.FileType = domain.FileType(fileType)
	document.AccessLevel = domain.AccessLevel(accessLevel)

	return &document, nil
}
