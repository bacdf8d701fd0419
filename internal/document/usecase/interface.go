// Package usecase implements encrypted document storage.
//
// Every document gets its own DEK, wrapped by the owner's KEK, which is in
// turn wrapped by the master key. The payload and the metadata are sealed
// with the DEK and bound to the document ID, so a payload copied onto another
// document row fails to decrypt.
package usecase

import (
	"context"

	"github.com/google/uuid"

	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// DocumentRepository persists document rows.
type DocumentRepository interface {
	Create(ctx context.Context, document *documentDomain.Document) error
	GetByID(ctx context.Context, userID, documentID uuid.UUID) (*documentDomain.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*documentDomain.Document, error)
	Delete(ctx context.Context, userID, documentID uuid.UUID) error
	UpdateEncryptedMetadata(ctx context.Context, userID, documentID uuid.UUID, encryptedMetadata string) error
}

// UserRepository loads document owners.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
}

// ObjectStore holds the sealed payloads.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PayloadCleanup defers the removal of a payload to a background worker.
type PayloadCleanup interface {
	SchedulePayloadDeletion(ctx context.Context, storageKey string) error
}

// DocumentUseCase defines the document operations.
type DocumentUseCase interface {
	// Upload encrypts and stores a new document.
	Upload(ctx context.Context, input *documentDomain.UploadInput) (*documentDomain.DocumentInfo, error)

	// Download decrypts a document owned by userID. Tampered data returns an
	// ErrIntegrity error.
	Download(ctx context.Context, userID, documentID uuid.UUID) (*documentDomain.DownloadOutput, error)

	// Get returns a document's decrypted metadata without touching its payload.
	Get(ctx context.Context, userID, documentID uuid.UUID) (*documentDomain.DocumentInfo, error)

	// Rename changes a document's original name. The metadata is re-sealed
	// under the same DEK with a fresh nonce.
	Rename(ctx context.Context, userID, documentID uuid.UUID, name string) (*documentDomain.DocumentInfo, error)

	// List returns a user's documents with decrypted metadata, newest first.
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*documentDomain.DocumentInfo, error)

	// Delete removes a document and its payload.
	Delete(ctx context.Context, userID, documentID uuid.UUID) error
}
