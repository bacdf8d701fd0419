package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	"github.com/KiritoEM/safeo-api/internal/database"
	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	"github.com/KiritoEM/safeo-api/internal/storage"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// payloadContentType is the content type of a sealed payload: an envelope string.
const payloadContentType = "text/plain; charset=us-ascii"

// documentUseCase implements DocumentUseCase.
type documentUseCase struct {
	txManager    database.TxManager
	documentRepo DocumentRepository
	userRepo     UserRepository
	store        ObjectStore
	cleanup      PayloadCleanup
	keyManager   cryptoService.KeyManager
	aeadManager  cryptoService.AEADManager
	maxFileSize  int64
	logger       *slog.Logger
	now          func() time.Time
}

// Upload seals input.Content with a fresh DEK and stores it.
//
// The MIME type is sniffed from the content, not taken from the client.
func (d *documentUseCase) Upload(
	ctx context.Context,
	input *documentDomain.UploadInput,
) (*documentDomain.DocumentInfo, error) {
	accessLevel := input.AccessLevel
	if accessLevel == "" {
		accessLevel = documentDomain.AccessLevelPrivate
	}
	if !accessLevel.Valid() {
		return nil, documentDomain.ErrInvalidAccessLevel
	}
	if len(input.Content) == 0 {
		return nil, documentDomain.ErrEmptyFile
	}
	if int64(len(input.Content)) > d.maxFileSize {
		return nil, documentDomain.ErrFileTooLarge
	}

	mimeType := detectMimeType(input.Content, input.OriginalName)
	fileType, err := documentDomain.FileTypeFromMime(mimeType)
	if err != nil {
		return nil, err
	}

	kek, err := d.userKek(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek)

	dek, err := d.keyManager.GenerateResourceDek(kek)
	if err != nil {
		return nil, err
	}
	defer dek.Close()

	aead, err := d.aeadManager.CreateCipher(dek.Plaintext)
	if err != nil {
		return nil, err
	}

	documentID := uuid.Must(uuid.NewV7())
	metadata := documentDomain.Metadata{
		OriginalName: sanitizeName(input.OriginalName),
		MimeType:     mimeType,
		Size:         int64(len(input.Content)),
	}

	sealedContent, err := aead.Encrypt(input.Content, contentAAD(documentID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt document")
	}
	sealedMetadata, err := sealMetadata(aead, documentID, metadata)
	if err != nil {
		return nil, err
	}

	document := &documentDomain.Document{
		ID:                documentID,
		UserID:            input.UserID,
		StorageKey:        documentDomain.StorageKey(input.UserID, documentID),
		FileSize:          metadata.Size,
		FileType:          fileType,
		AccessLevel:       accessLevel,
		EncryptedKey:      dek.Envelope.String(),
		EncryptedMetadata: sealedMetadata.String(),
		CreatedAt:         d.now().UTC(),
	}

	if err := d.store.Put(ctx, document.StorageKey, []byte(sealedContent.String()), payloadContentType); err != nil {
		return nil, err
	}

	if err := d.documentRepo.Create(ctx, document); err != nil {
		if delErr := d.store.Delete(ctx, document.StorageKey); delErr != nil {
			d.schedulePayloadRemoval(ctx, document.StorageKey, delErr)
		}
		return nil, err
	}

	d.logger.Info("document uploaded",
		slog.String("document_id", documentID.String()),
		slog.String("user_id", input.UserID.String()),
		slog.String("file_type", string(fileType)),
		slog.Int64("size", metadata.Size))

	return infoFor(document, metadata), nil
}

// Download loads and decrypts a document.
func (d *documentUseCase) Download(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DownloadOutput, error) {
	document, err := d.documentRepo.GetByID(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	kek, err := d.userKek(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek)

	aead, closeDek, err := d.documentCipher(document, kek)
	if err != nil {
		return nil, err
	}
	defer closeDek()

	metadata, err := openMetadata(aead, document)
	if err != nil {
		return nil, err
	}

	payload, err := d.store.Get(ctx, document.StorageKey)
	if err != nil {
		if apperrors.Is(err, storage.ErrObjectNotFound) {
			return nil, documentDomain.ErrBlobNotFound
		}
		return nil, err
	}

	envelope, err := cryptoDomain.ParseEnvelope(string(payload))
	if err != nil {
		return nil, err
	}
	content, err := aead.Decrypt(envelope, contentAAD(document.ID))
	if err != nil {
		d.logger.Warn("document failed integrity check",
			slog.String("document_id", document.ID.String()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return &documentDomain.DownloadOutput{
		Info:    *infoFor(document, metadata),
		Content: content,
	}, nil
}

// Get decrypts the metadata of a single document.
func (d *documentUseCase) Get(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DocumentInfo, error) {
	document, err := d.documentRepo.GetByID(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	kek, err := d.userKek(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek)

	metadata, err := d.decryptMetadata(document, kek)
	if err != nil {
		return nil, err
	}
	return infoFor(document, metadata), nil
}

// Rename opens the metadata, swaps the original name and seals it again.
// The payload and the wrapped DEK are left untouched.
func (d *documentUseCase) Rename(
	ctx context.Context,
	userID, documentID uuid.UUID,
	name string,
) (*documentDomain.DocumentInfo, error) {
	name = sanitizeName(name)
	if name == "" || len(name) > documentDomain.MaxNameLength {
		return nil, documentDomain.ErrInvalidName
	}

	var info *documentDomain.DocumentInfo
	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		document, err := d.documentRepo.GetByID(ctx, userID, documentID)
		if err != nil {
			return err
		}

		kek, err := d.userKek(ctx, userID)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(kek)

		aead, closeDek, err := d.documentCipher(document, kek)
		if err != nil {
			return err
		}
		defer closeDek()

		metadata, err := openMetadata(aead, document)
		if err != nil {
			return err
		}
		metadata.OriginalName = name

		sealed, err := sealMetadata(aead, document.ID, metadata)
		if err != nil {
			return err
		}
		if err := d.documentRepo.UpdateEncryptedMetadata(ctx, userID, documentID, sealed.String()); err != nil {
			return err
		}

		document.EncryptedMetadata = sealed.String()
		info = infoFor(document, metadata)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("document renamed",
		slog.String("document_id", documentID.String()),
		slog.String("user_id", userID.String()))
	return info, nil
}

// List returns a page of documents with their metadata decrypted.
func (d *documentUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*documentDomain.DocumentInfo, error) {
	documents, err := d.documentRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return []*documentDomain.DocumentInfo{}, nil
	}

	kek, err := d.userKek(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek)

	infos := make([]*documentDomain.DocumentInfo, 0, len(documents))
	for _, document := range documents {
		metadata, err := d.decryptMetadata(document, kek)
		if err != nil {
			return nil, err
		}
		infos = append(infos, infoFor(document, metadata))
	}
	return infos, nil
}

// Delete soft-deletes the row and removes the payload.
//
// The row deletion and the cleanup event commit together, so the payload is
// eventually removed even if the inline delete below fails or never runs.
func (d *documentUseCase) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	var storageKey string
	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		document, err := d.documentRepo.GetByID(ctx, userID, documentID)
		if err != nil {
			return err
		}
		if err := d.documentRepo.Delete(ctx, userID, documentID); err != nil {
			return err
		}
		storageKey = document.StorageKey
		return d.cleanup.SchedulePayloadDeletion(ctx, storageKey)
	})
	if err != nil {
		return err
	}

	if err := d.store.Delete(ctx, storageKey); err != nil {
		d.logger.Warn("inline payload removal failed, left to cleanup worker",
			slog.String("storage_key", storageKey),
			slog.Any("error", err))
	}
	return nil
}

// userKek loads and unwraps the owner's KEK. The caller zeroes it.
func (d *documentUseCase) userKek(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EncryptedKey == "" {
		return nil, userDomain.ErrMissingEncryptionKey
	}

	envelope, err := cryptoDomain.ParseEnvelope(user.EncryptedKey)
	if err != nil {
		return nil, err
	}
	return d.keyManager.UnwrapKek(envelope)
}

// documentCipher unwraps a document's DEK and returns a cipher keyed with it,
// along with a func that zeroes the DEK.
func (d *documentUseCase) documentCipher(
	document *documentDomain.Document,
	kek []byte,
) (cryptoService.AEAD, func(), error) {
	envelope, err := cryptoDomain.ParseEnvelope(document.EncryptedKey)
	if err != nil {
		return nil, nil, err
	}
	dek, err := d.keyManager.UnwrapDek(envelope, kek)
	if err != nil {
		return nil, nil, err
	}
	aead, err := d.aeadManager.CreateCipher(dek)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, nil, err
	}
	return aead, func() { cryptoDomain.Zero(dek) }, nil
}

func (d *documentUseCase) decryptMetadata(
	document *documentDomain.Document,
	kek []byte,
) (documentDomain.Metadata, error) {
	aead, closeDek, err := d.documentCipher(document, kek)
	if err != nil {
		return documentDomain.Metadata{}, err
	}
	defer closeDek()
	return openMetadata(aead, document)
}

// schedulePayloadRemoval hands an orphaned payload to the cleanup worker. An
// orphan is unreadable without its row, so a scheduling failure is only logged.
func (d *documentUseCase) schedulePayloadRemoval(ctx context.Context, key string, cause error) {
	if err := d.cleanup.SchedulePayloadDeletion(ctx, key); err != nil {
		d.logger.Error("failed to remove document payload",
			slog.String("storage_key", key),
			slog.Any("delete_error", cause),
			slog.Any("error", err))
	}
}

func sealMetadata(
	aead cryptoService.AEAD,
	documentID uuid.UUID,
	metadata documentDomain.Metadata,
) (*cryptoDomain.Envelope, error) {
	plaintext, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode document metadata")
	}
	envelope, err := aead.Encrypt(plaintext, metadataAAD(documentID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt document metadata")
	}
	return envelope, nil
}

func openMetadata(aead cryptoService.AEAD, document *documentDomain.Document) (documentDomain.Metadata, error) {
	var metadata documentDomain.Metadata

	envelope, err := cryptoDomain.ParseEnvelope(document.EncryptedMetadata)
	if err != nil {
		return metadata, err
	}
	plaintext, err := aead.Decrypt(envelope, metadataAAD(document.ID))
	if err != nil {
		return metadata, err
	}
	if err := json.Unmarshal(plaintext, &metadata); err != nil {
		return metadata, apperrors.Wrap(apperrors.ErrIntegrity, "corrupt document metadata")
	}
	return metadata, nil
}

func contentAAD(documentID uuid.UUID) []byte {
	return []byte("document:" + documentID.String())
}

func metadataAAD(documentID uuid.UUID) []byte {
	return []byte("metadata:" + documentID.String())
}

// detectMimeType sniffs the content type. CSV has no magic number, so a .csv
// name upgrades a plain-text detection.
func detectMimeType(content []byte, name string) string {
	detected := mimetype.Detect(content)
	if strings.HasPrefix(detected.String(), "text/plain") && strings.EqualFold(filepath.Ext(name), ".csv") {
		return "text/csv"
	}
	return detected.String()
}

// sanitizeName keeps only the base name of a client-supplied file name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func infoFor(document *documentDomain.Document, metadata documentDomain.Metadata) *documentDomain.DocumentInfo {
	return &documentDomain.DocumentInfo{
		ID:          document.ID,
		FileType:    document.FileType,
		AccessLevel: document.AccessLevel,
		Metadata:    metadata,
		CreatedAt:   document.CreatedAt,
	}
}

// NewDocumentUseCase creates a DocumentUseCase. A maxFileSize of zero or less
// uses documentDomain.MaxFileSize.
func NewDocumentUseCase(
	txManager database.TxManager,
	documentRepo DocumentRepository,
	userRepo UserRepository,
	store ObjectStore,
	cleanup PayloadCleanup,
	keyManager cryptoService.KeyManager,
	aeadManager cryptoService.AEADManager,
	maxFileSize int64,
	logger *slog.Logger,
) DocumentUseCase {
	if maxFileSize <= 0 {
		maxFileSize = documentDomain.MaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &documentUseCase{
		txManager:    txManager,
		documentRepo: documentRepo,
		userRepo:     userRepo,
		store:        store,
		cleanup:      cleanup,
		keyManager:   keyManager,
		aeadManager:  aeadManager,
		maxFileSize:  maxFileSize,
		logger:       logger,
		now:          time.Now,
	}
}
