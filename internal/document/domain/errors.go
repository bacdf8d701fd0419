package domain

import (
	"github.com/KiritoEM/safeo-api/internal/errors"
)

var (
	// ErrDocumentNotFound indicates the document does not exist or belongs to another user.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

	// ErrUnsupportedFileType indicates the content is not a pdf, document, image or csv.
	ErrUnsupportedFileType = errors.Wrap(errors.ErrInvalidInput, "unsupported file type")

	// ErrEmptyFile indicates an upload without content.
	ErrEmptyFile = errors.Wrap(errors.ErrInvalidInput, "file is empty")

	// ErrFileTooLarge indicates an upload above the configured size limit.
	ErrFileTooLarge = errors.Wrap(errors.ErrInvalidInput, "file is too large")

	// ErrInvalidAccessLevel indicates an access level other than private or shareable.
	ErrInvalidAccessLevel = errors.Wrap(errors.ErrInvalidInput, "invalid access level")

	// ErrInvalidName indicates an empty or overlong document name.
	ErrInvalidName = errors.Wrap(errors.ErrInvalidInput, "invalid document name")

	// ErrBlobNotFound indicates the payload is missing from storage while its row exists.
	ErrBlobNotFound = errors.Wrap(errors.ErrIntegrity, "document payload missing from storage")
)
