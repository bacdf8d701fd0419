// Package domain defines encrypted documents and the metadata sealed alongside them.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType is the coarse category a document is filed under.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDocs  FileType = "docs"
	FileTypeImage FileType = "image"
	FileTypeCSV   FileType = "csv"
)

// AccessLevel controls whether a document may later be shared.
type AccessLevel string

const (
	AccessLevelPrivate   AccessLevel = "private"
	AccessLevelShareable AccessLevel = "shareable"
)

// Valid reports whether a is a known access level.
func (a AccessLevel) Valid() bool {
	return a == AccessLevelPrivate || a == AccessLevelShareable
}

// MaxFileSize is the upload ceiling when none is configured (50 MiB).
const MaxFileSize int64 = 50 * 1024 * 1024

// MaxNameLength bounds the original name kept in the metadata, in bytes.
const MaxNameLength = 255

var docsMimeTypes = map[string]struct{}{
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.oasis.opendocument.text":                                 {},
	"application/rtf":                                                         {},
	"text/plain":                                                              {},
}

// FileTypeFromMime maps a detected MIME type to a FileType. Parameters such
// as "; charset=utf-8" are ignored.
func FileTypeFromMime(mimeType string) (FileType, error) {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))

	switch {
	case base == "application/pdf":
		return FileTypePDF, nil
	case base == "text/csv":
		return FileTypeCSV, nil
	case strings.HasPrefix(base, "image/"):
		return FileTypeImage, nil
	}
	if _, ok := docsMimeTypes[base]; ok {
		return FileTypeDocs, nil
	}
	return "", ErrUnsupportedFileType
}

// Document is an uploaded file. The payload lives in blob storage under
// StorageKey, sealed with a per-document DEK. EncryptedKey is that DEK wrapped
// by the owner's KEK; EncryptedMetadata is a Metadata value sealed with the DEK.
type Document struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	StorageKey        string
	FileSize          int64
	FileType          FileType
	AccessLevel       AccessLevel
	EncryptedKey      string
	EncryptedMetadata string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StorageKey returns the blob key for a document's payload.
func StorageKey(userID, documentID uuid.UUID) string {
	return "documents/" + userID.String() + "/" + documentID.String()
}

// Metadata is the part of a document's description that is encrypted at rest.
type Metadata struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// UploadInput carries a new document's plaintext.
type UploadInput struct {
	UserID       uuid.UUID
	OriginalName string
	AccessLevel  AccessLevel
	Content      []byte
}

// DocumentInfo is a document with its metadata decrypted.
type DocumentInfo struct {
	ID          uuid.UUID
	FileType    FileType
	AccessLevel AccessLevel
	Metadata    Metadata
	CreatedAt   time.Time
}

// DownloadOutput is a decrypted document.
type DownloadOutput struct {
	Info    DocumentInfo
	Content []byte
}
