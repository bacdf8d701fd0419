package dto

import (
	"time"

	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
)

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	FileType     string    `json:"file_type"`
	AccessLevel  string    `json:"access_level"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListDocumentsResponse wraps a page of documents.
type ListDocumentsResponse struct {
	Data []DocumentResponse `json:"data"`
}

// MapDocumentToResponse converts a document info to an API response.
func MapDocumentToResponse(info *documentDomain.DocumentInfo) DocumentResponse {
	return DocumentResponse{
		ID:           info.ID.String(),
		OriginalName: info.Metadata.OriginalName,
		MimeType:     info.Metadata.MimeType,
		Size:         info.Metadata.Size,
		FileType:     string(info.FileType),
		AccessLevel:  string(info.AccessLevel),
		CreatedAt:    info.CreatedAt,
	}
}

// MapDocumentsToListResponse converts a page of document infos.
func MapDocumentsToListResponse(infos []*documentDomain.DocumentInfo) ListDocumentsResponse {
	data := make([]DocumentResponse, 0, len(infos))
	for _, info := range infos {
		data = append(data, MapDocumentToResponse(info))
	}
	return ListDocumentsResponse{Data: data}
}
