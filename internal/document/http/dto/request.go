// Package dto provides data transfer objects for document HTTP handlers.
package dto

import (
	validation "github.com/jellydator/validation"

	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	customValidation "github.com/KiritoEM/safeo-api/internal/validation"
)

// UploadRequest holds the non-file fields of a multipart upload.
type UploadRequest struct {
	AccessLevel string `form:"access_level"`
}

// Validate checks if the upload request is valid. An empty access level
// defaults to private.
func (r *UploadRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccessLevel,
			validation.In(
				string(documentDomain.AccessLevelPrivate),
				string(documentDomain.AccessLevelShareable),
			).Error("must be private or shareable"),
		),
	)
}

// RenameRequest changes a document's original name.
type RenameRequest struct {
	FileName string `json:"file_name"`
}

// Validate checks if the rename request is valid.
func (r *RenameRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, documentDomain.MaxNameLength),
		),
	)
}
