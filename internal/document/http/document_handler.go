// Package http provides HTTP handlers for encrypted document storage.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/KiritoEM/safeo-api/internal/auth/http"
	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	"github.com/KiritoEM/safeo-api/internal/document/http/dto"
	documentUseCase "github.com/KiritoEM/safeo-api/internal/document/usecase"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	"github.com/KiritoEM/safeo-api/internal/httputil"
	customValidation "github.com/KiritoEM/safeo-api/internal/validation"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart framing and form fields.
const multipartOverhead = 1 << 20

// DocumentHandler handles document HTTP operations.
type DocumentHandler struct {
	documentUseCase documentUseCase.DocumentUseCase
	maxUploadSize   int64
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler with required dependencies.
func NewDocumentHandler(
	documentUseCase documentUseCase.DocumentUseCase,
	maxUploadSize int64,
	logger *slog.Logger,
) *DocumentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = documentDomain.MaxFileSize
	}
	return &DocumentHandler{
		documentUseCase: documentUseCase,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

// UploadHandler encrypts and stores a document.
// POST /v1/documents (multipart: file, access_level) - Requires an access token.
// Returns 201 Created with the document metadata.
func (h *DocumentHandler) UploadHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.HandleErrorGin(c, documentDomain.ErrFileTooLarge, h.logger)
			return
		}
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing file field: %w", err), h.logger)
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		httputil.HandleErrorGin(c, documentDomain.ErrFileTooLarge, h.logger)
		return
	}

	var req dto.UploadRequest
	req.AccessLevel = c.PostForm("access_level")
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("unreadable file: %w", err), h.logger)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("unreadable file: %w", err), h.logger)
		return
	}

	info, err := h.documentUseCase.Upload(c.Request.Context(), &documentDomain.UploadInput{
		UserID:       userID,
		OriginalName: fileHeader.Filename,
		AccessLevel:  documentDomain.AccessLevel(req.AccessLevel),
		Content:      content,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDocumentToResponse(info))
}

// ListHandler returns the caller's documents, newest first.
// GET /v1/documents?offset=0&limit=50 - Requires an access token.
func (h *DocumentHandler) ListHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	infos, err := h.documentUseCase.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentsToListResponse(infos))
}

// GetHandler returns a document's decrypted metadata.
// GET /v1/documents/:id - Requires an access token.
func (h *DocumentHandler) GetHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	documentID, ok := h.documentID(c)
	if !ok {
		return
	}

	info, err := h.documentUseCase.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(info))
}

// RenameHandler changes a document's original name.
// PATCH /v1/documents/:id - Requires an access token.
// Returns 200 OK with the updated metadata.
func (h *DocumentHandler) RenameHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	documentID, ok := h.documentID(c)
	if !ok {
		return
	}

	var req dto.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	info, err := h.documentUseCase.Rename(c.Request.Context(), userID, documentID, req.FileName)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(info))
}

// DownloadHandler streams the decrypted document.
// GET /v1/documents/:id/download - Requires an access token.
func (h *DocumentHandler) DownloadHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	documentID, ok := h.documentID(c)
	if !ok {
		return
	}

	output, err := h.documentUseCase.Download(c.Request.Context(), userID, documentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	contentType := output.Info.Metadata.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if name := output.Info.Metadata.OriginalName; name != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	} else {
		c.Header("Content-Disposition", "attachment")
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, output.Content)
}

// DeleteHandler removes a document.
// DELETE /v1/documents/:id - Requires an access token.
// Returns 204 No Content.
func (h *DocumentHandler) DeleteHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	documentID, ok := h.documentID(c)
	if !ok {
		return
	}

	if err := h.documentUseCase.Delete(c.Request.Context(), userID, documentID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := authHTTP.GetUserID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
	}
	return userID, ok
}

func (h *DocumentHandler) documentID(c *gin.Context) (uuid.UUID, bool) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid document ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return documentID, true
}
