package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authHTTP "github.com/KiritoEM/safeo-api/internal/auth/http"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	"github.com/KiritoEM/safeo-api/internal/document/http/dto"
	"github.com/KiritoEM/safeo-api/internal/document/usecase/mocks"
	"github.com/KiritoEM/safeo-api/internal/httputil"
)

var testUserID = uuid.MustParse("0190d6a4-8c1e-7b2a-9f00-1234567890ab")

func setupDocumentTestHandler(t *testing.T, maxUploadSize int64) (*DocumentHandler, *mocks.MockDocumentUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockDocumentUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewDocumentHandler(mockUseCase, maxUploadSize, logger), mockUseCase
}

func newRequest(method, path string, body io.Reader, contentType string, authenticated bool) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authenticated {
		ctx := authHTTP.WithClaims(req.Context(), &authService.Claims{UserID: testUserID})
		req = req.WithContext(ctx)
	}
	return req
}

func createTestContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestDocumentHandler_UploadHandler(t *testing.T) {
	content := []byte("%PDF-1.4 test")

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		info := &documentDomain.DocumentInfo{
			ID:          uuid.Must(uuid.NewV7()),
			FileType:    documentDomain.FileTypePDF,
			AccessLevel: documentDomain.AccessLevelShareable,
			Metadata:    documentDomain.Metadata{OriginalName: "q1.pdf", MimeType: "application/pdf", Size: 13},
			CreatedAt:   time.Now().UTC(),
		}

		mockUseCase.On("Upload", mock.Anything, &documentDomain.UploadInput{
			UserID:       testUserID,
			OriginalName: "q1.pdf",
			AccessLevel:  documentDomain.AccessLevelShareable,
			Content:      content,
		}).Return(info, nil).Once()

		body, contentType := multipartBody(t, "q1.pdf", content, map[string]string{"access_level": "shareable"})
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, true))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeJSON[dto.DocumentResponse](t, w)
		assert.Equal(t, info.ID.String(), resp.ID)
		assert.Equal(t, "q1.pdf", resp.OriginalName)
		assert.Equal(t, "pdf", resp.FileType)
		assert.Equal(t, "shareable", resp.AccessLevel)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		body, contentType := multipartBody(t, "q1.pdf", content, nil)
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, false))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_MissingFile", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		body, contentType := multipartBody(t, "", nil, map[string]string{"access_level": "private"})
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, true))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidAccessLevel", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		body, contentType := multipartBody(t, "q1.pdf", content, map[string]string{"access_level": "public"})
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, true))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_TooLarge", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 8)
		body, contentType := multipartBody(t, "q1.pdf", content, nil)
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, true))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_UnsupportedType", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Upload", mock.Anything, mock.Anything).
			Return(nil, documentDomain.ErrUnsupportedFileType).Once()

		body, contentType := multipartBody(t, "a.exe", []byte{0x4d, 0x5a}, nil)
		c, w := createTestContext(newRequest(http.MethodPost, "/v1/documents", body, contentType, true))

		handler.UploadHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestDocumentHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		infos := []*documentDomain.DocumentInfo{
			{ID: uuid.Must(uuid.NewV7()), FileType: documentDomain.FileTypeCSV, Metadata: documentDomain.Metadata{OriginalName: "a.csv"}},
		}
		mockUseCase.On("List", mock.Anything, testUserID, 0, 10).Return(infos, nil).Once()

		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents?limit=10", nil, "", true))
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeJSON[dto.ListDocumentsResponse](t, w)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "a.csv", resp.Data[0].OriginalName)
	})

	t.Run("Error_InvalidPagination", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents?limit=1000", nil, "", true))
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestDocumentHandler_DownloadHandler(t *testing.T) {
	docID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		output := &documentDomain.DownloadOutput{
			Info: documentDomain.DocumentInfo{
				ID:       docID,
				Metadata: documentDomain.Metadata{OriginalName: "q1 final.pdf", MimeType: "application/pdf"},
			},
			Content: []byte("%PDF-1.4 test"),
		}
		mockUseCase.On("Download", mock.Anything, testUserID, docID).Return(output, nil).Once()

		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/"+docID.String()+"/download", nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.DownloadHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="q1 final.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, output.Content, w.Body.Bytes())
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/nope", nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: "nope"}}
		handler.DownloadHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_Tampered", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Download", mock.Anything, testUserID, docID).
			Return(nil, documentDomain.ErrBlobNotFound).Once()

		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/"+docID.String()+"/download", nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.DownloadHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeJSON[httputil.ErrorResponse](t, w)
		assert.Equal(t, "integrity_error", resp.Error)
	})
}

func TestDocumentHandler_GetHandler(t *testing.T) {
	docID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		info := &documentDomain.DocumentInfo{
			ID:          docID,
			FileType:    documentDomain.FileTypePDF,
			AccessLevel: documentDomain.AccessLevelPrivate,
			Metadata:    documentDomain.Metadata{OriginalName: "lease.pdf", MimeType: "application/pdf", Size: 42},
		}
		mockUseCase.On("Get", mock.Anything, testUserID, docID).Return(info, nil).Once()

		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/"+docID.String(), nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		resp := decodeJSON[dto.DocumentResponse](t, w)
		assert.Equal(t, docID.String(), resp.ID)
		assert.Equal(t, "lease.pdf", resp.OriginalName)
		assert.Equal(t, int64(42), resp.Size)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Get", mock.Anything, testUserID, docID).Return(nil, documentDomain.ErrDocumentNotFound).Once()

		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/"+docID.String(), nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)
		c, w := createTestContext(newRequest(http.MethodGet, "/v1/documents/"+docID.String(), nil, "", false))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDocumentHandler_RenameHandler(t *testing.T) {
	docID := uuid.Must(uuid.NewV7())
	path := "/v1/documents/" + docID.String()

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		info := &documentDomain.DocumentInfo{
			ID:       docID,
			Metadata: documentDomain.Metadata{OriginalName: "renamed.pdf", MimeType: "application/pdf"},
		}
		mockUseCase.On("Rename", mock.Anything, testUserID, docID, "renamed.pdf").Return(info, nil).Once()

		body := bytes.NewBufferString(`{"file_name":"renamed.pdf"}`)
		c, w := createTestContext(newRequest(http.MethodPatch, path, body, "application/json", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.RenameHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeJSON[dto.DocumentResponse](t, w)
		assert.Equal(t, "renamed.pdf", resp.OriginalName)
	})

	t.Run("Error_BlankName", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)

		body := bytes.NewBufferString(`{"file_name":"   "}`)
		c, w := createTestContext(newRequest(http.MethodPatch, path, body, "application/json", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.RenameHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		handler, _ := setupDocumentTestHandler(t, 1024)

		body := bytes.NewBufferString(`{"file_name":`)
		c, w := createTestContext(newRequest(http.MethodPatch, path, body, "application/json", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.RenameHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Rename", mock.Anything, testUserID, docID, "b.pdf").
			Return(nil, documentDomain.ErrDocumentNotFound).Once()

		body := bytes.NewBufferString(`{"file_name":"b.pdf"}`)
		c, w := createTestContext(newRequest(http.MethodPatch, path, body, "application/json", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.RenameHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentHandler_DeleteHandler(t *testing.T) {
	docID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Delete", mock.Anything, testUserID, docID).Return(nil).Once()

		c, w := createTestContext(newRequest(http.MethodDelete, "/v1/documents/"+docID.String(), nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.DeleteHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupDocumentTestHandler(t, 1024)
		mockUseCase.On("Delete", mock.Anything, testUserID, docID).Return(documentDomain.ErrDocumentNotFound).Once()

		c, w := createTestContext(newRequest(http.MethodDelete, "/v1/documents/"+docID.String(), nil, "", true))
		c.Params = gin.Params{{Key: "id", Value: docID.String()}}
		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

