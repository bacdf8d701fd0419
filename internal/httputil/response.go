// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// unavailableRetryAfter is the Retry-After hint, in seconds, sent with 503 responses.
const unavailableRetryAfter = "5"

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ties a domain sentinel to the response it produces. When
// passthrough is set the error text is safe to show to the client.
type errorMapping struct {
	target      error
	status      int
	response    ErrorResponse
	passthrough bool
}

// Order matters: flow errors wrap ErrUnauthorized and must match first.
var errorMappings = []errorMapping{
	{
		target:   apperrors.ErrNotFound,
		status:   http.StatusNotFound,
		response: ErrorResponse{Error: "not_found", Message: "The requested resource was not found"},
	},
	{
		target:   apperrors.ErrConflict,
		status:   http.StatusConflict,
		response: ErrorResponse{Error: "conflict", Message: "A conflict occurred with existing data"},
	},
	{
		target:      apperrors.ErrInvalidInput,
		status:      http.StatusUnprocessableEntity,
		response:    ErrorResponse{Error: "invalid_input"},
		passthrough: true,
	},
	{
		target: apperrors.ErrCodeExpired,
		status: http.StatusUnauthorized,
		response: ErrorResponse{
			Error:   "unauthorized",
			Message: "The one-time password has expired, please request a new one",
			Code:    "otp_expired",
		},
	},
	{
		target: apperrors.ErrSessionExpired,
		status: http.StatusUnauthorized,
		response: ErrorResponse{
			Error:   "unauthorized",
			Message: "The verification session has expired, please start again",
			Code:    "session_expired",
		},
	},
	{
		target: apperrors.ErrWrongCredential,
		status: http.StatusUnauthorized,
		response: ErrorResponse{
			Error:   "unauthorized",
			Message: "The provided credentials are incorrect",
			Code:    "wrong_credential",
		},
	},
	{
		target:   apperrors.ErrUnauthorized,
		status:   http.StatusUnauthorized,
		response: ErrorResponse{Error: "unauthorized", Message: "Authentication is required"},
	},
	{
		target:   apperrors.ErrForbidden,
		status:   http.StatusForbidden,
		response: ErrorResponse{Error: "forbidden", Message: "You don't have permission to access this resource"},
	},
	{
		target:   apperrors.ErrIntegrity,
		status:   http.StatusUnprocessableEntity,
		response: ErrorResponse{Error: "integrity_error", Message: "Stored data failed its integrity check"},
	},
	{
		target: apperrors.ErrUnavailable,
		status: http.StatusServiceUnavailable,
		response: ErrorResponse{
			Error:   "service_unavailable",
			Message: "A backing service is temporarily unavailable, please retry",
		},
	},
	{
		target:   apperrors.ErrConfiguration,
		status:   http.StatusInternalServerError,
		response: ErrorResponse{Error: "configuration_error", Message: "The server is misconfigured"},
	},
}

var internalErrorResponse = ErrorResponse{Error: "internal_error", Message: "An internal error occurred"}

// resolveError picks the status and body for err. Unknown errors become a
// generic 500 so driver or storage details never reach the client.
func resolveError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.target) {
			continue
		}
		response := m.response
		if m.passthrough {
			response.Message = err.Error()
		}
		return m.status, response
	}
	return http.StatusInternalServerError, internalErrorResponse
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON body.
// Server-side failures are logged at error level, client mistakes at warn.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, errorResponse := resolveError(err)

	if logger != nil {
		log := logger.Warn
		if statusCode >= http.StatusInternalServerError {
			log = logger.Error
		}
		log("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	if statusCode == http.StatusServiceUnavailable {
		c.Header("Retry-After", unavailableRetryAfter)
	}
	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 for a body or parameter that could not be parsed.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusBadRequest, "bad_request", "bad request", err, logger)
}

// HandleValidationErrorGin writes a 422 for a request that parsed but failed validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusUnprocessableEntity, "validation_error", "validation failed", err, logger)
}

func writeClientError(c *gin.Context, status int, code, logMsg string, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn(logMsg, slog.Any("error", err))
	}
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
