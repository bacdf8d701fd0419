package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KiritoEM/safeo-api/internal/auth/http/dto"
	authUseCase "github.com/KiritoEM/safeo-api/internal/auth/usecase"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	"github.com/KiritoEM/safeo-api/internal/httputil"
)

// ActivityHandler serves the authenticated user's own activity log.
type ActivityHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewActivityHandler creates a new activity handler with required dependencies.
func NewActivityHandler(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// ListHandler returns the caller's activity log, newest first.
// GET /v1/auth/activity?offset=0&limit=50 - Requires an access token.
func (h *ActivityHandler) ListHandler(c *gin.Context) {
	userID, ok := GetUserID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	activityLogs, err := h.authUseCase.ListActivity(c.Request.Context(), userID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapActivityLogsToListResponse(activityLogs))
}
