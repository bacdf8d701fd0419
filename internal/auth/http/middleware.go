package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	"github.com/KiritoEM/safeo-api/internal/httputil"
)

// AccessTokenMiddleware authenticates requests with a JWT access token in the
// Authorization header.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
// A missing, malformed, expired or refresh-typed token gets 401 Unauthorized.
// On success the claims are available downstream through GetClaims and GetUserID.
//
// Usage:
//
//	documents := router.Group("/v1/documents", AccessTokenMiddleware(tokenIssuer, logger))
func AccessTokenMiddleware(tokenIssuer authService.TokenIssuer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := tokenIssuer.ValidateAccessToken(token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

		logger.Debug("authentication successful", slog.String("user_id", claims.UserID.String()))

		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
