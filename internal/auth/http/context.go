// Package http provides the HTTP handlers and middleware for the login,
// signup and session refresh flows.
package http

import (
	"context"

	"github.com/google/uuid"

	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
)

// claimsKey is a context key type for storing access token claims.
type claimsKey struct{}

// WithClaims stores validated access token claims in the context.
// This is called by AccessTokenMiddleware after the token has been verified.
func WithClaims(ctx context.Context, claims *authService.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves the access token claims from the context.
// Returns (claims, true) if present, or (nil, false) if the request was not authenticated.
func GetClaims(ctx context.Context) (*authService.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*authService.Claims)
	return claims, ok && claims != nil
}

// GetUserID returns the authenticated user's ID.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
