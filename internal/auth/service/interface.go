// Package service provides technical services for the authentication flows:
// password hashing, verification token generation and brokering, and JWT
// session tokens.
package service

import (
	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	// Hash returns an encoded hash of password suitable for storage.
	Hash(password string) (string, error)

	// Compare reports whether password matches the stored hash. Unknown or
	// malformed hashes never match.
	Compare(password string, hash string) bool
}

// TokenGenerator produces opaque, unguessable verification tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// TokenIssuer mints and validates signed session tokens.
type TokenIssuer interface {
	// IssueAccessToken returns a short-lived token identifying the user.
	IssueAccessToken(userID uuid.UUID, email string) (string, error)

	// IssueRefreshToken returns a long-lived token used to obtain new access tokens.
	IssueRefreshToken(userID uuid.UUID) (string, error)

	// ValidateAccessToken verifies signature, expiry and token type.
	ValidateAccessToken(token string) (*Claims, error)

	// ValidateRefreshToken verifies signature, expiry and token type.
	ValidateRefreshToken(token string) (*Claims, error)
}
