// Package domain defines the core user domain entities and types.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiritoEM/safeo-api/internal/errors"
)

// DefaultStorageLimit is the quota assigned to new accounts (512 MiB).
const DefaultStorageLimit int64 = 512 * 1024 * 1024

// User represents an account owner.
//
// EncryptedKey holds the user's KEK wrapped by the master key in its serialized
// envelope form. It is never interpreted by the persistence layer.
type User struct {
	ID            uuid.UUID
	FullName      string
	Email         string
	Password      string
	EncryptedKey  string
	StorageLimit  int64
	StorageUsed   int64
	IsActive      bool
	RefreshToken  *string
	OAuthProvider *string
	LastLoginAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the part of a User that may leave the server. It never carries
// the password hash, the wrapped KEK or the refresh token.
type Profile struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	IsActive     bool
	StorageLimit int64
	StorageUsed  int64
	LastLoginAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the public view of u.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		IsActive:     u.IsActive,
		StorageLimit: u.StorageLimit,
		StorageUsed:  u.StorageUsed,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// HasOAuthAccount reports whether the user signs in through an external provider.
func (u *User) HasOAuthAccount() bool {
	return u.OAuthProvider != nil && *u.OAuthProvider != ""
}

// FirstName returns the first word of FullName.
func (u *User) FirstName() string {
	return FirstName(u.FullName)
}

// FirstName returns the first whitespace-separated word of a full name.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeEmail trims and lowercases an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EncryptedKeyRow is a (user, wrapped KEK) pair used by master key rotation.
type EncryptedKeyRow struct {
	UserID       uuid.UUID
	EncryptedKey string
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrMissingEncryptionKey indicates the user has no wrapped KEK on record.
	ErrMissingEncryptionKey = errors.Wrap(errors.ErrIntegrity, "user has no encryption key")
)
