// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	"time"

	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// UserResponse is the signed-in user's account as returned by the API.
type UserResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	StorageLimit int64     `json:"storage_limit"`
	StorageUsed  int64     `json:"storage_used"`
	LastLoginAt  time.Time `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MeResponse wraps the account under a "user" key.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// MapProfileToResponse converts a profile to its API representation.
func MapProfileToResponse(profile *userDomain.Profile) MeResponse {
	return MeResponse{
		User: UserResponse{
			ID:           profile.ID.String(),
			FullName:     profile.FullName,
			Email:        profile.Email,
			IsActive:     profile.IsActive,
			StorageLimit: profile.StorageLimit,
			StorageUsed:  profile.StorageUsed,
			LastLoginAt:  profile.LastLoginAt,
			CreatedAt:    profile.CreatedAt,
			UpdatedAt:    profile.UpdatedAt,
		},
	}
}
