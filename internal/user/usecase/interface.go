// Package usecase implements read access to the signed-in user's account.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// UserRepository loads accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
}

// ActivityLogRepository records account reads in the activity log.
type ActivityLogRepository interface {
	Create(ctx context.Context, activityLog *authDomain.ActivityLog) error
}

// UserUseCase defines the operations on the caller's own account.
type UserUseCase interface {
	// GetProfile returns the public fields of the user's account.
	GetProfile(ctx context.Context, userID uuid.UUID, ipAddress string) (*userDomain.Profile, error)
}
