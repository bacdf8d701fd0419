package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// userUseCase implements UserUseCase.
type userUseCase struct {
	userRepo     UserRepository
	activityRepo ActivityLogRepository
	logger       *slog.Logger
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, activityRepo ActivityLogRepository, logger *slog.Logger) UserUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &userUseCase{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// GetProfile loads the account and records the read. A failed activity insert
// is logged and does not fail the request.
func (u *userUseCase) GetProfile(
	ctx context.Context,
	userID uuid.UUID,
	ipAddress string,
) (*userDomain.Profile, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := authDomain.NewActivityLog(userID, authDomain.ActionGetUserInfo, ipAddress)
	if err := u.activityRepo.Create(ctx, entry); err != nil {
		u.logger.ErrorContext(ctx, "failed to record activity",
			slog.String("action", string(entry.Action)),
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	}

	return user.Profile(), nil
}
