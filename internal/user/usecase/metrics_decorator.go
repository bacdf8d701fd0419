package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/KiritoEM/safeo-api/internal/metrics"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// userUseCaseWithMetrics decorates UserUseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UserUseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UserUseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UserUseCase, m metrics.BusinessMetrics) UserUseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) GetProfile(
	ctx context.Context,
	userID uuid.UUID,
	ipAddress string,
) (*userDomain.Profile, error) {
	start := time.Now()
	profile, err := u.next.GetProfile(ctx, userID, ipAddress)

	status := metrics.Status(err)
	u.metrics.RecordOperation(ctx, "user", "get_profile", status)
	u.metrics.RecordDuration(ctx, "user", "get_profile", time.Since(start), status)
	return profile, err
}
