// Package mocks provides testify mocks for the user use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// MockUserUseCase is a mock implementation of usecase.UserUseCase.
type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) GetProfile(
	ctx context.Context,
	userID uuid.UUID,
	ipAddress string,
) (*userDomain.Profile, error) {
	args := m.Called(ctx, userID, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.Profile), args.Error(1)
}
