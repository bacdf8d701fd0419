// Package mocks provides testify mocks for the auth use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
)

// MockAuthUseCase is a mock implementation of usecase.AuthUseCase.
type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.ChallengeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ChallengeOutput), args.Error(1)
}

func (m *MockAuthUseCase) ResendLoginOTP(
	ctx context.Context,
	token, ipAddress string,
) (*authDomain.ChallengeOutput, error) {
	args := m.Called(ctx, token, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ChallengeOutput), args.Error(1)
}

func (m *MockAuthUseCase) VerifyLoginOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.SessionOutput), args.Error(1)
}

func (m *MockAuthUseCase) SendSignupOTP(
	ctx context.Context,
	input *authDomain.SignupInput,
) (*authDomain.ChallengeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ChallengeOutput), args.Error(1)
}

func (m *MockAuthUseCase) ResendSignupOTP(ctx context.Context, token string) (*authDomain.ChallengeOutput, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ChallengeOutput), args.Error(1)
}

func (m *MockAuthUseCase) VerifySignupOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.PendingSignup, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.PendingSignup), args.Error(1)
}

func (m *MockAuthUseCase) CreateUser(
	ctx context.Context,
	form *authDomain.PendingSignup,
	token, ipAddress string,
) (*authDomain.SessionOutput, error) {
	args := m.Called(ctx, form, token, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.SessionOutput), args.Error(1)
}

func (m *MockAuthUseCase) CompleteSignup(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.SessionOutput), args.Error(1)
}

func (m *MockAuthUseCase) RefreshAccessToken(
	ctx context.Context,
	refreshToken, ipAddress string,
) (*authDomain.RefreshOutput, error) {
	args := m.Called(ctx, refreshToken, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.RefreshOutput), args.Error(1)
}

func (m *MockAuthUseCase) ListActivity(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.ActivityLog), args.Error(1)
}
