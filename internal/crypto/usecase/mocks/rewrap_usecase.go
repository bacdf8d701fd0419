// Package mocks provides testify mocks for the crypto use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
)

// MockRewrapUseCase is a mock implementation of usecase.RewrapUseCase.
type MockRewrapUseCase struct {
	mock.Mock
}

func (m *MockRewrapUseCase) RewrapBatch(
	ctx context.Context,
	after uuid.UUID,
	batchSize int,
) (*cryptoUseCase.RewrapResult, error) {
	args := m.Called(ctx, after, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoUseCase.RewrapResult), args.Error(1)
}

func (m *MockRewrapUseCase) RewrapAll(ctx context.Context, batchSize int) (*cryptoUseCase.RewrapResult, error) {
	args := m.Called(ctx, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoUseCase.RewrapResult), args.Error(1)
}
