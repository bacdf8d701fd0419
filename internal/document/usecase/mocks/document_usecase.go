// Package mocks provides testify mocks for the document use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
)

// MockDocumentUseCase is a mock implementation of usecase.DocumentUseCase.
type MockDocumentUseCase struct {
	mock.Mock
}

func (m *MockDocumentUseCase) Upload(
	ctx context.Context,
	input *documentDomain.UploadInput,
) (*documentDomain.DocumentInfo, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.DocumentInfo), args.Error(1)
}

func (m *MockDocumentUseCase) Download(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DownloadOutput, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.DownloadOutput), args.Error(1)
}

func (m *MockDocumentUseCase) Get(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DocumentInfo, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.DocumentInfo), args.Error(1)
}

func (m *MockDocumentUseCase) Rename(
	ctx context.Context,
	userID, documentID uuid.UUID,
	name string,
) (*documentDomain.DocumentInfo, error) {
	args := m.Called(ctx, userID, documentID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.DocumentInfo), args.Error(1)
}

func (m *MockDocumentUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*documentDomain.DocumentInfo, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.DocumentInfo), args.Error(1)
}

func (m *MockDocumentUseCase) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	args := m.Called(ctx, userID, documentID)
	return args.Error(0)
}
