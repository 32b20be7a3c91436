package mocks

import (
	"context"

	"mediatag/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Process(ctx context.Context, req model.DocumentRequest) (*model.DocumentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) ListAll(ctx context.Context) ([]model.DocumentResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentResponse), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id int64) (*model.DocumentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentResponse), args.Error(1)
}

type MockTagger struct {
	mock.Mock
}

func (m *MockTagger) ExtractTags(ctx context.Context, payload string, t model.DocumentType) []string {
	args := m.Called(ctx, payload, t)
	return args.Get(0).([]string)
}
