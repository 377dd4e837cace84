package mocks

import (
	"context"
	"io"

	"pdfblur/internal/model"
	"pdfblur/internal/page"
	"pdfblur/internal/service"
	"pdfblur/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) Create(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.Job, error) {
	args := m.Called(ctx, r, originalFilename, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobService) List(ctx context.Context, limit, offset int) (*service.JobListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JobListResult), args.Error(1)
}

func (m *MockJobService) Get(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobService) Page(ctx context.Context, id, ref string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, id, ref)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockJobService) PageURL(ctx context.Context, id, ref string) (string, error) {
	args := m.Called(ctx, id, ref)
	return args.String(0), args.Error(1)
}

func (m *MockJobService) Redact(ctx context.Context, id string, req *model.RedactionRequest) (*model.Job, page.OutputDocument, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(page.OutputDocument), args.Error(2)
	}
	return args.Get(0).(*model.Job), args.Get(1).(page.OutputDocument), args.Error(2)
}

func (m *MockJobService) Output(ctx context.Context, id string) (*model.Job, io.ReadCloser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Job), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockJobService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
