package mocks

import (
	"context"
	"io"

	"opsdesk/internal/model"
	"opsdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) Upload(ctx context.Context, actor service.Actor, in service.PolicyUpload, r io.Reader) (*model.Policy, error) {
	args := m.Called(ctx, actor, in, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) Get(ctx context.Context, id string) (*model.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) List(ctx context.Context, category string, limit, offset int) (*service.ListResult[model.Policy], error) {
	args := m.Called(ctx, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Policy]), args.Error(1)
}

func (m *MockPolicyService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPolicyService) DownloadURL(ctx context.Context, id string) (*service.DownloadLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

func (m *MockPolicyService) Open(ctx context.Context, id string) (*service.PolicyFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PolicyFile), args.Error(1)
}
