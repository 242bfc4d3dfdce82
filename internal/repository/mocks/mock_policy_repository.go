package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, p *model.Policy) (*model.Policy, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyRepository) FindByID(ctx context.Context, id string) (*model.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyRepository) List(ctx context.Context, category string, pq repository.PageQuery) (*repository.PageResult[model.Policy], error) {
	args := m.Called(ctx, category, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Policy]), args.Error(1)
}

func (m *MockPolicyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
