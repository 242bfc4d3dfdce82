package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (service.Actor, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(service.Actor), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, actor service.Actor) (*model.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
