package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockTimeLogService struct {
	mock.Mock
}

func (m *MockTimeLogService) Create(ctx context.Context, actor service.Actor, in service.TimeLogInput) (*model.TimeLog, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Get(ctx context.Context, actor service.Actor, id string) (*model.TimeLog, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) List(ctx context.Context, actor service.Actor, f repository.TimeLogFilter, limit, offset int) (*service.ListResult[model.TimeLog], error) {
	args := m.Called(ctx, actor, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.TimeLog]), args.Error(1)
}

func (m *MockTimeLogService) All(ctx context.Context, actor service.Actor, f repository.TimeLogFilter) ([]model.TimeLog, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Update(ctx context.Context, actor service.Actor, id string, in service.UpdateTimeLogInput) (*model.TimeLog, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Delete(ctx context.Context, actor service.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
