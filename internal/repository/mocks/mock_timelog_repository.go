package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockTimeLogRepository struct {
	mock.Mock
}

func (m *MockTimeLogRepository) Create(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogRepository) FindByID(ctx context.Context, id string) (*model.TimeLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogRepository) List(ctx context.Context, f repository.TimeLogFilter, pq repository.PageQuery) (*repository.PageResult[model.TimeLog], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.TimeLog]), args.Error(1)
}

func (m *MockTimeLogRepository) All(ctx context.Context, f repository.TimeLogFilter) ([]model.TimeLog, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimeLog), args.Error(1)
}

func (m *MockTimeLogRepository) Update(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeLog), args.Error(1)
}

func (m *MockTimeLogRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimeLogRepository) SumHours(ctx context.Context, f repository.TimeLogFilter) (float64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(float64), args.Error(1)
}
