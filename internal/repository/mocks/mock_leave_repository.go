package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockLeaveRepository struct {
	mock.Mock
}

func (m *MockLeaveRepository) Create(ctx context.Context, r *model.LeaveRequest) (*model.LeaveRequest, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) FindByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) List(ctx context.Context, f repository.LeaveFilter, pq repository.PageQuery) (*repository.PageResult[model.LeaveRequest], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.LeaveRequest]), args.Error(1)
}

func (m *MockLeaveRepository) All(ctx context.Context, f repository.LeaveFilter) ([]model.LeaveRequest, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) UpdateStatus(ctx context.Context, r *model.LeaveRequest) (*model.LeaveRequest, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) CountByStatus(ctx context.Context, status model.LeaveStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockLeaveRepository) Allocations(ctx context.Context, userID string, year int) ([]model.LeaveAllocation, error) {
	args := m.Called(ctx, userID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaveAllocation), args.Error(1)
}

func (m *MockLeaveRepository) UpsertAllocation(ctx context.Context, a model.LeaveAllocation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
