package mocks

import (
	"context"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockLeaveService struct {
	mock.Mock
}

func (m *MockLeaveService) Apply(ctx context.Context, actor service.Actor, in service.LeaveInput) (*model.LeaveRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveService) Get(ctx context.Context, actor service.Actor, id string) (*model.LeaveRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveService) List(ctx context.Context, actor service.Actor, f repository.LeaveFilter, limit, offset int) (*service.ListResult[model.LeaveRequest], error) {
	args := m.Called(ctx, actor, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.LeaveRequest]), args.Error(1)
}

func (m *MockLeaveService) Approve(ctx context.Context, actor service.Actor, id string, in service.ReviewInput) (*model.LeaveRequest, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveService) Reject(ctx context.Context, actor service.Actor, id string, in service.ReviewInput) (*model.LeaveRequest, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveService) Cancel(ctx context.Context, actor service.Actor, id string) (*model.LeaveRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaveRequest), args.Error(1)
}

func (m *MockLeaveService) Balance(ctx context.Context, actor service.Actor, userID string, year int) (*service.LeaveBalanceReport, error) {
	args := m.Called(ctx, actor, userID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LeaveBalanceReport), args.Error(1)
}

func (m *MockLeaveService) SetAllocation(ctx context.Context, in service.AllocationInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}
