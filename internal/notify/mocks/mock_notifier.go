package mocks

import (
	"context"

	"opsdesk/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) LeaveRequested(ctx context.Context, requester model.User, approvers []model.User, req model.LeaveRequest) {
	m.Called(ctx, requester, approvers, req)
}

func (m *MockNotifier) LeaveDecided(ctx context.Context, user model.User, req model.LeaveRequest) {
	m.Called(ctx, user, req)
}

func (m *MockNotifier) Close() {
	m.Called()
}
