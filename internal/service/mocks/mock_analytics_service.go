package mocks

import (
	"context"
	"time"

	"opsdesk/internal/repository"
	"opsdesk/internal/revenue"
	"opsdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Revenue(ctx context.Context, from, to time.Time) (*revenue.Summary, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revenue.Summary), args.Error(1)
}

func (m *MockAnalyticsService) MonthlyRevenue(ctx context.Context, year int) ([]revenue.MonthTotal, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]revenue.MonthTotal), args.Error(1)
}

func (m *MockAnalyticsService) ProjectRevenue(ctx context.Context, projectID string, from, to time.Time) (*service.ProjectRevenueReport, error) {
	args := m.Called(ctx, projectID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProjectRevenueReport), args.Error(1)
}

func (m *MockAnalyticsService) HoursByWorkType(ctx context.Context, f repository.TimeLogFilter) ([]service.WorkTypeHours, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.WorkTypeHours), args.Error(1)
}

func (m *MockAnalyticsService) HoursByUser(ctx context.Context, from, to time.Time) ([]service.UserHours, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.UserHours), args.Error(1)
}

func (m *MockAnalyticsService) Dashboard(ctx context.Context) (*service.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}
