package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"opsdesk/internal/cache"
	cacheMocks "opsdesk/internal/cache/mocks"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	repoMocks "opsdesk/internal/repository/mocks"
	"opsdesk/internal/revenue"
)

type analyticsFixture struct {
	projects *repoMocks.MockProjectRepository
	logs     *repoMocks.MockTimeLogRepository
	users    *repoMocks.MockUserRepository
	leaves   *repoMocks.MockLeaveRepository
}

func newAnalyticsFixture() *analyticsFixture {
	return &analyticsFixture{
		projects: new(repoMocks.MockProjectRepository),
		logs:     new(repoMocks.MockTimeLogRepository),
		users:    new(repoMocks.MockUserRepository),
		leaves:   new(repoMocks.MockLeaveRepository),
	}
}

func (f *analyticsFixture) service(c cache.Cache, log *zap.Logger) *analyticsService {
	svc := NewAnalyticsService(f.projects, f.logs, f.users, f.leaves, c, time.Minute, log, time.UTC).(*analyticsService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func hourlyProject(id string, rate float64) model.Project {
	return model.Project{
		ID:         id,
		Name:       "Project " + id,
		Status:     model.ProjectActive,
		Billing:    model.BillingModel{Type: model.BillingHourly},
		HourlyRate: rate,
		StartDate:  date(2026, 1, 1),
	}
}

func TestAnalyticsService_Revenue(t *testing.T) {
	ctx := context.Background()
	from, to := date(2026, 1, 1), date(2026, 1, 31)
	key := "analytics:revenue:2026-01-01:2026-01-31"

	t.Run("cache miss computes and stores", func(t *testing.T) {
		f := newAnalyticsFixture()
		c := new(cacheMocks.MockCache)
		c.On("Get", ctx, key, mock.Anything).Return(false, nil)
		f.projects.On("All", ctx).Return([]model.Project{hourlyProject("p1", 50)}, nil)
		f.logs.On("All", ctx, repository.TimeLogFilter{From: from, To: to}).Return([]model.TimeLog{
			{ProjectID: "p1", Date: date(2026, 1, 5), Hours: 6},
			{ProjectID: "p1", Date: date(2026, 1, 6), Hours: 4},
		}, nil)
		c.On("Set", ctx, key, mock.AnythingOfType("revenue.Summary"), time.Minute).Return(nil)

		sum, err := f.service(c, nil).Revenue(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, 500.0, sum.Total)
		assert.Equal(t, 10.0, sum.Hours)
		c.AssertExpectations(t)
		f.projects.AssertExpectations(t)
	})

	t.Run("cache hit skips the repositories", func(t *testing.T) {
		f := newAnalyticsFixture()
		c := new(cacheMocks.MockCache)
		c.On("Get", ctx, key, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(2).(*revenue.Summary).Total = 1234.5
		}).Return(true, nil)

		sum, err := f.service(c, nil).Revenue(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, 1234.5, sum.Total)
		f.projects.AssertNotCalled(t, "All", mock.Anything)
		c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache errors fall through", func(t *testing.T) {
		f := newAnalyticsFixture()
		c := new(cacheMocks.MockCache)
		core, logs := observer.New(zap.WarnLevel)
		c.On("Get", ctx, key, mock.Anything).Return(false, errors.New("redis down"))
		c.On("Set", ctx, key, mock.Anything, time.Minute).Return(errors.New("redis down"))
		f.projects.On("All", ctx).Return([]model.Project{}, nil)
		f.logs.On("All", ctx, mock.Anything).Return([]model.TimeLog{}, nil)

		_, err := f.service(c, zap.New(core)).Revenue(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("analytics_cache_get_failed").Len())
		assert.Equal(t, 1, logs.FilterMessage("analytics_cache_set_failed").Len())
	})

	t.Run("invalid range", func(t *testing.T) {
		f := newAnalyticsFixture()
		_, err := f.service(cache.Noop{}, nil).Revenue(ctx, to, from)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Map(), "to")

		_, err = f.service(cache.Noop{}, nil).Revenue(ctx, time.Time{}, to)
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Map(), "from")
	})

	t.Run("repository error", func(t *testing.T) {
		f := newAnalyticsFixture()
		f.projects.On("All", ctx).Return(nil, errors.New("db down"))
		_, err := f.service(cache.Noop{}, nil).Revenue(ctx, from, to)
		assert.EqualError(t, err, "loading projects: db down")
	})
}

func TestAnalyticsService_MonthlyRevenue(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture()
	f.projects.On("All", ctx).Return([]model.Project{hourlyProject("p1", 100)}, nil)
	f.logs.On("All", ctx, repository.TimeLogFilter{From: date(2026, 1, 1), To: date(2026, 12, 31)}).Return([]model.TimeLog{
		{ProjectID: "p1", Date: date(2026, 2, 3), Hours: 2},
	}, nil)

	months, err := f.service(cache.Noop{}, nil).MonthlyRevenue(ctx, 0)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, revenue.MonthTotal{Month: 2, Revenue: 200, Hours: 2}, months[1])
	assert.Zero(t, months[0].Revenue)

	_, err = f.service(cache.Noop{}, nil).MonthlyRevenue(ctx, 1900)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAnalyticsService_ProjectRevenue(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to start date through today", func(t *testing.T) {
		f := newAnalyticsFixture()
		p := hourlyProject("p1", 10)
		p.EstimatedHours = 40
		f.projects.On("FindByID", ctx, "p1").Return(&p, nil)
		f.logs.On("All", ctx, repository.TimeLogFilter{ProjectID: "p1"}).Return([]model.TimeLog{
			{ProjectID: "p1", Date: date(2026, 1, 20), Hours: 5},
			{ProjectID: "p1", Date: date(2026, 3, 2), Hours: 5},
		}, nil)

		rep, err := f.service(cache.Noop{}, nil).ProjectRevenue(ctx, "p1", time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, date(2026, 1, 1), rep.From)
		assert.Equal(t, date(2026, 3, 10), rep.To)
		assert.Equal(t, 100.0, rep.Revenue)
		assert.Equal(t, "hourly", rep.Billing)
		assert.Equal(t, []MonthRevenue{
			{Month: "2026-01", Revenue: 50, Hours: 5},
			{Month: "2026-02", Revenue: 0, Hours: 0},
			{Month: "2026-03", Revenue: 50, Hours: 5},
		}, rep.Months)
		assert.Equal(t, model.ProjectProgress{ProjectID: "p1", LoggedHours: 10, EstimatedHours: 40, Percent: 25}, rep.Progress)
	})

	t.Run("project starting after today", func(t *testing.T) {
		f := newAnalyticsFixture()
		p := hourlyProject("p1", 10)
		p.Status = model.ProjectPlanned
		p.StartDate = date(2026, 4, 1)
		f.projects.On("FindByID", ctx, "p1").Return(&p, nil)
		f.logs.On("All", ctx, repository.TimeLogFilter{ProjectID: "p1"}).Return([]model.TimeLog{}, nil)

		rep, err := f.service(cache.Noop{}, nil).ProjectRevenue(ctx, "p1", time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, date(2026, 4, 1), rep.From)
		assert.Equal(t, date(2026, 4, 1), rep.To)
		assert.Zero(t, rep.Revenue)
		assert.Equal(t, []MonthRevenue{{Month: "2026-04"}}, rep.Months)
	})

	t.Run("explicit inverted range is rejected", func(t *testing.T) {
		f := newAnalyticsFixture()
		p := hourlyProject("p1", 10)
		f.projects.On("FindByID", ctx, "p1").Return(&p, nil)

		_, err := f.service(cache.Noop{}, nil).ProjectRevenue(ctx, "p1", date(2026, 3, 5), date(2026, 3, 1))
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown project", func(t *testing.T) {
		f := newAnalyticsFixture()
		f.projects.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)
		_, err := f.service(cache.Noop{}, nil).ProjectRevenue(ctx, "nope", time.Time{}, time.Time{})
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestAnalyticsService_Hours(t *testing.T) {
	ctx := context.Background()
	from, to := date(2026, 3, 1), date(2026, 3, 31)
	logs := []model.TimeLog{
		{UserID: "u1", WorkType: model.WorkDevelopment, Hours: 6},
		{UserID: "u2", WorkType: model.WorkMeeting, Hours: 1.5},
		{UserID: "u2", WorkType: model.WorkDevelopment, Hours: 4.5},
		{UserID: "u3", WorkType: model.WorkDesign, Hours: 2},
	}

	t.Run("by work type lists every type", func(t *testing.T) {
		f := newAnalyticsFixture()
		f.logs.On("All", ctx, repository.TimeLogFilter{From: from, To: to}).Return(logs, nil)

		got, err := f.service(cache.Noop{}, nil).HoursByWorkType(ctx, repository.TimeLogFilter{From: from, To: to, WorkType: model.WorkMeeting})
		require.NoError(t, err)
		require.Len(t, got, len(model.WorkTypes))
		assert.Equal(t, WorkTypeHours{WorkType: model.WorkDevelopment, Hours: 10.5}, got[0])
		assert.Equal(t, WorkTypeHours{WorkType: model.WorkDesign, Hours: 2}, got[1])
		assert.Equal(t, WorkTypeHours{WorkType: model.WorkMeeting, Hours: 1.5}, got[2])
	})

	t.Run("by user sorted by hours", func(t *testing.T) {
		f := newAnalyticsFixture()
		f.logs.On("All", ctx, repository.TimeLogFilter{From: from, To: to}).Return(logs, nil)
		f.users.On("FindByID", ctx, "u1").Return(&model.User{ID: "u1", Name: "Ada"}, nil)
		f.users.On("FindByID", ctx, "u2").Return(&model.User{ID: "u2", Name: "Grace"}, nil)
		f.users.On("FindByID", ctx, "u3").Return(nil, sql.ErrNoRows)

		got, err := f.service(cache.Noop{}, nil).HoursByUser(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, []UserHours{
			{UserID: "u1", Name: "Ada", Hours: 6},
			{UserID: "u2", Name: "Grace", Hours: 6},
			{UserID: "u3", Hours: 2},
		}, got)
	})
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture()
	active := true

	f.projects.On("CountByStatus", ctx).Return(map[model.ProjectStatus]int{model.ProjectActive: 2}, nil)
	f.projects.On("All", ctx).Return([]model.Project{hourlyProject("p1", 100)}, nil)
	f.logs.On("All", ctx, repository.TimeLogFilter{From: date(2026, 1, 1), To: date(2026, 12, 31)}).Return([]model.TimeLog{
		{ProjectID: "p1", Date: date(2026, 2, 10), Hours: 3},
		{ProjectID: "p1", Date: date(2026, 3, 9), Hours: 1.5},
	}, nil)
	f.leaves.On("CountByStatus", ctx, model.LeavePending).Return(4, nil)
	f.users.On("List", ctx, repository.UserFilter{Active: &active}, repository.PageQuery{Limit: 1}).
		Return(&repository.PageResult[model.User]{Total: 7}, nil)

	d, err := f.service(cache.Noop{}, nil).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.ProjectStatus]int{
		model.ProjectPlanned:   0,
		model.ProjectActive:    2,
		model.ProjectOnHold:    0,
		model.ProjectCompleted: 0,
	}, d.ProjectsByStatus)
	assert.Equal(t, 1.5, d.HoursThisMonth)
	assert.Equal(t, 150.0, d.RevenueThisMonth)
	assert.Equal(t, 450.0, d.RevenueThisYear)
	assert.Equal(t, 4, d.PendingLeaves)
	assert.Equal(t, 7, d.ActiveUsers)
}
