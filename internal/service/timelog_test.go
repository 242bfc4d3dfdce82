package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cacheMocks "opsdesk/internal/cache/mocks"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	repoMocks "opsdesk/internal/repository/mocks"
)

const testProjectID = "6f1c1b0e-8a4e-4e8e-9b55-0c1d2a3b4c5d"

type timeLogFixture struct {
	repo     *repoMocks.MockTimeLogRepository
	projects *repoMocks.MockProjectRepository
	cache    *cacheMocks.MockCache
	svc      *timeLogService
}

func newTimeLogFixture() *timeLogFixture {
	f := &timeLogFixture{
		repo:     new(repoMocks.MockTimeLogRepository),
		projects: new(repoMocks.MockProjectRepository),
		cache:    new(cacheMocks.MockCache),
	}
	f.svc = NewTimeLogService(f.repo, f.projects, f.cache, nil, time.UTC).(*timeLogService)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC) }
	return f
}

func activeProject() *model.Project {
	return &model.Project{ID: testProjectID, Status: model.ProjectActive, StartDate: date(2026, 1, 1)}
}

func TestTimeLogService_Create(t *testing.T) {
	ctx := context.Background()
	employee := Actor{UserID: "u1", Role: model.RoleEmployee}
	dayFilter := repository.TimeLogFilter{UserID: "u1", From: date(2026, 3, 9), To: date(2026, 3, 9)}

	validInput := TimeLogInput{ProjectID: testProjectID, Date: "2026-03-09", Hours: 6, WorkType: model.WorkDevelopment}

	tests := []struct {
		name       string
		in         TimeLogInput
		setupMocks func(f *timeLogFixture)
		wantErr    error
		wantField  string
	}{
		{
			name: "happy path",
			in:   validInput,
			setupMocks: func(f *timeLogFixture) {
				f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
				f.repo.On("SumHours", ctx, dayFilter).Return(10.0, nil)
				f.repo.On("Create", ctx, mock.MatchedBy(func(l *model.TimeLog) bool {
					return l.UserID == "u1" && l.Hours == 6 && l.Date.Equal(date(2026, 3, 9))
				})).Return(&model.TimeLog{ID: "l1"}, nil)
				f.cache.On("DeletePrefix", ctx, "analytics:").Return(nil)
			},
		},
		{
			name: "exceeds daily limit",
			in:   validInput,
			setupMocks: func(f *timeLogFixture) {
				f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
				f.repo.On("SumHours", ctx, dayFilter).Return(18.5, nil)
			},
			wantErr: ErrDailyLimit,
		},
		{
			name: "exactly 24 hours is allowed",
			in:   validInput,
			setupMocks: func(f *timeLogFixture) {
				f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
				f.repo.On("SumHours", ctx, dayFilter).Return(18.0, nil)
				f.repo.On("Create", ctx, mock.AnythingOfType("*model.TimeLog")).Return(&model.TimeLog{ID: "l1"}, nil)
				f.cache.On("DeletePrefix", ctx, "analytics:").Return(nil)
			},
		},
		{
			name:       "future date",
			in:         TimeLogInput{ProjectID: testProjectID, Date: "2026-03-11", Hours: 1, WorkType: model.WorkMeeting},
			setupMocks: func(f *timeLogFixture) {},
			wantField:  "date",
		},
		{
			name: "before project start",
			in:   TimeLogInput{ProjectID: testProjectID, Date: "2025-12-31", Hours: 1, WorkType: model.WorkMeeting},
			setupMocks: func(f *timeLogFixture) {
				f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
			},
			wantField: "date",
		},
		{
			name: "unknown project",
			in:   validInput,
			setupMocks: func(f *timeLogFixture) {
				f.projects.On("FindByID", ctx, testProjectID).Return(nil, sql.ErrNoRows)
			},
			wantField: "project_id",
		},
		{
			name: "completed project",
			in:   validInput,
			setupMocks: func(f *timeLogFixture) {
				p := activeProject()
				p.Status = model.ProjectCompleted
				f.projects.On("FindByID", ctx, testProjectID).Return(p, nil)
			},
			wantErr: ErrProjectClosed,
		},
		{
			name:       "hours out of range",
			in:         TimeLogInput{ProjectID: testProjectID, Date: "2026-03-09", Hours: 0, WorkType: model.WorkDesign},
			setupMocks: func(f *timeLogFixture) {},
			wantField:  "hours",
		},
		{
			name:       "unknown work type",
			in:         TimeLogInput{ProjectID: testProjectID, Date: "2026-03-09", Hours: 1, WorkType: "napping"},
			setupMocks: func(f *timeLogFixture) {},
			wantField:  "work_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTimeLogFixture()
			tt.setupMocks(f)

			l, err := f.svc.Create(ctx, employee, tt.in)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Map(), tt.wantField)
			default:
				require.NoError(t, err)
				assert.Equal(t, "l1", l.ID)
			}
			f.repo.AssertExpectations(t)
			f.projects.AssertExpectations(t)
			f.cache.AssertExpectations(t)
		})
	}
}

func TestTimeLogService_Scoping(t *testing.T) {
	ctx := context.Background()
	employee := Actor{UserID: "u1", Role: model.RoleEmployee}
	manager := Actor{UserID: "m1", Role: model.RoleManager}

	t.Run("employee list is forced to self", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("List", ctx, repository.TimeLogFilter{UserID: "u1"}, repository.PageQuery{Limit: defaultLimit}).
			Return(&repository.PageResult[model.TimeLog]{}, nil)

		_, err := f.svc.List(ctx, employee, repository.TimeLogFilter{UserID: "u2"}, 0, 0)
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("manager may filter by user", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("All", ctx, repository.TimeLogFilter{UserID: "u2"}).Return([]model.TimeLog{{ID: "l1"}}, nil)

		logs, err := f.svc.All(ctx, manager, repository.TimeLogFilter{UserID: "u2"})
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("inverted range", func(t *testing.T) {
		f := newTimeLogFixture()
		_, err := f.svc.List(ctx, manager, repository.TimeLogFilter{From: date(2026, 3, 2), To: date(2026, 3, 1)}, 10, 0)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("employee cannot read others", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("FindByID", ctx, "l2").Return(&model.TimeLog{ID: "l2", UserID: "u2"}, nil)

		_, err := f.svc.Get(ctx, employee, "l2")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing log", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Get(ctx, manager, "nope")
		assert.ErrorIs(t, err, ErrTimeLogNotFound)
	})
}

func TestTimeLogService_Update(t *testing.T) {
	ctx := context.Background()
	employee := Actor{UserID: "u1", Role: model.RoleEmployee}
	stored := func() *model.TimeLog {
		return &model.TimeLog{ID: "l1", UserID: "u1", ProjectID: testProjectID, Date: date(2026, 3, 9), Hours: 8, WorkType: model.WorkDevelopment}
	}

	t.Run("same day excludes own hours", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("FindByID", ctx, "l1").Return(stored(), nil)
		f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
		// 8h from this log + 14h elsewhere; raising this log to 10h gives 24h
		f.repo.On("SumHours", ctx, repository.TimeLogFilter{UserID: "u1", From: date(2026, 3, 9), To: date(2026, 3, 9)}).Return(22.0, nil)
		f.repo.On("Update", ctx, mock.MatchedBy(func(l *model.TimeLog) bool { return l.Hours == 10 })).Return(&model.TimeLog{ID: "l1"}, nil)
		f.cache.On("DeletePrefix", ctx, "analytics:").Return(nil)

		hours := 10.0
		_, err := f.svc.Update(ctx, employee, "l1", UpdateTimeLogInput{Hours: &hours})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("moving to a full day", func(t *testing.T) {
		f := newTimeLogFixture()
		f.repo.On("FindByID", ctx, "l1").Return(stored(), nil)
		f.projects.On("FindByID", ctx, testProjectID).Return(activeProject(), nil)
		f.repo.On("SumHours", ctx, repository.TimeLogFilter{UserID: "u1", From: date(2026, 3, 8), To: date(2026, 3, 8)}).Return(20.0, nil)

		d := "2026-03-08"
		_, err := f.svc.Update(ctx, employee, "l1", UpdateTimeLogInput{Date: &d})
		assert.ErrorIs(t, err, ErrDailyLimit)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("other user's log", func(t *testing.T) {
		f := newTimeLogFixture()
		l := stored()
		l.UserID = "u2"
		f.repo.On("FindByID", ctx, "l1").Return(l, nil)

		hours := 1.0
		_, err := f.svc.Update(ctx, employee, "l1", UpdateTimeLogInput{Hours: &hours})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestTimeLogService_Delete(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "m1", Role: model.RoleManager}

	f := newTimeLogFixture()
	f.repo.On("FindByID", ctx, "l1").Return(&model.TimeLog{ID: "l1", UserID: "u2"}, nil)
	f.repo.On("Delete", ctx, "l1").Return(nil)
	f.cache.On("DeletePrefix", ctx, "analytics:").Return(nil)

	require.NoError(t, f.svc.Delete(ctx, manager, "l1"))
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}
