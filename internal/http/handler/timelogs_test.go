package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/report"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
	serviceMocks "opsdesk/internal/service/mocks"
)

func TestListTimeLogs(t *testing.T) {
	svc := new(serviceMocks.MockTimeLogService)
	app := newApp(employeeActor)
	app.Get("/timelogs", ListTimeLogs(svc))

	t.Run("filter", func(t *testing.T) {
		want := repository.TimeLogFilter{
			ProjectID: "9b2f6c1e-3a4d-4e5f-8a7b-1c2d3e4f5a6b",
			WorkType:  model.WorkDesign,
			From:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			To:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		}
		svc.On("List", mock.Anything, employeeActor, want, 10, 0).
			Return(&service.ListResult[model.TimeLog]{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet,
			"/timelogs?project_id=9b2f6c1e-3a4d-4e5f-8a7b-1c2d3e4f5a6b&work_type=design&from=2026-03-01&to=2026-03-31", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("bad date", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/timelogs?from=03/01/2026", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INVALID_QUERY", body.Error.Code)
		assert.Equal(t, "invalid from", body.Error.Message)
	})

	for _, key := range []string{"user_id", "project_id"} {
		t.Run("malformed "+key, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/timelogs?"+key+"=abc", nil))

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, "INVALID_QUERY", body.Error.Code)
			assert.Equal(t, "invalid "+key, body.Error.Message)
		})
	}
	svc.AssertExpectations(t)
}

func TestCreateTimeLog_DailyLimit(t *testing.T) {
	svc := new(serviceMocks.MockTimeLogService)
	app := newApp(employeeActor)
	app.Post("/timelogs", CreateTimeLog(svc))

	svc.On("Create", mock.Anything, employeeActor, mock.AnythingOfType("service.TimeLogInput")).
		Return(nil, service.ErrDailyLimit).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/timelogs",
		`{"project_id":"p1","date":"2026-03-10","hours":5,"work_type":"development"}`))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "DAILY_LIMIT_EXCEEDED", decodeError(t, resp).Error.Code)
	svc.AssertExpectations(t)
}

func TestExportTimeLogs(t *testing.T) {
	logs := new(serviceMocks.MockTimeLogService)
	projects := new(serviceMocks.MockProjectService)
	users := new(serviceMocks.MockUserService)
	app := newApp(adminActor)
	app.Get("/timelogs/export", ExportTimeLogs(logs, projects, users))

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	logs.On("All", mock.Anything, adminActor, mock.Anything).Return([]model.TimeLog{
		{UserID: "u1", ProjectID: "p1", Date: day, Hours: 3, WorkType: model.WorkDevelopment},
		{UserID: "u1", ProjectID: "p1", Date: day, Hours: 2, WorkType: model.WorkMeeting},
		{UserID: "u2", ProjectID: "p1", Date: day, Hours: 1, WorkType: model.WorkSupport},
	}, nil).Once()
	projects.On("Get", mock.Anything, "p1").Return(&model.Project{ID: "p1", Name: "Website"}, nil).Once()
	users.On("Get", mock.Anything, "u1").Return(&model.User{ID: "u1", Name: "Ann"}, nil).Once()
	users.On("Get", mock.Anything, "u2").Return(nil, service.ErrUserNotFound).Once()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/timelogs/export", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "timelogs.xlsx")

	b, _ := io.ReadAll(resp.Body)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Time logs")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "Ann", rows[1][1])
	assert.Equal(t, "Website", rows[1][2])
	assert.Equal(t, "u2", rows[3][1])

	logs.AssertExpectations(t)
	projects.AssertExpectations(t)
	users.AssertExpectations(t)
}
