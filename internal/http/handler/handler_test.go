package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opsdesk/internal/auth"
	"opsdesk/internal/http/middleware"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
	serviceMocks "opsdesk/internal/service/mocks"
	storeMocks "opsdesk/internal/storage/mocks"
)

var (
	adminActor    = service.Actor{UserID: "11111111-1111-1111-1111-111111111111", Role: model.RoleAdmin}
	employeeActor = service.Actor{UserID: "22222222-2222-2222-2222-222222222222", Role: model.RoleEmployee}
)

// newApp returns an app whose routes run as a. Pass an empty Actor for anonymous routes.
func newApp(a service.Actor) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	if a.UserID != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.ActorLocalKey, a)
			return c.Next()
		})
	}
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	t.Run("healthy", func(t *testing.T) {
		store := new(storeMocks.MockStorage)
		store.On("Ping", mock.Anything).Return(nil).Once()
		app := fiber.New()
		app.Get("/health", HealthCheck(db, store))
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body healthBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, map[string]string{"database": "up", "storage": "up"}, body.Checks)
		store.AssertExpectations(t)
	})

	t.Run("database down", func(t *testing.T) {
		store := new(storeMocks.MockStorage)
		app := fiber.New()
		app.Get("/health", HealthCheck(db, store))
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
		assert.Equal(t, "database unavailable", body.Error.Message)
		store.AssertNotCalled(t, "Ping", mock.Anything)
	})

	t.Run("storage down", func(t *testing.T) {
		store := new(storeMocks.MockStorage)
		store.On("Ping", mock.Anything).Return(errors.New("bucket gone")).Once()
		app := fiber.New()
		app.Get("/health", HealthCheck(db, store))
		dbMock.ExpectPing()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "storage unavailable", decodeError(t, resp).Error.Message)
	})

	t.Run("storage not configured", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(db, nil))
		dbMock.ExpectPing()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body healthBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, map[string]string{"database": "up"}, body.Checks)
	})
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLiveness(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", Liveness())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &service.ValidationError{Fields: []service.FieldError{{Field: "name", Message: "name is required"}}}, 400, "VALIDATION_ERROR"},
		{"request", invalidQuery("from"), 400, "INVALID_QUERY"},
		{"not found", service.ErrProjectNotFound, 404, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrUserNotFound), 404, "NOT_FOUND"},
		{"forbidden", service.ErrForbidden, 403, "FORBIDDEN"},
		{"credentials", service.ErrInvalidCredentials, 401, "INVALID_CREDENTIALS"},
		{"email taken", service.ErrEmailTaken, 409, "EMAIL_TAKEN"},
		{"overlap", service.ErrOverlappingLeave, 409, "LEAVE_OVERLAP"},
		{"daily limit", service.ErrDailyLimit, 422, "DAILY_LIMIT_EXCEEDED"},
		{"balance", service.ErrInsufficientBalance, 422, "INSUFFICIENT_BALANCE"},
		{"unknown", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(service.Actor{})
			app.Get("/x", func(c *fiber.Ctx) error { return serviceError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantCode == "VALIDATION_ERROR" {
				assert.Equal(t, map[string]string{"name": "name is required"}, body.Error.Fields)
			}
			if tt.wantStatus == 500 {
				assert.NotContains(t, body.Error.Message, "boom")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc := new(serviceMocks.MockAuthService)
	app := newApp(service.Actor{})
	app.Post("/auth/login", Login(svc))

	t.Run("success", func(t *testing.T) {
		in := service.LoginInput{Email: "a@example.com", Password: "secret123"}
		svc.On("Login", mock.Anything, in).Return(&service.LoginResult{Token: "tok"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"secret123"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res service.LoginResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "tok", res.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"nope"}`))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
	svc.AssertExpectations(t)
}

func TestListUsers(t *testing.T) {
	svc := new(serviceMocks.MockUserService)
	app := newApp(adminActor)
	app.Get("/users", ListUsers(svc))

	t.Run("filters", func(t *testing.T) {
		active := true
		f := repository.UserFilter{Role: model.RoleManager, Active: &active, Search: "ann"}
		svc.On("List", mock.Anything, f, 5, 10).
			Return(&service.ListResult[model.User]{Items: []model.User{{ID: "u1"}}, Total: 1}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users?role=manager&active=true&q=ann&limit=5&offset=10", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res service.ListResult[model.User]
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, 1, res.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid active", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users?active=maybe", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_QUERY", decodeError(t, resp).Error.Code)
	})
	svc.AssertExpectations(t)
}

func TestSetUserActive(t *testing.T) {
	svc := new(serviceMocks.MockUserService)
	app := newApp(adminActor)
	app.Post("/users/:id/active", SetUserActive(svc))
	id := uuid.New().String()

	t.Run("disable", func(t *testing.T) {
		svc.On("SetActive", mock.Anything, adminActor, id, false).Return(&model.User{ID: id}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users/"+id+"/active", `{"active":false}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing flag", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users/"+id+"/active", `{}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Contains(t, body.Error.Fields, "active")
	})

	t.Run("self", func(t *testing.T) {
		svc.On("SetActive", mock.Anything, adminActor, id, false).Return(nil, service.ErrSelfAction).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users/"+id+"/active", `{"active":false}`))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
	svc.AssertExpectations(t)
}

func TestGetProject(t *testing.T) {
	svc := new(serviceMocks.MockProjectService)
	app := newApp(employeeActor)
	app.Get("/projects/:id", GetProject(svc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("Get", mock.Anything, id).Return(&model.Project{ID: id, Name: "Site"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var p model.Project
		json.NewDecoder(resp.Body).Decode(&p)
		assert.Equal(t, "Site", p.Name)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("Get", mock.Anything, id).Return(nil, service.ErrProjectNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/projects/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/projects/"+id, nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
	svc.AssertExpectations(t)
}

func TestCreateProject(t *testing.T) {
	svc := new(serviceMocks.MockProjectService)
	app := newApp(adminActor)
	app.Post("/projects", CreateProject(svc))

	in := service.ProjectInput{Name: "Site", BillingType: model.BillingHourly, HourlyRate: 50, StartDate: "2026-01-01"}
	svc.On("Create", mock.Anything, adminActor, in).Return(&model.Project{ID: "p1", Name: "Site"}, nil).Once()

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/projects",
		`{"name":"Site","billing_type":"hourly","hourly_rate":50,"start_date":"2026-01-01"}`))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	authSvc := new(serviceMocks.MockAuthService)
	userSvc := new(serviceMocks.MockUserService)
	timeLogSvc := new(serviceMocks.MockTimeLogService)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "routing_test_total"}))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, Deps{
		DB:           db,
		Metrics:      reg,
		LoginLimiter: middleware.NewLimiterStore(1, 1),
		Auth:         authSvc,
		Users:        userSvc,
		TimeLogs:     timeLogSvc,
	})

	authSvc.On("Authenticate", mock.Anything, "admin-token").Return(adminActor, nil)
	authSvc.On("Authenticate", mock.Anything, "employee-token").Return(employeeActor, nil)
	authSvc.On("Authenticate", mock.Anything, mock.Anything).Return(service.Actor{}, auth.ErrInvalidToken)

	withToken := func(req *http.Request, token string) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("health", func(t *testing.T) {
		dbMock.ExpectPing()
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(b), "routing_test_total")
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		assert.Equal(t, "missing bearer token", body.Error.Message)
	})

	t.Run("employee cannot list users", func(t *testing.T) {
		resp, _ := app.Test(withToken(httptest.NewRequest(http.MethodGet, "/users", nil), "employee-token"))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	})

	t.Run("employee changes own password", func(t *testing.T) {
		in := service.ChangePasswordInput{CurrentPassword: "old-password", NewPassword: "new-password"}
		userSvc.On("ChangePassword", mock.Anything, employeeActor, in).Return(nil).Once()

		req := jsonRequest(http.MethodPut, "/users/me/password", `{"current_password":"old-password","new_password":"new-password"}`)
		resp, _ := app.Test(withToken(req, "employee-token"))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("export is not an id", func(t *testing.T) {
		timeLogSvc.On("All", mock.Anything, employeeActor, mock.Anything).Return([]model.TimeLog{}, nil).Once()

		resp, _ := app.Test(withToken(httptest.NewRequest(http.MethodGet, "/timelogs/export", nil), "employee-token"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("login is rate limited", func(t *testing.T) {
		authSvc.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"x"}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, _ = app.Test(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"x"}`))
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Error.Code)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	})
	userSvc.AssertExpectations(t)
	timeLogSvc.AssertExpectations(t)
}
