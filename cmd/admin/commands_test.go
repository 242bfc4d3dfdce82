package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opsdesk/internal/model"
	repoMocks "opsdesk/internal/repository/mocks"
	"opsdesk/internal/service"
	serviceMocks "opsdesk/internal/service/mocks"
)

type fixture struct {
	out      *bytes.Buffer
	users    *serviceMocks.MockUserService
	repo     *repoMocks.MockUserRepository
	migrated bool
	closed   bool
}

func newFixture() *fixture {
	return &fixture{
		out:   &bytes.Buffer{},
		users: new(serviceMocks.MockUserService),
		repo:  new(repoMocks.MockUserRepository),
	}
}

func (f *fixture) run(args ...string) error {
	e := &env{
		out: f.out,
		connect: func(context.Context) (*backend, error) {
			return &backend{
				users:    f.users,
				userRepo: f.repo,
				migrate: func(context.Context) error {
					f.migrated = true
					return nil
				},
				close: func() { f.closed = true },
			}, nil
		},
	}
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMigrate(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run("migrate"))
	assert.True(t, f.migrated)
	assert.True(t, f.closed)
	assert.Contains(t, f.out.String(), "schema is up to date")
}

func TestCreateUser(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		f := newFixture()
		in := service.CreateUserInput{Email: "ops@example.com", Name: "Ops", Role: model.RoleAdmin, Password: "longenough"}
		f.users.On("Create", mock.Anything, in).
			Return(&model.User{ID: "u1", Email: "ops@example.com", Role: model.RoleAdmin}, nil).Once()

		err := f.run("create-user", "--email", "ops@example.com", "--name", "Ops", "--role", "ADMIN", "--password", "longenough")

		require.NoError(t, err)
		assert.Contains(t, f.out.String(), "created admin user ops@example.com (u1)")
		f.users.AssertExpectations(t)
	})

	t.Run("missing flags", func(t *testing.T) {
		f := newFixture()
		err := f.run("create-user", "--email", "ops@example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		f.users.On("Create", mock.Anything, mock.Anything).Return(nil, &service.ValidationError{Fields: []service.FieldError{
			{Field: "password", Message: "password must be at least 8 characters"},
		}}).Once()

		err := f.run("create-user", "--email", "ops@example.com", "--name", "Ops", "--password", "short")
		require.Error(t, err)
		assert.Equal(t, "password must be at least 8 characters", err.Error())
	})
}

func TestResetPassword(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "ops@example.com").Return(&model.User{ID: "u1", Email: "ops@example.com"}, nil).Once()
		f.users.On("ResetPassword", mock.Anything, "u1", "brand-new-pass").Return(nil).Once()

		require.NoError(t, f.run("reset-password", "--email", " OPS@example.com ", "--password", "brand-new-pass"))
		assert.Contains(t, f.out.String(), "password reset for ops@example.com")
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, sql.ErrNoRows).Once()

		err := f.run("reset-password", "--email", "nobody@example.com", "--password", "brand-new-pass")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no user with email")
	})

	t.Run("connect failure", func(t *testing.T) {
		e := &env{out: &bytes.Buffer{}, connect: func(context.Context) (*backend, error) {
			return nil, errors.New("dial tcp: refused")
		}}
		cmd := newRootCmd(e)
		cmd.SetArgs([]string{"migrate"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connect: dial tcp: refused")
	})
}
