package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
)

// backend is what the commands operate on; tests substitute mocks.
type backend struct {
	users    service.UserService
	userRepo repository.UserRepository
	migrate  func(ctx context.Context) error
	close    func()
}

type env struct {
	out     io.Writer
	connect func(ctx context.Context) (*backend, error)
}

// withBackend opens the backend for one command run.
func (e *env) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := e.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if b.close != nil {
		defer b.close()
	}
	return fn(ctx, b)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "opsdesk maintenance commands",
		SilenceUsage: true,
	}
	root.SetOut(e.out)
	root.SetErr(e.out)
	root.AddCommand(newMigrateCmd(e), newCreateUserCmd(e), newResetPasswordCmd(e))
	return root
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withBackend(cmd, func(ctx context.Context, b *backend) error {
				if err := b.migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "schema is up to date")
				return nil
			})
		},
	}
}

func newCreateUserCmd(e *env) *cobra.Command {
	var in service.CreateUserInput
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account. Use this to bootstrap the first admin:

  admin create-user --email ops@example.com --name "Ops" --role admin --password '...'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = model.Role(strings.ToLower(role))
			return e.withBackend(cmd, func(ctx context.Context, b *backend) error {
				u, err := b.users.Create(ctx, in)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(e.out, "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleEmployee), "admin, manager or employee")
	cmd.Flags().StringVar(&in.Department, "department", "", "department")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (8-72 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newResetPasswordCmd(e *env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withBackend(cmd, func(ctx context.Context, b *backend) error {
				u, err := b.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no user with email %s", email)
				}
				if err != nil {
					return err
				}
				if err := b.users.ResetPassword(ctx, u.ID, password); err != nil {
					return describe(err)
				}
				fmt.Fprintf(e.out, "password reset for %s\n", u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "new password (8-72 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// describe flattens validation errors into one line for the terminal.
func describe(err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			parts = append(parts, f.Message)
		}
		return errors.New(strings.Join(parts, "; "))
	}
	return err
}
