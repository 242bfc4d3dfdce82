package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsdesk/internal/auth"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService authenticates users and resolves tokens back to accounts.
type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// Authenticate verifies a bearer token and returns the caller.
	Authenticate(ctx context.Context, token string) (Actor, error)
	// Me returns the caller's account.
	Me(ctx context.Context, actor Actor) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.Issuer
	now    clock
}

func NewAuthService(users repository.UserRepository, tokens *auth.Issuer) AuthService {
	return &authService{users: users, tokens: tokens, now: systemClock(time.UTC)}
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(notFound(err, ErrUserNotFound), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	if err := u.CheckPassword(in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if err := s.users.SetLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("setting last login: %w", err)
	}
	u.LastLoginAt = &now

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate only trusts the token's subject; role and status are re-read so that
// deactivation and role changes apply immediately.
func (s *authService) Authenticate(ctx context.Context, token string) (Actor, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Actor{}, err
	}
	u, err := s.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(notFound(err, ErrUserNotFound), ErrNotFound) {
			return Actor{}, auth.ErrInvalidToken
		}
		return Actor{}, err
	}
	if !u.IsActive {
		return Actor{}, ErrAccountDisabled
	}
	return Actor{UserID: u.ID, Role: u.Role}, nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	u, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}
