package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// CreateUserInput is the payload for creating an account.
type CreateUserInput struct {
	Name       string     `json:"name" validate:"required,notblank,max=120"`
	Email      string     `json:"email" validate:"required,email,max=254"`
	Role       model.Role `json:"role" validate:"required,role"`
	Department string     `json:"department" validate:"max=120"`
	Password   string     `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name       *string     `json:"name" validate:"omitempty,notblank,max=120"`
	Email      *string     `json:"email" validate:"omitempty,email,max=254"`
	Role       *model.Role `json:"role" validate:"omitempty,role"`
	Department *string     `json:"department" validate:"omitempty,max=120"`
}

// ChangePasswordInput is the body of PUT /users/me/password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// UserService manages accounts and roles.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter, limit, offset int) (*ListResult[model.User], error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error)
	// SetActive enables or disables login for a user. Admins cannot disable themselves.
	SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.User, error)
	ChangePassword(ctx context.Context, actor Actor, in ChangePasswordInput) error
	// ResetPassword sets a new password without knowing the old one.
	ResetPassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, actor Actor, id string) error
}

type userService struct {
	repo  repository.UserRepository
	cache cache.Cache
	log   *zap.Logger
	now   clock
}

// NewUserService builds the account use cases. Writes that change the active
// head count or user names drop cached analytics. A nil cache disables caching.
func NewUserService(repo repository.UserRepository, c cache.Cache, log *zap.Logger) UserService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, cache: c, log: log, now: systemClock(time.UTC)}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *userService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(notFound(err, ErrUserNotFound), ErrNotFound) {
			return nil
		}
		return fmt.Errorf("finding user by email: %w", err)
	}
	if existing.ID != selfID {
		return ErrEmailTaken
	}
	return nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &model.User{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Role:       in.Role,
		Department: strings.TrimSpace(in.Department),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return created, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, f repository.UserFilter, limit, offset int) (*ListResult[model.User], error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, fieldError("role", "role must be one of admin, manager, employee")
	}
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.User]{Items: res.Items, Total: res.Total}, nil
}

func (s *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != u.Email {
			if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Department != nil {
		u.Department = strings.TrimSpace(*in.Department)
	}
	return s.save(ctx, u)
}

// save persists u and drops cached analytics that show user names and counts.
func (s *userService) save(ctx context.Context, u *model.User) (*model.User, error) {
	u.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return nil, err
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return updated, nil
}

func (s *userService) SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.User, error) {
	if !active && actor.UserID == id {
		return nil, ErrSelfAction
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsActive == active {
		return u, nil
	}
	u.IsActive = active
	return s.save(ctx, u)
}

func (s *userService) ChangePassword(ctx context.Context, actor Actor, in ChangePasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	u, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := u.CheckPassword(in.CurrentPassword); err != nil {
		return fieldError("current_password", "current_password is incorrect")
	}
	return s.setPassword(ctx, u, in.NewPassword)
}

func (s *userService) ResetPassword(ctx context.Context, id, password string) error {
	if l := len(password); l < 8 || l > 72 {
		return fieldError("password", "password must be between 8 and 72 characters")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u, password)
}

func (s *userService) setPassword(ctx context.Context, u *model.User, pwd string) error {
	if err := u.SetPassword(pwd); err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.UpdatedAt = s.now().UTC()
	_, err := s.repo.Update(ctx, u)
	return err
}

func (s *userService) Delete(ctx context.Context, actor Actor, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if actor.UserID == id {
		return ErrSelfAction
	}
	// Time logs cascade with the user.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return nil
}
