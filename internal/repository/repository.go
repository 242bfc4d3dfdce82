// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) and contain no business logic.
package repository

import (
	"context"
	"time"

	"opsdesk/internal/model"
)

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// UserFilter narrows user listings. Zero values mean "any".
type UserFilter struct {
	Role   model.Role
	Active *bool
	Search string
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f UserFilter, pq PageQuery) (*PageResult[model.User], error)
	// ListByRoles returns active users holding any of roles.
	ListByRoles(ctx context.Context, roles ...model.Role) ([]model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status model.ProjectStatus
	Search string
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) (*model.Project, error)
	FindByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, f ProjectFilter, pq PageQuery) (*PageResult[model.Project], error)
	// All returns every project, unpaginated, for aggregation.
	All(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) (*model.Project, error)
	Delete(ctx context.Context, id string) error
	// CountByStatus returns the number of projects per status.
	CountByStatus(ctx context.Context) (map[model.ProjectStatus]int, error)
}

// TimeLogFilter narrows time log queries. From and To are inclusive dates.
type TimeLogFilter struct {
	UserID    string
	ProjectID string
	WorkType  model.WorkType
	From      time.Time
	To        time.Time
}

// TimeLogRepository persists time logs.
type TimeLogRepository interface {
	Create(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error)
	FindByID(ctx context.Context, id string) (*model.TimeLog, error)
	List(ctx context.Context, f TimeLogFilter, pq PageQuery) (*PageResult[model.TimeLog], error)
	// All returns every log matching f, unpaginated, for aggregation.
	All(ctx context.Context, f TimeLogFilter) ([]model.TimeLog, error)
	Update(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error)
	Delete(ctx context.Context, id string) error
	// SumHours totals hours matching f.
	SumHours(ctx context.Context, f TimeLogFilter) (float64, error)
}

// LeaveFilter narrows leave request queries. Year matches requests overlapping that calendar year.
type LeaveFilter struct {
	UserID string
	Status model.LeaveStatus
	Type   model.LeaveType
	Year   int
}

// LeaveRepository persists leave requests and per-employee allocations.
type LeaveRepository interface {
	Create(ctx context.Context, r *model.LeaveRequest) (*model.LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	List(ctx context.Context, f LeaveFilter, pq PageQuery) (*PageResult[model.LeaveRequest], error)
	All(ctx context.Context, f LeaveFilter) ([]model.LeaveRequest, error)
	UpdateStatus(ctx context.Context, r *model.LeaveRequest) (*model.LeaveRequest, error)
	CountByStatus(ctx context.Context, status model.LeaveStatus) (int, error)

	Allocations(ctx context.Context, userID string, year int) ([]model.LeaveAllocation, error)
	UpsertAllocation(ctx context.Context, a model.LeaveAllocation) error
}

// PolicyRepository persists policy document metadata.
type PolicyRepository interface {
	Create(ctx context.Context, p *model.Policy) (*model.Policy, error)
	FindByID(ctx context.Context, id string) (*model.Policy, error)
	List(ctx context.Context, category string, pq PageQuery) (*PageResult[model.Policy], error)
	// Delete removes a policy by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
