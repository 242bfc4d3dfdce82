package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

const maxDailyHours = 24.0

// TimeLogInput records work on a project.
type TimeLogInput struct {
	ProjectID   string         `json:"project_id" validate:"required,uuid"`
	Date        string         `json:"date" validate:"required,datetime=2006-01-02"`
	Hours       float64        `json:"hours" validate:"gt=0,lte=24"`
	WorkType    model.WorkType `json:"work_type" validate:"required,work_type"`
	Description string         `json:"description" validate:"max=1000"`
}

// UpdateTimeLogInput is a partial update of a time log.
type UpdateTimeLogInput struct {
	Date        *string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Hours       *float64        `json:"hours" validate:"omitempty,gt=0,lte=24"`
	WorkType    *model.WorkType `json:"work_type" validate:"omitempty,work_type"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
}

// TimeLogService records and queries hours worked. Employees only see and change their own logs;
// managers and admins see everyone's.
type TimeLogService interface {
	Create(ctx context.Context, actor Actor, in TimeLogInput) (*model.TimeLog, error)
	Get(ctx context.Context, actor Actor, id string) (*model.TimeLog, error)
	List(ctx context.Context, actor Actor, f repository.TimeLogFilter, limit, offset int) (*ListResult[model.TimeLog], error)
	// All returns every visible log matching f, for exports.
	All(ctx context.Context, actor Actor, f repository.TimeLogFilter) ([]model.TimeLog, error)
	Update(ctx context.Context, actor Actor, id string, in UpdateTimeLogInput) (*model.TimeLog, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type timeLogService struct {
	repo     repository.TimeLogRepository
	projects repository.ProjectRepository
	cache    cache.Cache
	log      *zap.Logger
	now      clock
}

func NewTimeLogService(repo repository.TimeLogRepository, projects repository.ProjectRepository, c cache.Cache, log *zap.Logger, loc *time.Location) TimeLogService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &timeLogService{repo: repo, projects: projects, cache: c, log: log, now: systemClock(loc)}
}

// scope restricts employees to their own logs.
func scope(actor Actor, userID string) string {
	if actor.IsManager() {
		return userID
	}
	return actor.UserID
}

func canTouch(actor Actor, ownerID string) bool {
	return actor.IsManager() || actor.UserID == ownerID
}

// checkEntry validates a log against its project, the calendar and the owner's daily total.
// excludeHours is subtracted from the stored daily total when an existing log is being edited.
func (s *timeLogService) checkEntry(ctx context.Context, l *model.TimeLog, excludeHours float64) error {
	if l.Date.After(s.now.today()) {
		return fieldError("date", "date cannot be in the future")
	}

	p, err := s.projects.FindByID(ctx, l.ProjectID)
	if err != nil {
		if err = notFound(err, ErrProjectNotFound); errors.Is(err, ErrProjectNotFound) {
			return fieldError("project_id", "project does not exist")
		}
		return err
	}
	if p.Status == model.ProjectCompleted {
		return ErrProjectClosed
	}
	if l.Date.Before(model.DateOf(p.StartDate)) {
		return fieldError("date", "date is before the project start date")
	}

	day, err := s.repo.SumHours(ctx, repository.TimeLogFilter{UserID: l.UserID, From: l.Date, To: l.Date})
	if err != nil {
		return fmt.Errorf("summing daily hours: %w", err)
	}
	if day-excludeHours+l.Hours > maxDailyHours {
		return ErrDailyLimit
	}
	return nil
}

func (s *timeLogService) Create(ctx context.Context, actor Actor, in TimeLogInput) (*model.TimeLog, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	l := &model.TimeLog{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		ProjectID:   in.ProjectID,
		Date:        date,
		Hours:       in.Hours,
		WorkType:    in.WorkType,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.checkEntry(ctx, l, 0); err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("saving time log: %w", err)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return stored, nil
}

func (s *timeLogService) Get(ctx context.Context, actor Actor, id string) (*model.TimeLog, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}
	if !canTouch(actor, l.UserID) {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *timeLogService) List(ctx context.Context, actor Actor, f repository.TimeLogFilter, limit, offset int) (*ListResult[model.TimeLog], error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fieldError("to", "to must not be before from")
	}
	f.UserID = scope(actor, f.UserID)
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.TimeLog]{Items: res.Items, Total: res.Total}, nil
}

func (s *timeLogService) All(ctx context.Context, actor Actor, f repository.TimeLogFilter) ([]model.TimeLog, error) {
	f.UserID = scope(actor, f.UserID)
	return s.repo.All(ctx, f)
}

func (s *timeLogService) Update(ctx context.Context, actor Actor, id string, in UpdateTimeLogInput) (*model.TimeLog, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	// hours already counted for the target day by this very log
	exclude := l.Hours
	if in.Date != nil {
		d, err := parseDate("date", *in.Date)
		if err != nil {
			return nil, err
		}
		if !d.Equal(l.Date) {
			exclude = 0
		}
		l.Date = d
	}
	if in.Hours != nil {
		l.Hours = *in.Hours
	}
	if in.WorkType != nil {
		l.WorkType = *in.WorkType
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if err := s.checkEntry(ctx, l, exclude); err != nil {
		return nil, err
	}

	l.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, l)
	if err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return updated, nil
}

func (s *timeLogService) Delete(ctx context.Context, actor Actor, id string) error {
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, l.ID); err != nil {
		return err
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return nil
}
