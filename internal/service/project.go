package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// ProjectInput creates a project. Dates are YYYY-MM-DD.
type ProjectInput struct {
	Name           string               `json:"name" validate:"required,notblank,max=200"`
	Client         string               `json:"client" validate:"max=200"`
	Description    string               `json:"description" validate:"max=2000"`
	Status         model.ProjectStatus  `json:"status" validate:"omitempty,project_status"`
	BillingType    model.BillingType    `json:"billing_type" validate:"required,billing_type"`
	BillingSubType model.BillingSubType `json:"billing_sub_type" validate:"omitempty,billing_sub_type"`
	FixedAmount    float64              `json:"fixed_amount" validate:"gte=0"`
	HourlyRate     float64              `json:"hourly_rate" validate:"gte=0"`
	EstimatedHours float64              `json:"estimated_hours" validate:"gte=0"`
	RetainerHours  float64              `json:"retainer_hours" validate:"gte=0"`
	StartDate      string               `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string               `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateProjectInput is a partial update. An empty EndDate string clears the end date.
type UpdateProjectInput struct {
	Name           *string               `json:"name" validate:"omitempty,notblank,max=200"`
	Client         *string               `json:"client" validate:"omitempty,max=200"`
	Description    *string               `json:"description" validate:"omitempty,max=2000"`
	Status         *model.ProjectStatus  `json:"status" validate:"omitempty,project_status"`
	BillingType    *model.BillingType    `json:"billing_type" validate:"omitempty,billing_type"`
	BillingSubType *model.BillingSubType `json:"billing_sub_type"`
	FixedAmount    *float64              `json:"fixed_amount" validate:"omitempty,gte=0"`
	HourlyRate     *float64              `json:"hourly_rate" validate:"omitempty,gte=0"`
	EstimatedHours *float64              `json:"estimated_hours" validate:"omitempty,gte=0"`
	RetainerHours  *float64              `json:"retainer_hours" validate:"omitempty,gte=0"`
	StartDate      *string               `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string               `json:"end_date"`
}

// ProjectService manages projects and reports their progress.
type ProjectService interface {
	Create(ctx context.Context, actor Actor, in ProjectInput) (*model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, f repository.ProjectFilter, limit, offset int) (*ListResult[model.Project], error)
	Update(ctx context.Context, id string, in UpdateProjectInput) (*model.Project, error)
	Delete(ctx context.Context, id string) error
	// Progress compares logged hours with the estimate.
	Progress(ctx context.Context, id string) (*model.ProjectProgress, error)
}

type projectService struct {
	repo  repository.ProjectRepository
	logs  repository.TimeLogRepository
	cache cache.Cache
	log   *zap.Logger
	now   clock
}

func NewProjectService(repo repository.ProjectRepository, logs repository.TimeLogRepository, c cache.Cache, log *zap.Logger) ProjectService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &projectService{repo: repo, logs: logs, cache: c, log: log, now: systemClock(time.UTC)}
}

// checkBilling enforces the fields each billing model needs.
func checkBilling(p *model.Project) error {
	ve := &ValidationError{}
	switch p.Billing.Type {
	case model.BillingHourly:
		if p.Billing.SubType != model.SubTypeNone {
			ve.add("billing_sub_type", "billing_sub_type must be empty for hourly billing")
		}
		if p.HourlyRate <= 0 {
			ve.add("hourly_rate", "hourly_rate is required for hourly billing")
		}
	case model.BillingOneTime, model.BillingRetainer:
		switch p.Billing.SubType {
		case model.SubTypeFixed:
			if p.FixedAmount <= 0 {
				ve.add("fixed_amount", "fixed_amount is required for fixed billing")
			}
		case model.SubTypeHours:
			if p.HourlyRate <= 0 {
				ve.add("hourly_rate", "hourly_rate is required for hours-based billing")
			}
			if p.Billing.Type == model.BillingOneTime && p.EstimatedHours <= 0 {
				ve.add("estimated_hours", "estimated_hours is required for hours-based one_time billing")
			}
			if p.Billing.Type == model.BillingRetainer && p.RetainerHours <= 0 {
				ve.add("retainer_hours", "retainer_hours is required for hours-based retainer billing")
			}
		default:
			ve.add("billing_sub_type", "billing_sub_type must be one of fixed, hours")
		}
	default:
		ve.add("billing_type", "billing_type must be one of one_time, hourly, monthly_retainer")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		ve.add("end_date", "end_date must not be before start_date")
	}
	return ve.orNil()
}

func (s *projectService) Create(ctx context.Context, actor Actor, in ProjectInput) (*model.Project, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Project{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(in.Name),
		Client:         strings.TrimSpace(in.Client),
		Description:    in.Description,
		Status:         in.Status,
		Billing:        model.BillingModel{Type: in.BillingType, SubType: in.BillingSubType},
		FixedAmount:    in.FixedAmount,
		HourlyRate:     in.HourlyRate,
		EstimatedHours: in.EstimatedHours,
		RetainerHours:  in.RetainerHours,
		StartDate:      start,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Status == "" {
		p.Status = model.ProjectActive
	}
	if !end.IsZero() {
		p.EndDate = &end
	}
	if err := checkBilling(p); err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("saving project: %w", err)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return stored, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, f repository.ProjectFilter, limit, offset int) (*ListResult[model.Project], error) {
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Project]{Items: res.Items, Total: res.Total}, nil
}

func (s *projectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*model.Project, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Client != nil {
		p.Client = strings.TrimSpace(*in.Client)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.BillingType != nil {
		p.Billing.Type = *in.BillingType
	}
	if in.BillingSubType != nil {
		p.Billing.SubType = *in.BillingSubType
	}
	if in.FixedAmount != nil {
		p.FixedAmount = *in.FixedAmount
	}
	if in.HourlyRate != nil {
		p.HourlyRate = *in.HourlyRate
	}
	if in.EstimatedHours != nil {
		p.EstimatedHours = *in.EstimatedHours
	}
	if in.RetainerHours != nil {
		p.RetainerHours = *in.RetainerHours
	}
	if in.StartDate != nil {
		if p.StartDate, err = parseDate("start_date", *in.StartDate); err != nil {
			return nil, err
		}
	}
	if in.EndDate != nil {
		end, err := parseDate("end_date", *in.EndDate)
		if err != nil {
			return nil, err
		}
		p.EndDate = nil
		if !end.IsZero() {
			p.EndDate = &end
		}
	}
	if err := checkBilling(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return updated, nil
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	return nil
}

func (s *projectService) Progress(ctx context.Context, id string) (*model.ProjectProgress, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	logged, err := s.logs.SumHours(ctx, repository.TimeLogFilter{ProjectID: p.ID})
	if err != nil {
		return nil, fmt.Errorf("summing hours: %w", err)
	}

	pr := &model.ProjectProgress{
		ProjectID:      p.ID,
		LoggedHours:    round2(logged),
		EstimatedHours: p.EstimatedHours,
	}
	if p.EstimatedHours > 0 {
		pr.Percent = round2(min(100, logged/p.EstimatedHours*100))
	}
	return pr, nil
}
