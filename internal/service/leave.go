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
	"opsdesk/internal/config"
	"opsdesk/internal/leave"
	"opsdesk/internal/logger"
	"opsdesk/internal/model"
	"opsdesk/internal/notify"
	"opsdesk/internal/repository"
)

// LeaveInput applies for leave. Both dates are inclusive.
type LeaveInput struct {
	Type      model.LeaveType `json:"type" validate:"required,leave_type"`
	StartDate string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string          `json:"reason" validate:"max=1000"`
}

// ReviewInput carries an optional note for approve/reject.
type ReviewInput struct {
	Note string `json:"note" validate:"max=1000"`
}

// AllocationInput overrides one employee's yearly allocation for a leave type.
type AllocationInput struct {
	UserID string          `json:"user_id" validate:"required,uuid"`
	Year   int             `json:"year" validate:"required,gte=2000,lte=2100"`
	Type   model.LeaveType `json:"type" validate:"required,leave_type"`
	Days   int             `json:"days" validate:"gte=0,lte=366"`
}

// LeaveBalanceReport is a user's balance for one year.
type LeaveBalanceReport struct {
	UserID   string               `json:"user_id"`
	Year     int                  `json:"year"`
	Balances []model.LeaveBalance `json:"balances"`
}

// LeaveService runs the leave request workflow: apply, review, cancel, and balance reporting.
type LeaveService interface {
	Apply(ctx context.Context, actor Actor, in LeaveInput) (*model.LeaveRequest, error)
	Get(ctx context.Context, actor Actor, id string) (*model.LeaveRequest, error)
	List(ctx context.Context, actor Actor, f repository.LeaveFilter, limit, offset int) (*ListResult[model.LeaveRequest], error)
	Approve(ctx context.Context, actor Actor, id string, in ReviewInput) (*model.LeaveRequest, error)
	Reject(ctx context.Context, actor Actor, id string, in ReviewInput) (*model.LeaveRequest, error)
	Cancel(ctx context.Context, actor Actor, id string) (*model.LeaveRequest, error)
	// Balance reports a user's balance for year. Zero values default to the caller and the current year.
	Balance(ctx context.Context, actor Actor, userID string, year int) (*LeaveBalanceReport, error)
	SetAllocation(ctx context.Context, in AllocationInput) error
}

type leaveService struct {
	repo     repository.LeaveRepository
	users    repository.UserRepository
	notifier notify.Notifier
	cache    cache.Cache
	defaults leave.Allocation
	log      *zap.Logger
	now      clock
}

func NewLeaveService(
	repo repository.LeaveRepository,
	users repository.UserRepository,
	notifier notify.Notifier,
	c cache.Cache,
	policy config.LeavePolicy,
	log *zap.Logger,
	loc *time.Location,
) LeaveService {
	if log == nil {
		log = zap.NewNop()
	}
	if c == nil {
		c = cache.Noop{}
	}
	defaults := make(leave.Allocation, len(policy.Allocations))
	for t, d := range policy.Allocations {
		defaults[model.LeaveType(t)] = d
	}
	return &leaveService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		cache:    c,
		defaults: defaults,
		log:      log,
		now:      systemClock(loc),
	}
}

func (s *leaveService) allocation(ctx context.Context, userID string, year int) (leave.Allocation, error) {
	alloc := make(leave.Allocation, len(s.defaults))
	for t, d := range s.defaults {
		alloc[t] = d
	}
	overrides, err := s.repo.Allocations(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("loading allocations: %w", err)
	}
	for _, o := range overrides {
		alloc[o.Type] = o.Days
	}
	return alloc, nil
}

// requestsFor returns the user's requests overlapping any year in [from, to].
func (s *leaveService) requestsFor(ctx context.Context, userID string, from, to int) ([]model.LeaveRequest, error) {
	seen := make(map[string]struct{})
	var out []model.LeaveRequest
	for y := from; y <= to; y++ {
		reqs, err := s.repo.All(ctx, repository.LeaveFilter{UserID: userID, Year: y})
		if err != nil {
			return nil, fmt.Errorf("loading leave requests: %w", err)
		}
		for _, r := range reqs {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out, nil
}

// checkBalance verifies r fits in every year it touches, ignoring r itself among existing.
func (s *leaveService) checkBalance(ctx context.Context, r *model.LeaveRequest, existing []model.LeaveRequest) error {
	others := make([]model.LeaveRequest, 0, len(existing))
	for _, e := range existing {
		if e.ID != r.ID {
			others = append(others, e)
		}
	}
	for y := r.StartDate.Year(); y <= r.EndDate.Year(); y++ {
		alloc, err := s.allocation(ctx, r.UserID, y)
		if err != nil {
			return err
		}
		b, _ := leave.Find(leave.Balance(alloc, others, y), r.Type)
		if !leave.CanTake(b, leave.DaysInYear(*r, y)) {
			return ErrInsufficientBalance
		}
	}
	return nil
}

func (s *leaveService) Apply(ctx context.Context, actor Actor, in LeaveInput) (*model.LeaveRequest, error) {
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
	if end.Before(start) {
		return nil, fieldError("end_date", "end_date must not be before start_date")
	}

	now := s.now().UTC()
	r := &model.LeaveRequest{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		Type:      in.Type,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(in.Reason),
		Status:    model.LeavePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.requestsFor(ctx, r.UserID, start.Year(), end.Year())
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Blocking() && leave.Overlaps(e, *r) {
			return nil, ErrOverlappingLeave
		}
	}
	if err := s.checkBalance(ctx, r, existing); err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("saving leave request: %w", err)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	s.notifyRequested(ctx, *stored)
	return stored, nil
}

func (s *leaveService) notifyRequested(ctx context.Context, r model.LeaveRequest) {
	requester, err := s.users.FindByID(ctx, r.UserID)
	if err != nil {
		logger.For(ctx, s.log).Warn("leave_notify_lookup_failed", zap.String("leave_id", r.ID), zap.Error(err))
		return
	}
	approvers, err := s.users.ListByRoles(ctx, model.RoleManager, model.RoleAdmin)
	if err != nil {
		logger.For(ctx, s.log).Warn("leave_notify_lookup_failed", zap.String("leave_id", r.ID), zap.Error(err))
		return
	}
	s.notifier.LeaveRequested(ctx, *requester, approvers, r)
}

func (s *leaveService) notifyDecided(ctx context.Context, r model.LeaveRequest) {
	u, err := s.users.FindByID(ctx, r.UserID)
	if err != nil {
		logger.For(ctx, s.log).Warn("leave_notify_lookup_failed", zap.String("leave_id", r.ID), zap.Error(err))
		return
	}
	s.notifier.LeaveDecided(ctx, *u, r)
}

func (s *leaveService) find(ctx context.Context, id string) (*model.LeaveRequest, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLeaveNotFound)
	}
	return r, nil
}

func (s *leaveService) Get(ctx context.Context, actor Actor, id string) (*model.LeaveRequest, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, r.UserID) {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *leaveService) List(ctx context.Context, actor Actor, f repository.LeaveFilter, limit, offset int) (*ListResult[model.LeaveRequest], error) {
	f.UserID = scope(actor, f.UserID)
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.LeaveRequest]{Items: res.Items, Total: res.Total}, nil
}

// review moves a pending request to status. Reviewers cannot decide their own requests.
func (s *leaveService) review(ctx context.Context, actor Actor, id string, in ReviewInput, status model.LeaveStatus) (*model.LeaveRequest, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID == actor.UserID {
		return nil, ErrForbidden
	}
	if r.Status != model.LeavePending {
		return nil, ErrLeaveNotPending
	}

	if status == model.LeaveApproved {
		existing, err := s.requestsFor(ctx, r.UserID, r.StartDate.Year(), r.EndDate.Year())
		if err != nil {
			return nil, err
		}
		if err := s.checkBalance(ctx, r, existing); err != nil {
			return nil, err
		}
	}

	r.Status = status
	r.ReviewedBy = actor.UserID
	r.ReviewNote = strings.TrimSpace(in.Note)
	r.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, r)
	if err != nil {
		return nil, notFound(err, ErrLeaveNotFound)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	s.notifyDecided(ctx, *updated)
	return updated, nil
}

func (s *leaveService) Approve(ctx context.Context, actor Actor, id string, in ReviewInput) (*model.LeaveRequest, error) {
	return s.review(ctx, actor, id, in, model.LeaveApproved)
}

func (s *leaveService) Reject(ctx context.Context, actor Actor, id string, in ReviewInput) (*model.LeaveRequest, error) {
	return s.review(ctx, actor, id, in, model.LeaveRejected)
}

// Cancel withdraws the caller's own request while it is pending, or while it is approved
// but has not started yet.
func (s *leaveService) Cancel(ctx context.Context, actor Actor, id string) (*model.LeaveRequest, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != actor.UserID {
		return nil, ErrForbidden
	}

	wasApproved := r.Status == model.LeaveApproved
	switch {
	case r.Status == model.LeavePending:
	case wasApproved && r.StartDate.After(s.now.today()):
	default:
		return nil, ErrLeaveNotCancellable
	}

	r.Status = model.LeaveCancelled
	r.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, r)
	if err != nil {
		return nil, notFound(err, ErrLeaveNotFound)
	}
	invalidateAnalytics(ctx, s.cache, s.log)
	if wasApproved {
		s.notifyDecided(ctx, *updated)
	}
	return updated, nil
}

func (s *leaveService) Balance(ctx context.Context, actor Actor, userID string, year int) (*LeaveBalanceReport, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if !canTouch(actor, userID) {
		return nil, ErrForbidden
	}
	if year == 0 {
		year = s.now().Year()
	}
	alloc, err := s.allocation(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.All(ctx, repository.LeaveFilter{UserID: userID, Year: year})
	if err != nil {
		return nil, fmt.Errorf("loading leave requests: %w", err)
	}
	return &LeaveBalanceReport{
		UserID:   userID,
		Year:     year,
		Balances: leave.Balance(alloc, reqs, year),
	}, nil
}

func (s *leaveService) SetAllocation(ctx context.Context, in AllocationInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if err = notFound(err, ErrUserNotFound); errors.Is(err, ErrUserNotFound) {
			return fieldError("user_id", "user does not exist")
		}
		return err
	}
	return s.repo.UpsertAllocation(ctx, model.LeaveAllocation{
		UserID: in.UserID,
		Year:   in.Year,
		Type:   in.Type,
		Days:   in.Days,
	})
}
